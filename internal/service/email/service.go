package email

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"

	"github.com/resend/resend-go/v3"

	"taskhub/internal/config"
	"taskhub/internal/logger"
)

//go:embed templates/*.html
var templateFS embed.FS

var taskUpdateTemplate = template.Must(template.ParseFS(templateFS, "templates/task_update.html"))

// TaskMessage is the content of one task event email.
type TaskMessage struct {
	TaskTitle   string
	ProjectName string
	Action      string
	Details     string
	Status      string
	Priority    string
	Assignee    string
	DueDate     string
}

func (m TaskMessage) Subject() string {
	return fmt.Sprintf("Task Update: %q (%s)", m.TaskTitle, m.Action)
}

type Service interface {
	SendTaskNotification(ctx context.Context, recipients []string, msg TaskMessage) error
}

type service struct {
	client *resend.Client
	config *config.Config
}

func NewService(cfg *config.Config) Service {
	var client *resend.Client
	if cfg.ResendAPIKey != "" {
		client = resend.NewClient(cfg.ResendAPIKey)
	}
	return &service{
		client: client,
		config: cfg,
	}
}

// SendTaskNotification sends one email per recipient and reports every failure.
func (s *service) SendTaskNotification(ctx context.Context, recipients []string, msg TaskMessage) error {
	if s.client == nil {
		logger.Log.WithField("subject", msg.Subject()).Debug("Email transport not configured, skipping")
		return nil
	}

	body, err := renderTaskMessage(msg, s.config.AppName)
	if err != nil {
		return err
	}

	var errs []error
	for _, to := range recipients {
		if err := ctx.Err(); err != nil {
			return err
		}
		params := &resend.SendEmailRequest{
			From:    fmt.Sprintf("%s <%s>", s.config.AppName, s.config.FromEmail),
			To:      []string{to},
			Html:    body,
			Subject: msg.Subject(),
		}
		if _, err := s.client.Emails.Send(params); err != nil {
			errs = append(errs, fmt.Errorf("send to %s: %w", to, err))
		}
	}
	return errors.Join(errs...)
}

func renderTaskMessage(msg TaskMessage, appName string) (string, error) {
	data := struct {
		TaskMessage
		Subject string
		Title   string
		AppName string
	}{
		TaskMessage: msg,
		Subject:     msg.Subject(),
		Title:       fmt.Sprintf("Task %q: %s", msg.TaskTitle, msg.Action),
		AppName:     appName,
	}

	var body bytes.Buffer
	if err := taskUpdateTemplate.Execute(&body, data); err != nil {
		return "", fmt.Errorf("failed to execute email template: %w", err)
	}
	return body.String(), nil
}
