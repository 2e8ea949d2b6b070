package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"taskhub/internal/domain"
	"taskhub/internal/logger"
)

type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// ErrorHandler writes every error as {success:false, error} with a status derived from its kind.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code, message := Classify(err)

	if code >= fiber.StatusInternalServerError {
		logger.Log.WithFields(logger.Fields{
			"method": c.Method(),
			"path":   c.Path(),
		}).WithError(err).Error("Request failed")
	}

	return c.Status(code).JSON(ErrorResponse{
		Success: false,
		Error:   message,
	})
}

func Classify(err error) (int, string) {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code, fe.Message
	}

	var de *domain.Error
	if !errors.As(err, &de) {
		return fiber.StatusInternalServerError, "Server Error"
	}

	switch de.Kind {
	case domain.KindValidation:
		return fiber.StatusBadRequest, de.Message
	case domain.KindAuthentication:
		return fiber.StatusUnauthorized, de.Message
	case domain.KindAuthorization:
		return fiber.StatusForbidden, de.Message
	case domain.KindNotFound:
		return fiber.StatusNotFound, de.Message
	case domain.KindConflict:
		return fiber.StatusConflict, de.Message
	default:
		return fiber.StatusInternalServerError, "Server Error"
	}
}

func BadRequest(message string) *fiber.Error {
	return fiber.NewError(fiber.StatusBadRequest, message)
}

func Unauthorized(message string) *fiber.Error {
	return fiber.NewError(fiber.StatusUnauthorized, message)
}

func NotFound(message string) *fiber.Error {
	return fiber.NewError(fiber.StatusNotFound, message)
}
