package handler

import (
	"github.com/gofiber/fiber/v2"

	"taskhub/internal/middleware"
	"taskhub/internal/service/activity"
)

type ActivityHandler struct {
	activityService activity.Service
}

func NewActivityHandler(activityService activity.Service) *ActivityHandler {
	return &ActivityHandler{activityService: activityService}
}

func (h *ActivityHandler) ListByProject(c *fiber.Ctx) error {
	subject, err := middleware.GetSubject(c)
	if err != nil {
		return err
	}
	projectID, err := paramID(c, "projectId", "Project")
	if err != nil {
		return err
	}

	logs, err := h.activityService.ListByProject(c.Context(), subject, projectID)
	if err != nil {
		return err
	}
	return respondList(c, logs)
}
