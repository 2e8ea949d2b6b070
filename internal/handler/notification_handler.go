package handler

import (
	"github.com/gofiber/fiber/v2"

	"taskhub/internal/middleware"
	"taskhub/internal/service/notification"
)

type NotificationHandler struct {
	notifService notification.Service
}

func NewNotificationHandler(notifService notification.Service) *NotificationHandler {
	return &NotificationHandler{notifService: notifService}
}

func (h *NotificationHandler) List(c *fiber.Ctx) error {
	subject, err := middleware.GetSubject(c)
	if err != nil {
		return err
	}

	notifications, err := h.notifService.List(c.Context(), subject.UserID)
	if err != nil {
		return err
	}
	return respondList(c, notifications)
}

func (h *NotificationHandler) GetUnreadCount(c *fiber.Ctx) error {
	subject, err := middleware.GetSubject(c)
	if err != nil {
		return err
	}

	count, err := h.notifService.UnreadCount(c.Context(), subject.UserID)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, fiber.Map{"count": count})
}

func (h *NotificationHandler) MarkAsRead(c *fiber.Ctx) error {
	subject, err := middleware.GetSubject(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id", "Notification")
	if err != nil {
		return err
	}

	n, err := h.notifService.MarkRead(c.Context(), subject, id)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, n)
}

func (h *NotificationHandler) MarkAllAsRead(c *fiber.Ctx) error {
	subject, err := middleware.GetSubject(c)
	if err != nil {
		return err
	}

	updated, err := h.notifService.MarkAllRead(c.Context(), subject.UserID)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, fiber.Map{"updated": updated})
}
