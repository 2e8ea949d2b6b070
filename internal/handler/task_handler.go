package handler

import (
	"github.com/gofiber/fiber/v2"

	"taskhub/internal/domain"
	"taskhub/internal/middleware"
	"taskhub/internal/service/task"
)

type TaskHandler struct {
	taskService task.Service
}

func NewTaskHandler(taskService task.Service) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

func (h *TaskHandler) ListByProject(c *fiber.Ctx) error {
	subject, err := middleware.GetSubject(c)
	if err != nil {
		return err
	}
	projectID, err := paramID(c, "projectId", "Project")
	if err != nil {
		return err
	}

	tasks, err := h.taskService.ListByProject(c.Context(), subject, projectID)
	if err != nil {
		return err
	}
	return respondList(c, tasks)
}

func (h *TaskHandler) Create(c *fiber.Ctx) error {
	subject, err := middleware.GetSubject(c)
	if err != nil {
		return err
	}
	projectID, err := paramID(c, "projectId", "Project")
	if err != nil {
		return err
	}

	var input domain.CreateTaskInput
	if err := c.BodyParser(&input); err != nil {
		return middleware.BadRequest("Invalid request body")
	}

	t, err := h.taskService.Create(c.Context(), subject, projectID, input)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusCreated, t)
}

func (h *TaskHandler) GetByID(c *fiber.Ctx) error {
	subject, err := middleware.GetSubject(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id", "Task")
	if err != nil {
		return err
	}

	t, err := h.taskService.GetByID(c.Context(), subject, id)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, t)
}

func (h *TaskHandler) Update(c *fiber.Ctx) error {
	subject, err := middleware.GetSubject(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id", "Task")
	if err != nil {
		return err
	}

	var input domain.UpdateTaskInput
	if err := c.BodyParser(&input); err != nil {
		return middleware.BadRequest("Invalid request body")
	}

	t, err := h.taskService.Update(c.Context(), subject, id, input)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, t)
}

func (h *TaskHandler) Delete(c *fiber.Ctx) error {
	subject, err := middleware.GetSubject(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id", "Task")
	if err != nil {
		return err
	}

	if err := h.taskService.Delete(c.Context(), subject, id); err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, fiber.Map{})
}
