package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"taskhub/internal/domain"
	"taskhub/internal/middleware"
	"taskhub/internal/pkg/validate"
	"taskhub/internal/policy"
	"taskhub/internal/service/project"
)

type ProjectHandler struct {
	projectService project.Service
}

func NewProjectHandler(projectService project.Service) *ProjectHandler {
	return &ProjectHandler{projectService: projectService}
}

func (h *ProjectHandler) List(c *fiber.Ctx) error {
	subject, err := middleware.GetSubject(c)
	if err != nil {
		return err
	}

	projects, err := h.projectService.List(c.Context(), subject)
	if err != nil {
		return err
	}
	return respondList(c, projects)
}

func (h *ProjectHandler) GetByID(c *fiber.Ctx) error {
	subject, err := middleware.GetSubject(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id", "Project")
	if err != nil {
		return err
	}

	p, err := h.projectService.GetByID(c.Context(), subject, id)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, p)
}

func (h *ProjectHandler) Create(c *fiber.Ctx) error {
	subject, err := middleware.GetSubject(c)
	if err != nil {
		return err
	}

	var input domain.CreateProjectInput
	if err := c.BodyParser(&input); err != nil {
		return middleware.BadRequest("Invalid request body")
	}

	p, err := h.projectService.Create(c.Context(), subject, input)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusCreated, p)
}

func (h *ProjectHandler) Update(c *fiber.Ctx) error {
	subject, err := middleware.GetSubject(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id", "Project")
	if err != nil {
		return err
	}

	var input domain.UpdateProjectInput
	if err := c.BodyParser(&input); err != nil {
		return middleware.BadRequest("Invalid request body")
	}

	p, err := h.projectService.Update(c.Context(), subject, id, input)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, p)
}

func (h *ProjectHandler) Delete(c *fiber.Ctx) error {
	subject, err := middleware.GetSubject(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id", "Project")
	if err != nil {
		return err
	}

	if err := h.projectService.Delete(c.Context(), subject, id); err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, fiber.Map{})
}

func (h *ProjectHandler) AddMember(c *fiber.Ctx) error {
	return h.changeMembership(c, h.projectService.AddMember)
}

func (h *ProjectHandler) RemoveMember(c *fiber.Ctx) error {
	return h.changeMembership(c, h.projectService.RemoveMember)
}

type membershipFunc func(ctx context.Context, subject policy.Subject, id, userID uuid.UUID) (*domain.Project, error)

func (h *ProjectHandler) changeMembership(c *fiber.Ctx, change membershipFunc) error {
	subject, err := middleware.GetSubject(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id", "Project")
	if err != nil {
		return err
	}

	var input domain.MemberInput
	if err := c.BodyParser(&input); err != nil {
		return middleware.BadRequest("Invalid request body")
	}
	if err := validate.Struct(input); err != nil {
		return err
	}

	p, err := change(c.Context(), subject, id, input.UserID)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, p)
}
