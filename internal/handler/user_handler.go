package handler

import (
	"github.com/gofiber/fiber/v2"

	"taskhub/internal/domain"
	"taskhub/internal/middleware"
	"taskhub/internal/service/user"
)

type UserHandler struct {
	userService user.Service
}

func NewUserHandler(userService user.Service) *UserHandler {
	return &UserHandler{userService: userService}
}

func (h *UserHandler) List(c *fiber.Ctx) error {
	subject, err := middleware.GetSubject(c)
	if err != nil {
		return err
	}

	var role *domain.Role
	if raw := c.Query("role"); raw != "" {
		r := domain.Role(raw)
		if !r.IsValid() {
			return middleware.BadRequest("Invalid role filter")
		}
		role = &r
	}

	users, err := h.userService.List(c.Context(), subject, role)
	if err != nil {
		return err
	}
	return respondList(c, users)
}

func (h *UserHandler) GetByID(c *fiber.Ctx) error {
	subject, err := middleware.GetSubject(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id", "User")
	if err != nil {
		return err
	}

	u, err := h.userService.GetByID(c.Context(), subject, id)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, u)
}

func (h *UserHandler) Create(c *fiber.Ctx) error {
	subject, err := middleware.GetSubject(c)
	if err != nil {
		return err
	}

	var input domain.CreateUserInput
	if err := c.BodyParser(&input); err != nil {
		return middleware.BadRequest("Invalid request body")
	}

	u, err := h.userService.Create(c.Context(), subject, input)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusCreated, u)
}

func (h *UserHandler) Update(c *fiber.Ctx) error {
	subject, err := middleware.GetSubject(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id", "User")
	if err != nil {
		return err
	}

	var input domain.UpdateUserInput
	if err := c.BodyParser(&input); err != nil {
		return middleware.BadRequest("Invalid request body")
	}

	u, err := h.userService.Update(c.Context(), subject, id, input)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, u)
}

func (h *UserHandler) Delete(c *fiber.Ctx) error {
	subject, err := middleware.GetSubject(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id", "User")
	if err != nil {
		return err
	}

	if err := h.userService.Delete(c.Context(), subject, id); err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, fiber.Map{})
}
