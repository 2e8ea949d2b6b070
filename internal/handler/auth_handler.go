package handler

import (
	"github.com/gofiber/fiber/v2"

	"taskhub/internal/domain"
	"taskhub/internal/middleware"
	"taskhub/internal/service/auth"
)

type AuthHandler struct {
	authService auth.Service
}

func NewAuthHandler(authService auth.Service) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type authResponse struct {
	Success bool               `json:"success"`
	Token   string             `json:"token"`
	User    domain.UserProfile `json:"user"`
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var input domain.CreateUserInput
	if err := c.BodyParser(&input); err != nil {
		return middleware.BadRequest("Invalid request body")
	}

	result, err := h.authService.Register(c.Context(), input)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(authResponse{Success: true, Token: result.Token, User: result.User})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var input domain.LoginInput
	if err := c.BodyParser(&input); err != nil {
		return middleware.BadRequest("Invalid request body")
	}

	result, err := h.authService.Login(c.Context(), input)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(authResponse{Success: true, Token: result.Token, User: result.User})
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	user := middleware.GetCurrentUser(c)
	if user == nil {
		return middleware.Unauthorized("Not authorized to access this route")
	}
	return respond(c, fiber.StatusOK, user)
}
