package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"taskhub/internal/middleware"
)

type DataResponse struct {
	Success bool `json:"success"`
	Count   *int `json:"count,omitempty"`
	Data    any  `json:"data"`
}

func respond(c *fiber.Ctx, status int, data any) error {
	return c.Status(status).JSON(DataResponse{Success: true, Data: data})
}

func respondList[T any](c *fiber.Ctx, items []T) error {
	if items == nil {
		items = []T{}
	}
	count := len(items)
	return c.Status(fiber.StatusOK).JSON(DataResponse{Success: true, Count: &count, Data: items})
}

// paramID parses a path identifier. A malformed id cannot name an existing resource, so it is a 404.
func paramID(c *fiber.Ctx, name, resource string) (uuid.UUID, error) {
	raw := c.Params(name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, middleware.NotFound(resource + " not found with id of " + raw)
	}
	return id, nil
}
