package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v3"
)

// ============================================================
// Error responses
// ============================================================

// validationError renders the single-field 422 shape clients parse:
// {"message": "Validation failed", "errors": {"<field>": ["<msg>"]}}.
func validationError(c fiber.Ctx, field, msg string) error {
	return c.Status(http.StatusUnprocessableEntity).JSON(fiber.Map{
		"message": "Validation failed",
		"errors":  fiber.Map{field: []string{msg}},
	})
}

func notFound(c fiber.Ctx, what string) error {
	return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": what + " not found"})
}

func badRequest(c fiber.Ctx, msg string) error {
	return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": msg})
}

func serverError(c fiber.Ctx, err error) error {
	return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
}
