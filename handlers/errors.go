// handlers/errors.go
package handlers

import (
	"errors"
	"log"

	"atlas-score-engine/services"
	"atlas-score-engine/store"

	"github.com/gofiber/fiber/v2"
)

// fail maps engine error categories to HTTP responses. Anything that is not a
// client fault is logged and reported as a generic 500.
func fail(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input"})
	case errors.Is(err, store.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Not found"})
	case errors.Is(err, services.ErrPermissionDenied):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Access denied"})
	default:
		log.Printf("[HTTP] %s %s failed: %v", c.Method(), c.Path(), err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "An error occurred"})
	}
}
