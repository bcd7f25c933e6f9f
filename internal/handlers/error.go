package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/example/atlasmarket/internal/apperr"
)

// ErrorHandler maps application errors onto the `{status, message}` envelope.
// Internal failures are logged with their cause and answered with a generic
// message.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		if appErr.Kind == apperr.KindInternal {
			log.Printf("internal error on %s %s: %v", c.Method(), c.Path(), err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"status":  "error",
				"message": "something went wrong",
			})
		}
		return c.Status(apperr.HTTPStatus(appErr.Kind)).JSON(fiber.Map{
			"status":  "error",
			"message": appErr.Message,
		})
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(fiber.Map{
			"status":  "error",
			"message": fiberErr.Message,
		})
	}

	log.Printf("unhandled error on %s %s: %v", c.Method(), c.Path(), err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"status":  "error",
		"message": "something went wrong",
	})
}
