package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/example/maison/internal/middleware"
	"github.com/example/maison/internal/storefront"
	"github.com/example/maison/internal/store"
)

// ErrorHandler renders every error returned by a handler as the JSON error
// envelope. Client errors keep their message; anything else is logged and
// reported as a generic 500.
func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "internal server error"

		var fe *fiber.Error
		switch {
		case errors.As(err, &fe):
			code, message = fe.Code, fe.Message
		case errors.Is(err, store.ErrNotFound):
			code, message = fiber.StatusNotFound, "not found"
		case errors.Is(err, store.ErrAlreadyExists):
			code, message = fiber.StatusConflict, "already exists"
		}

		if code >= fiber.StatusInternalServerError {
			log.Error("request failed",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.Error(err))
		}

		return c.Status(code).JSON(fiber.Map{"success": false, "error": message})
	}
}

// respond writes the success envelope. Pending notifications of ws, if any,
// travel with the response.
func respond(c *fiber.Ctx, status int, data interface{}, ws *storefront.Workspace) error {
	body := fiber.Map{"success": true, "data": data}
	if ws != nil {
		body["notifications"] = ws.Notices.Drain()
	}
	return c.Status(status).JSON(body)
}

// workspaceFor returns the caller's workspace, creating it on first use.
func workspaceFor(c *fiber.Ctx, registry *storefront.Registry) (*storefront.Workspace, error) {
	s, ok := middleware.GetCurrentSession(c)
	if !ok {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}
	return registry.Acquire(c.UserContext(), s), nil
}
