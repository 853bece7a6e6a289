package handlers

import (
	"context"
	"errors"
	"net/mail"

	"github.com/gofiber/fiber/v2"

	"github.com/example/maison/internal/store"
)

// NewsletterStore keeps newsletter subscriptions.
type NewsletterStore interface {
	Subscribe(ctx context.Context, email, source string) error
	Unsubscribe(ctx context.Context, email string) error
}

// NewsletterHandler manages newsletter sign-ups.
type NewsletterHandler struct {
	subscribers NewsletterStore
}

// NewNewsletterHandler constructs NewsletterHandler.
func NewNewsletterHandler(subscribers NewsletterStore) *NewsletterHandler {
	return &NewsletterHandler{subscribers: subscribers}
}

type newsletterRequest struct {
	Email  string `json:"email"`
	Source string `json:"source"`
}

func (r newsletterRequest) address() (string, error) {
	email := store.NormalizeEmail(r.Email)
	if email == "" {
		return "", fiber.NewError(fiber.StatusBadRequest, "email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "", fiber.NewError(fiber.StatusBadRequest, "invalid email")
	}
	return email, nil
}

// Subscribe adds an address to the list. Subscribing twice is not an error.
func (h *NewsletterHandler) Subscribe(c *fiber.Ctx) error {
	var req newsletterRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	email, err := req.address()
	if err != nil {
		return err
	}
	if req.Source == "" {
		req.Source = "footer"
	}

	err = h.subscribers.Subscribe(c.UserContext(), email, req.Source)
	switch {
	case errors.Is(err, store.ErrAlreadyExists):
		return c.JSON(fiber.Map{"success": true, "data": fiber.Map{"email": email, "already_subscribed": true}})
	case err != nil:
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": fiber.Map{"email": email, "already_subscribed": false}})
}

// Unsubscribe removes an address from the list.
func (h *NewsletterHandler) Unsubscribe(c *fiber.Ctx) error {
	var req newsletterRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	email, err := req.address()
	if err != nil {
		return err
	}

	if err := h.subscribers.Unsubscribe(c.UserContext(), email); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "email is not subscribed")
		}
		return err
	}
	return c.JSON(fiber.Map{"success": true})
}
