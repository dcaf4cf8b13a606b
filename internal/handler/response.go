package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/soulteary/libreauth/internal/store"
	"github.com/soulteary/libreauth/internal/vault"
)

// ErrorResponse is the common error body for API responses (ok, reason, optional message).
type ErrorResponse struct {
	OK      bool   `json:"ok"`
	Reason  string `json:"reason,omitempty"`
	Message string `json:"message,omitempty"`
}

// respondBadRequest sends 400 with reason and message.
func respondBadRequest(c *fiber.Ctx, reason, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{OK: false, Reason: reason, Message: message})
}

// respondNotFound sends 404 with not_found reason.
func respondNotFound(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{OK: false, Reason: "not_found", Message: message})
}

// respondRateLimited sends 429 with rate_limited reason.
func respondRateLimited(c *fiber.Ctx) error {
	return c.Status(fiber.StatusTooManyRequests).JSON(ErrorResponse{OK: false, Reason: "rate_limited"})
}

// respondInternalError sends 500 with internal_error reason.
func respondInternalError(c *fiber.Ctx) error {
	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{OK: false, Reason: "internal_error"})
}

// respondConfigError sends 500 with config_error reason and optional message.
func respondConfigError(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{OK: false, Reason: "config_error", Message: message})
}

// respondVaultError maps vault validation and store errors; anything else is a 500.
func respondVaultError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, vault.ErrMissingField):
		return respondBadRequest(c, "invalid_request", err.Error())
	case errors.Is(err, vault.ErrSecretTooShort):
		return respondBadRequest(c, "secret_too_short", err.Error())
	case errors.Is(err, vault.ErrFolderNotFound), errors.Is(err, vault.ErrNotFound):
		return respondNotFound(c, err.Error())
	case errors.Is(err, vault.ErrInvalidBackup):
		return respondBadRequest(c, "invalid_backup", err.Error())
	case errors.Is(err, vault.ErrChecksumMismatch):
		return respondBadRequest(c, "checksum_mismatch", err.Error())
	case errors.Is(err, store.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(ErrorResponse{OK: false, Reason: "conflict", Message: err.Error()})
	}
	return respondInternalError(c)
}
