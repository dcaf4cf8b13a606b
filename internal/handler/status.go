package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/soulteary/libreauth/internal/store"
)

// StatusResponse is the response for GET /v1/status.
type StatusResponse struct {
	Subject  string `json:"subject"`
	Accounts int    `json:"accounts"`
	Folders  int    `json:"folders"`
}

// Status handles GET /v1/status?subject=xxx.
func Status(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		subject := c.Query("subject")
		if subject == "" {
			return respondBadRequest(c, "invalid_request", "subject is required")
		}
		cipher, err := vaultCipher()
		if err != nil {
			return respondConfigError(c, err.Error())
		}
		d, err := st.Load(c.Context(), cipher, subject)
		if err != nil {
			return respondInternalError(c)
		}
		return c.JSON(StatusResponse{
			Subject:  subject,
			Accounts: len(d.Accounts),
			Folders:  len(d.Folders),
		})
	}
}
