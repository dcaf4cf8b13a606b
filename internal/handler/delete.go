package handler

import (
	"github.com/gofiber/fiber/v2"
	logger "github.com/soulteary/logger-kit"
	secure "github.com/soulteary/secure-kit"

	"github.com/soulteary/libreauth/internal/metrics"
	"github.com/soulteary/libreauth/internal/store"
	"github.com/soulteary/libreauth/internal/vault"
)

// DeleteRequest is the request body for POST /v1/delete.
type DeleteRequest struct {
	Subject string   `json:"subject"`
	IDs     []string `json:"ids"`
}

// DeleteResponse reports how many items were removed.
type DeleteResponse struct {
	OK       bool `json:"ok"`
	Accounts int  `json:"accounts"`
	Folders  int  `json:"folders"`
}

// Delete handles POST /v1/delete: remove the selected accounts and folders.
// Accounts inside a removed folder are removed too.
func Delete(st *store.Store, log *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req DeleteRequest
		if err := c.BodyParser(&req); err != nil {
			return respondBadRequest(c, "invalid_request", err.Error())
		}
		if req.Subject == "" || len(req.IDs) == 0 {
			return respondBadRequest(c, "invalid_request", "subject and ids are required")
		}
		cipher, err := vaultCipher()
		if err != nil {
			return respondConfigError(c, err.Error())
		}
		if rateLimited(c, st, req.Subject) {
			return respondRateLimited(c)
		}

		var resp DeleteResponse
		_, err = st.Update(c.Context(), cipher, req.Subject, func(d *vault.AuthData) error {
			resp.Accounts, resp.Folders = d.Delete(req.IDs)
			return nil
		})
		if err != nil {
			metrics.RecordVaultOp("delete", "failure")
			log.Warn().Err(err).Str("subject", secure.MaskString(req.Subject, 4)).Msg("delete failed")
			return respondVaultError(c, err)
		}
		metrics.RecordVaultOp("delete", "success")
		resp.OK = true
		return c.JSON(resp)
	}
}
