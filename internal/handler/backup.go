package handler

import (
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"
	logger "github.com/soulteary/logger-kit"
	secure "github.com/soulteary/secure-kit"

	"github.com/soulteary/libreauth/internal/metrics"
	"github.com/soulteary/libreauth/internal/store"
	"github.com/soulteary/libreauth/internal/vault"
)

// ImportRequest is the request body for POST /v1/import. Backup is either an
// exported document or a bare {accounts, folders} object.
type ImportRequest struct {
	Subject string          `json:"subject"`
	Backup  json.RawMessage `json:"backup"`
}

// ImportResponse reports what was merged.
type ImportResponse struct {
	OK       bool `json:"ok"`
	Accounts int  `json:"accounts"`
	Folders  int  `json:"folders"`
}

// Export handles GET /v1/export?subject=xxx.
func Export(st *store.Store, log *logger.Logger) fiber.Handler {
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
			log.Warn().Err(err).Str("subject", secure.MaskString(subject, 4)).Msg("export: load failed")
			return respondInternalError(c)
		}
		if d.IsEmpty() {
			return respondNotFound(c, "no accounts or folders to export")
		}
		b, err := vault.NewBackup(d, time.Now())
		if err != nil {
			return respondInternalError(c)
		}
		metrics.RecordVaultOp("export", "success")
		c.Set(fiber.HeaderContentDisposition, `attachment; filename="libreauth_backup_`+time.Now().UTC().Format("2006-01-02")+`.json"`)
		return c.JSON(b)
	}
}

// Import handles POST /v1/import: merge a backup into the vault, imported
// items replacing existing ones with the same ID.
func Import(st *store.Store, log *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req ImportRequest
		if err := c.BodyParser(&req); err != nil {
			return respondBadRequest(c, "invalid_request", err.Error())
		}
		if req.Subject == "" || len(req.Backup) == 0 {
			return respondBadRequest(c, "invalid_request", "subject and backup are required")
		}
		imported, err := vault.ParseBackup(req.Backup)
		if err != nil {
			metrics.RecordVaultOp("import", "failure")
			return respondVaultError(c, err)
		}

		cipher, err := vaultCipher()
		if err != nil {
			return respondConfigError(c, err.Error())
		}
		if rateLimited(c, st, req.Subject) {
			return respondRateLimited(c)
		}

		_, err = st.Update(c.Context(), cipher, req.Subject, func(d *vault.AuthData) error {
			d.Merge(imported)
			return nil
		})
		if err != nil {
			metrics.RecordVaultOp("import", "failure")
			log.Warn().Err(err).Str("subject", secure.MaskString(req.Subject, 4)).Msg("import failed")
			return respondVaultError(c, err)
		}
		metrics.RecordVaultOp("import", "success")
		return c.JSON(ImportResponse{OK: true, Accounts: len(imported.Accounts), Folders: len(imported.Folders)})
	}
}
