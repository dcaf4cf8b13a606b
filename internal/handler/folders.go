package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
	logger "github.com/soulteary/logger-kit"
	secure "github.com/soulteary/secure-kit"

	"github.com/soulteary/libreauth/internal/metrics"
	"github.com/soulteary/libreauth/internal/store"
	"github.com/soulteary/libreauth/internal/vault"
)

// AddFolderRequest is the request body for POST /v1/folders.
type AddFolderRequest struct {
	Subject string `json:"subject"`
	Name    string `json:"name"`
	Color   string `json:"color"`
	Icon    string `json:"icon"`
}

// FolderResponse wraps a stored folder.
type FolderResponse struct {
	OK     bool         `json:"ok"`
	Folder vault.Folder `json:"folder"`
}

// AddFolder handles POST /v1/folders.
func AddFolder(st *store.Store, log *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req AddFolderRequest
		if err := c.BodyParser(&req); err != nil {
			return respondBadRequest(c, "invalid_request", err.Error())
		}
		if req.Subject == "" {
			return respondBadRequest(c, "invalid_request", "subject is required")
		}
		cipher, err := vaultCipher()
		if err != nil {
			return respondConfigError(c, err.Error())
		}
		if rateLimited(c, st, req.Subject) {
			return respondRateLimited(c)
		}

		id, err := NewFolderID()
		if err != nil {
			return respondInternalError(c)
		}
		folder := vault.Folder{
			ID:        id,
			Name:      req.Name,
			Color:     req.Color,
			Icon:      req.Icon,
			CreatedAt: time.Now().UnixMilli(),
		}

		var added vault.Folder
		_, err = st.Update(c.Context(), cipher, req.Subject, func(d *vault.AuthData) error {
			var err error
			added, err = d.AddFolder(folder)
			return err
		})
		if err != nil {
			metrics.RecordVaultOp("add_folder", "failure")
			log.Warn().Err(err).Str("subject", secure.MaskString(req.Subject, 4)).Msg("add folder failed")
			return respondVaultError(c, err)
		}
		metrics.RecordVaultOp("add_folder", "success")
		return c.JSON(FolderResponse{OK: true, Folder: added})
	}
}
