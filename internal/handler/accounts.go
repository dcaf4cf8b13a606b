package handler

import (
	"bytes"
	"image/png"
	"time"

	"github.com/gofiber/fiber/v2"
	logger "github.com/soulteary/logger-kit"
	secure "github.com/soulteary/secure-kit"

	"github.com/soulteary/libreauth/internal/config"
	"github.com/soulteary/libreauth/internal/metrics"
	"github.com/soulteary/libreauth/internal/otpauth"
	"github.com/soulteary/libreauth/internal/store"
	"github.com/soulteary/libreauth/internal/vault"
)

// AddAccountRequest is the request body for POST /v1/accounts. Either URI or
// Secret must be set; explicit fields override what the URI carries.
type AddAccountRequest struct {
	Subject  string `json:"subject"`
	URI      string `json:"uri"`
	Name     string `json:"name"`
	Issuer   string `json:"issuer"`
	Secret   string `json:"secret"`
	FolderID string `json:"folder_id"`
	Color    string `json:"color"`
	Icon     string `json:"icon"`
}

// AccountResponse wraps a stored account.
type AccountResponse struct {
	OK      bool          `json:"ok"`
	Account vault.Account `json:"account"`
}

// AddAccount handles POST /v1/accounts.
func AddAccount(st *store.Store, log *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req AddAccountRequest
		if err := c.BodyParser(&req); err != nil {
			return respondBadRequest(c, "invalid_request", err.Error())
		}
		if req.Subject == "" {
			return respondBadRequest(c, "invalid_request", "subject is required")
		}

		acct := vault.Account{
			Name:     req.Name,
			Issuer:   req.Issuer,
			Secret:   req.Secret,
			Type:     vault.TypeTOTP,
			FolderID: req.FolderID,
			Color:    req.Color,
			Icon:     req.Icon,
		}
		if req.URI != "" {
			d, err := otpauth.Parse(req.URI)
			if err != nil {
				metrics.RecordScan("failure")
				return respondBadRequest(c, "invalid_format", err.Error())
			}
			metrics.RecordScan("success")
			acct.Type = vault.AccountType(d.Type)
			if acct.Secret == "" {
				acct.Secret = d.Secret
			}
			if acct.Issuer == "" {
				acct.Issuer = d.Issuer
			}
			if acct.Name == "" {
				acct.Name = d.AccountName
			}
		}

		cipher, err := vaultCipher()
		if err != nil {
			log.Warn().Msg("LIBREAUTH_ENCRYPTION_KEY not set or invalid (need 32 bytes)")
			return respondConfigError(c, err.Error())
		}
		if rateLimited(c, st, req.Subject) {
			return respondRateLimited(c)
		}

		id, err := NewAccountID()
		if err != nil {
			return respondInternalError(c)
		}
		acct.ID = id
		acct.CreatedAt = time.Now().UnixMilli()

		var added vault.Account
		_, err = st.Update(c.Context(), cipher, req.Subject, func(d *vault.AuthData) error {
			var err error
			added, err = d.AddAccount(acct)
			return err
		})
		if err != nil {
			metrics.RecordVaultOp("add_account", "failure")
			log.Warn().Err(err).Str("subject", secure.MaskString(req.Subject, 4)).Msg("add account failed")
			return respondVaultError(c, err)
		}
		metrics.RecordVaultOp("add_account", "success")
		return c.JSON(AccountResponse{OK: true, Account: added})
	}
}

// AccountQR handles GET /v1/accounts/:id/qr?subject=xxx: the account's
// provisioning URI as a PNG, for moving it to another authenticator.
func AccountQR(st *store.Store, log *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		subject := c.Query("subject")
		id := c.Params("id")
		if subject == "" || id == "" {
			return respondBadRequest(c, "invalid_request", "subject and id are required")
		}
		cipher, err := vaultCipher()
		if err != nil {
			return respondConfigError(c, err.Error())
		}
		d, err := st.Load(c.Context(), cipher, subject)
		if err != nil {
			log.Warn().Err(err).Str("subject", secure.MaskString(subject, 4)).Msg("qr: load failed")
			return respondInternalError(c)
		}
		acct, ok := d.Account(id)
		if !ok {
			return respondVaultError(c, vault.ErrNotFound)
		}
		if acct.Type == vault.TypeHOTP {
			return respondBadRequest(c, "unsupported", "hotp accounts cannot be exported")
		}

		img, err := otpauth.QRCode(otpauth.Descriptor{
			Type:        string(acct.Type),
			Secret:      acct.Secret,
			Issuer:      acct.Issuer,
			AccountName: acct.Name,
		}, config.QRSize)
		if err != nil {
			log.Warn().Err(err).Msg("qr: render failed")
			return respondInternalError(c)
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return respondInternalError(c)
		}
		c.Set(fiber.HeaderContentType, "image/png")
		c.Set(fiber.HeaderCacheControl, "no-store")
		return c.Send(buf.Bytes())
	}
}
