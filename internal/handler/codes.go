package handler

import (
	"github.com/gofiber/fiber/v2"
	logger "github.com/soulteary/logger-kit"
	secure "github.com/soulteary/secure-kit"

	"github.com/soulteary/libreauth/internal/config"
	"github.com/soulteary/libreauth/internal/metrics"
	"github.com/soulteary/libreauth/internal/store"
	"github.com/soulteary/libreauth/internal/totp"
	"github.com/soulteary/libreauth/internal/vault"
)

// CodeEntry is one account card: its metadata and the current code.
type CodeEntry struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Issuer      string `json:"issuer,omitempty"`
	Type        string `json:"type"`
	FolderID    string `json:"folder_id,omitempty"`
	Color       string `json:"color,omitempty"`
	Icon        string `json:"icon,omitempty"`
	Secret      string `json:"secret"`
	Code        string `json:"code"`
	Unsupported bool   `json:"unsupported,omitempty"`
}

// CodesResponse is the response for GET /v1/codes.
type CodesResponse struct {
	Subject   string      `json:"subject"`
	Time      int64       `json:"time"`
	Period    int         `json:"period"`
	Remaining int         `json:"remaining"`
	Codes     []CodeEntry `json:"codes"`
}

// Codes handles GET /v1/codes?subject=xxx[&folder_id=yyy]. Every code in one
// response is computed for the same instant. HOTP accounts are listed with an
// empty code and unsupported=true.
func Codes(st *store.Store, gen *totp.Generator, log *logger.Logger) fiber.Handler {
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
			log.Warn().Err(err).Str("subject", secure.MaskString(subject, 4)).Msg("codes: load failed")
			return respondInternalError(c)
		}

		accounts := d.Accounts
		if folderID := c.Query("folder_id"); folderID != "" {
			if _, ok := d.Folder(folderID); !ok {
				return respondVaultError(c, vault.ErrFolderNotFound)
			}
			accounts = d.FolderAccounts(folderID)
		}

		now := gen.Now()
		at := totp.NewGenerator(func() int64 { return now })
		resp := CodesResponse{
			Subject:   subject,
			Time:      now,
			Period:    totp.Period,
			Remaining: at.RemainingSeconds(),
			Codes:     make([]CodeEntry, 0, len(accounts)),
		}
		for _, a := range accounts {
			e := CodeEntry{
				ID:       a.ID,
				Name:     a.Name,
				Issuer:   a.Issuer,
				Type:     string(a.Type),
				FolderID: a.FolderID,
				Color:    a.Color,
				Icon:     a.Icon,
				Secret:   a.Secret,
			}
			if !config.ExposeSecretInCodes {
				e.Secret = secure.MaskString(a.Secret, 4)
			}
			if a.Type == vault.TypeHOTP {
				e.Unsupported = true
				metrics.RecordCode(string(a.Type), "unsupported")
			} else {
				e.Code = at.Generate(a.Secret)
				if totp.IsFallback(e.Code) {
					metrics.RecordCode(string(vault.TypeTOTP), "fallback")
				} else {
					metrics.RecordCode(string(vault.TypeTOTP), "ok")
				}
			}
			resp.Codes = append(resp.Codes, e)
		}
		return c.JSON(resp)
	}
}
