package handler

import (
	"github.com/gofiber/fiber/v2"
	logger "github.com/soulteary/logger-kit"
	secure "github.com/soulteary/secure-kit"

	"github.com/soulteary/libreauth/internal/store"
	"github.com/soulteary/libreauth/internal/vault"
)

// ItemEntry is one home-screen row: a folder or an account without a folder.
type ItemEntry struct {
	Kind      string `json:"kind"` // "folder" or "account"
	ID        string `json:"id"`
	Name      string `json:"name"`
	Issuer    string `json:"issuer,omitempty"`
	Type      string `json:"type,omitempty"`
	Color     string `json:"color,omitempty"`
	Icon      string `json:"icon,omitempty"`
	CreatedAt int64  `json:"createdAt"`
	Accounts  int    `json:"accounts,omitempty"`
}

// ItemsResponse is the response for GET /v1/items.
type ItemsResponse struct {
	Subject string      `json:"subject"`
	Items   []ItemEntry `json:"items"`
}

// Items handles GET /v1/items?subject=xxx: folders and folderless accounts,
// newest first. Folder rows carry how many accounts they hold.
func Items(st *store.Store, log *logger.Logger) fiber.Handler {
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
			log.Warn().Err(err).Str("subject", secure.MaskString(subject, 4)).Msg("items: load failed")
			return respondInternalError(c)
		}

		root := d.RootItems()
		resp := ItemsResponse{Subject: subject, Items: make([]ItemEntry, 0, len(root))}
		for _, it := range root {
			resp.Items = append(resp.Items, itemEntry(d, it))
		}
		return c.JSON(resp)
	}
}

func itemEntry(d *vault.AuthData, it vault.Item) ItemEntry {
	if f := it.Folder; f != nil {
		return ItemEntry{
			Kind:      "folder",
			ID:        f.ID,
			Name:      f.Name,
			Color:     f.Color,
			Icon:      f.Icon,
			CreatedAt: f.CreatedAt,
			Accounts:  len(d.FolderAccounts(f.ID)),
		}
	}
	a := it.Account
	return ItemEntry{
		Kind:      "account",
		ID:        a.ID,
		Name:      a.Name,
		Issuer:    a.Issuer,
		Type:      string(a.Type),
		Color:     a.Color,
		Icon:      a.Icon,
		CreatedAt: a.CreatedAt,
	}
}
