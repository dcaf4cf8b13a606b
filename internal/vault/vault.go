// Package vault models the authenticator's accounts and folders and the
// edits the app applies to them. Everything here works on an in-memory
// AuthData; persistence lives in the store package.
package vault

import (
	"errors"
	"sort"
	"strings"
	"unicode"
)

// AccountType is the OTP flavour of an account.
type AccountType string

const (
	TypeTOTP AccountType = "totp"
	TypeHOTP AccountType = "hotp"
)

// MinSecretLength is the shortest normalized secret accepted for a new account.
const MinSecretLength = 8

var (
	ErrMissingField   = errors.New("missing required field")
	ErrSecretTooShort = errors.New("secret is too short")
	ErrFolderNotFound = errors.New("folder not found")
	ErrNotFound       = errors.New("item not found")
)

// Account is a stored OTP seed with its presentation metadata.
type Account struct {
	ID        string      `json:"id"`
	Secret    string      `json:"secret"`
	Name      string      `json:"name"`
	Issuer    string      `json:"issuer,omitempty"`
	Type      AccountType `json:"type"`
	Color     string      `json:"color,omitempty"`
	Icon      string      `json:"icon,omitempty"`
	FolderID  string      `json:"folderId,omitempty"`
	CreatedAt int64       `json:"createdAt"`
	Position  int         `json:"position"`
}

// Folder groups accounts.
type Folder struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Color     string `json:"color,omitempty"`
	Icon      string `json:"icon,omitempty"`
	CreatedAt int64  `json:"createdAt"`
	Position  int    `json:"position"`
}

// AuthData is the whole vault document.
type AuthData struct {
	Accounts []Account `json:"accounts"`
	Folders  []Folder  `json:"folders"`
}

// Empty returns a vault with no accounts and no folders.
func Empty() *AuthData {
	return &AuthData{Accounts: []Account{}, Folders: []Folder{}}
}

// IsEmpty reports whether the vault holds nothing.
func (d *AuthData) IsEmpty() bool {
	return len(d.Accounts) == 0 && len(d.Folders) == 0
}

// NormalizeSecret removes all whitespace and uppercases s.
func NormalizeSecret(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToUpper(r)
	}, s)
}

// Folder returns the folder with the given ID.
func (d *AuthData) Folder(id string) (*Folder, bool) {
	for i := range d.Folders {
		if d.Folders[i].ID == id {
			return &d.Folders[i], true
		}
	}
	return nil, false
}

// Account returns the account with the given ID.
func (d *AuthData) Account(id string) (*Account, bool) {
	for i := range d.Accounts {
		if d.Accounts[i].ID == id {
			return &d.Accounts[i], true
		}
	}
	return nil, false
}

// nextPosition returns one past the highest sibling position. Inside a folder
// the siblings are its accounts; at the root they are the folders and the
// accounts without a folder.
func (d *AuthData) nextPosition(folderID string) int {
	max := -1
	for _, a := range d.Accounts {
		if a.FolderID == folderID && a.Position > max {
			max = a.Position
		}
	}
	if folderID == "" {
		for _, f := range d.Folders {
			if f.Position > max {
				max = f.Position
			}
		}
	}
	return max + 1
}

// AddAccount validates a and appends it. Name and issuer are trimmed, the
// secret is normalized, an empty type becomes totp and the position is set
// after the last sibling. The caller provides ID and CreatedAt.
func (d *AuthData) AddAccount(a Account) (Account, error) {
	a.Name = strings.TrimSpace(a.Name)
	a.Issuer = strings.TrimSpace(a.Issuer)
	a.Secret = NormalizeSecret(a.Secret)
	if a.ID == "" || a.Name == "" || a.Secret == "" {
		return Account{}, ErrMissingField
	}
	if len(a.Secret) < MinSecretLength {
		return Account{}, ErrSecretTooShort
	}
	if a.FolderID != "" {
		if _, ok := d.Folder(a.FolderID); !ok {
			return Account{}, ErrFolderNotFound
		}
	}
	if a.Type == "" {
		a.Type = TypeTOTP
	}
	a.Position = d.nextPosition(a.FolderID)
	d.Accounts = append(d.Accounts, a)
	return a, nil
}

// AddFolder validates f and appends it at the end of the root level.
func (d *AuthData) AddFolder(f Folder) (Folder, error) {
	f.Name = strings.TrimSpace(f.Name)
	if f.ID == "" || f.Name == "" {
		return Folder{}, ErrMissingField
	}
	f.Position = d.nextPosition("")
	d.Folders = append(d.Folders, f)
	return f, nil
}

// Delete removes the accounts and folders whose IDs are listed. Accounts inside
// a deleted folder go with it. It returns how many of each were removed.
func (d *AuthData) Delete(ids []string) (accounts, folders int) {
	selected := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		selected[id] = struct{}{}
	}

	deletedFolders := make(map[string]struct{})
	keptFolders := d.Folders[:0]
	for _, f := range d.Folders {
		if _, ok := selected[f.ID]; ok {
			deletedFolders[f.ID] = struct{}{}
			continue
		}
		keptFolders = append(keptFolders, f)
	}
	folders = len(d.Folders) - len(keptFolders)
	d.Folders = keptFolders

	keptAccounts := d.Accounts[:0]
	for _, a := range d.Accounts {
		if _, ok := selected[a.ID]; ok {
			continue
		}
		if a.FolderID != "" {
			if _, ok := deletedFolders[a.FolderID]; ok {
				continue
			}
		}
		keptAccounts = append(keptAccounts, a)
	}
	accounts = len(d.Accounts) - len(keptAccounts)
	d.Accounts = keptAccounts
	return accounts, folders
}

// Merge folds other into d. An item whose ID already exists is replaced and
// moved to the end, matching the import behaviour of the app.
func (d *AuthData) Merge(other *AuthData) {
	for _, a := range other.Accounts {
		d.Accounts = removeAccount(d.Accounts, a.ID)
		d.Accounts = append(d.Accounts, a)
	}
	for _, f := range other.Folders {
		d.Folders = removeFolder(d.Folders, f.ID)
		d.Folders = append(d.Folders, f)
	}
}

func removeAccount(list []Account, id string) []Account {
	out := list[:0]
	for _, a := range list {
		if a.ID != id {
			out = append(out, a)
		}
	}
	return out
}

func removeFolder(list []Folder, id string) []Folder {
	out := list[:0]
	for _, f := range list {
		if f.ID != id {
			out = append(out, f)
		}
	}
	return out
}

// FolderAccounts returns the accounts filed under folderID, or the root
// accounts when folderID is empty, in stored order.
func (d *AuthData) FolderAccounts(folderID string) []Account {
	out := make([]Account, 0)
	for _, a := range d.Accounts {
		if a.FolderID == folderID {
			out = append(out, a)
		}
	}
	return out
}

// Item is a root-level entry: either a folder or an account.
type Item struct {
	Folder  *Folder
	Account *Account
}

// CreatedAt returns the creation time of the underlying entry.
func (it Item) CreatedAt() int64 {
	if it.Folder != nil {
		return it.Folder.CreatedAt
	}
	return it.Account.CreatedAt
}

// RootItems returns folders and folderless accounts, newest first.
func (d *AuthData) RootItems() []Item {
	items := make([]Item, 0, len(d.Folders)+len(d.Accounts))
	for i := range d.Folders {
		items = append(items, Item{Folder: &d.Folders[i]})
	}
	for i := range d.Accounts {
		if d.Accounts[i].FolderID == "" {
			items = append(items, Item{Account: &d.Accounts[i]})
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt() > items[j].CreatedAt()
	})
	return items
}
