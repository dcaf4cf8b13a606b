package vault

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	secure "github.com/soulteary/secure-kit"
)

const (
	BackupAppName = "LibreAuth"
	BackupVersion = "1.0"
)

var (
	ErrInvalidBackup    = errors.New("backup does not contain vault data")
	ErrChecksumMismatch = errors.New("backup checksum mismatch")
)

// Metadata describes an exported backup.
type Metadata struct {
	AppName   string `json:"appName"`
	Version   string `json:"version"`
	CreatedAt string `json:"createdAt"`
	Checksum  string `json:"checksum,omitempty"`
}

// Backup is the export document: metadata plus the full vault.
type Backup struct {
	Metadata Metadata  `json:"metadata"`
	Data     *AuthData `json:"data"`
}

// Checksum returns the SHA-256 of the canonical JSON encoding of d.
func Checksum(d *AuthData) (string, error) {
	c := AuthData{Accounts: d.Accounts, Folders: d.Folders}
	if c.Accounts == nil {
		c.Accounts = []Account{}
	}
	if c.Folders == nil {
		c.Folders = []Folder{}
	}
	raw, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	return secure.GetSHA256Hash(string(raw)), nil
}

// NewBackup wraps d for export.
func NewBackup(d *AuthData, now time.Time) (*Backup, error) {
	sum, err := Checksum(d)
	if err != nil {
		return nil, fmt.Errorf("checksum: %w", err)
	}
	return &Backup{
		Metadata: Metadata{
			AppName:   BackupAppName,
			Version:   BackupVersion,
			CreatedAt: now.UTC().Format(time.RFC3339),
			Checksum:  sum,
		},
		Data: d,
	}, nil
}

type rawDocument struct {
	Metadata *Metadata      `json:"metadata"`
	Data     json.RawMessage `json:"data"`
	Accounts *[]Account     `json:"accounts"`
	Folders  *[]Folder      `json:"folders"`
}

// ParseBackup reads either a wrapped backup ({metadata, data}) or a bare vault
// ({accounts, folders}). A document with neither list is rejected. When the
// metadata carries a checksum it must match the data.
func ParseBackup(raw []byte) (*AuthData, error) {
	var doc rawDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBackup, err)
	}

	var meta *Metadata
	if len(doc.Data) > 0 && string(doc.Data) != "null" {
		meta = doc.Metadata
		var inner rawDocument
		if err := json.Unmarshal(doc.Data, &inner); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidBackup, err)
		}
		doc = inner
	}
	if doc.Accounts == nil && doc.Folders == nil {
		return nil, ErrInvalidBackup
	}

	out := Empty()
	if doc.Accounts != nil {
		out.Accounts = *doc.Accounts
	}
	if doc.Folders != nil {
		out.Folders = *doc.Folders
	}

	if meta != nil && meta.Checksum != "" {
		sum, err := Checksum(out)
		if err != nil {
			return nil, err
		}
		if sum != meta.Checksum {
			return nil, ErrChecksumMismatch
		}
	}
	return out, nil
}
