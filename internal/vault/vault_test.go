package vault

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestNormalizeSecret(t *testing.T) {
	if got := NormalizeSecret(" jbsw y3dp\tehpk\n3pxp "); got != "JBSWY3DPEHPK3PXP" {
		t.Errorf("NormalizeSecret = %q", got)
	}
}

func TestAddAccount_Validation(t *testing.T) {
	d := Empty()
	if _, err := d.AddAccount(Account{ID: "a1", Name: "  ", Secret: "JBSWY3DPEHPK3PXP"}); err != ErrMissingField {
		t.Errorf("blank name err = %v, want ErrMissingField", err)
	}
	if _, err := d.AddAccount(Account{ID: "a1", Name: "x", Secret: " "}); err != ErrMissingField {
		t.Errorf("blank secret err = %v, want ErrMissingField", err)
	}
	if _, err := d.AddAccount(Account{ID: "a1", Name: "x", Secret: "abc def"}); err != ErrSecretTooShort {
		t.Errorf("short secret err = %v, want ErrSecretTooShort", err)
	}
	if _, err := d.AddAccount(Account{ID: "a1", Name: "x", Secret: "JBSWY3DPEHPK3PXP", FolderID: "nope"}); err != ErrFolderNotFound {
		t.Errorf("unknown folder err = %v, want ErrFolderNotFound", err)
	}
	if len(d.Accounts) != 0 {
		t.Errorf("rejected accounts were stored: %+v", d.Accounts)
	}
}

func TestAddAccount_Defaults(t *testing.T) {
	d := Empty()
	a, err := d.AddAccount(Account{ID: "a1", Name: " GitHub ", Issuer: " gh ", Secret: "jbsw y3dp ehpk 3pxp", CreatedAt: 10})
	if err != nil {
		t.Fatalf("AddAccount: %v", err)
	}
	if a.Name != "GitHub" || a.Issuer != "gh" || a.Secret != "JBSWY3DPEHPK3PXP" || a.Type != TypeTOTP {
		t.Errorf("AddAccount = %+v", a)
	}
	if a.Position != 0 {
		t.Errorf("Position = %d, want 0", a.Position)
	}
}

func TestPositions(t *testing.T) {
	d := Empty()
	f, _ := d.AddFolder(Folder{ID: "f1", Name: "Work"})
	if f.Position != 0 {
		t.Errorf("folder Position = %d, want 0", f.Position)
	}
	root, _ := d.AddAccount(Account{ID: "a1", Name: "root", Secret: "JBSWY3DPEHPK3PXP"})
	if root.Position != 1 {
		t.Errorf("root account Position = %d, want 1 (after folder)", root.Position)
	}
	in1, _ := d.AddAccount(Account{ID: "a2", Name: "in1", Secret: "JBSWY3DPEHPK3PXP", FolderID: "f1"})
	in2, _ := d.AddAccount(Account{ID: "a3", Name: "in2", Secret: "JBSWY3DPEHPK3PXP", FolderID: "f1"})
	if in1.Position != 0 || in2.Position != 1 {
		t.Errorf("folder positions = %d,%d, want 0,1", in1.Position, in2.Position)
	}
	f2, _ := d.AddFolder(Folder{ID: "f2", Name: "Home"})
	if f2.Position != 2 {
		t.Errorf("second folder Position = %d, want 2", f2.Position)
	}
	if _, err := d.AddFolder(Folder{ID: "f3", Name: " "}); err != ErrMissingField {
		t.Errorf("blank folder err = %v, want ErrMissingField", err)
	}
}

func TestDelete_Cascade(t *testing.T) {
	d := Empty()
	_, _ = d.AddFolder(Folder{ID: "f1", Name: "Work"})
	_, _ = d.AddFolder(Folder{ID: "f2", Name: "Home"})
	_, _ = d.AddAccount(Account{ID: "a1", Name: "in f1", Secret: "JBSWY3DPEHPK3PXP", FolderID: "f1"})
	_, _ = d.AddAccount(Account{ID: "a2", Name: "in f2", Secret: "JBSWY3DPEHPK3PXP", FolderID: "f2"})
	_, _ = d.AddAccount(Account{ID: "a3", Name: "root", Secret: "JBSWY3DPEHPK3PXP"})
	_, _ = d.AddAccount(Account{ID: "a4", Name: "root2", Secret: "JBSWY3DPEHPK3PXP"})

	accounts, folders := d.Delete([]string{"f1", "a3", "missing"})
	if accounts != 2 || folders != 1 {
		t.Errorf("Delete = (%d, %d), want (2, 1)", accounts, folders)
	}
	if _, ok := d.Account("a1"); ok {
		t.Error("account in deleted folder survived")
	}
	if _, ok := d.Account("a2"); !ok {
		t.Error("account in kept folder was deleted")
	}
	if _, ok := d.Account("a4"); !ok {
		t.Error("unselected root account was deleted")
	}
	if _, ok := d.Folder("f2"); !ok {
		t.Error("unselected folder was deleted")
	}
}

func TestMerge_Overwrites(t *testing.T) {
	d := Empty()
	d.Accounts = []Account{{ID: "a1", Name: "old"}, {ID: "a2", Name: "keep"}}
	d.Folders = []Folder{{ID: "f1", Name: "old"}}

	d.Merge(&AuthData{
		Accounts: []Account{{ID: "a1", Name: "new"}, {ID: "a3", Name: "added"}},
		Folders:  []Folder{{ID: "f1", Name: "new"}, {ID: "f2", Name: "added"}},
	})
	if len(d.Accounts) != 3 || len(d.Folders) != 2 {
		t.Fatalf("Merge sizes = %d accounts, %d folders", len(d.Accounts), len(d.Folders))
	}
	if a, _ := d.Account("a1"); a.Name != "new" {
		t.Errorf("a1 = %q, want new", a.Name)
	}
	if d.Accounts[0].ID != "a2" {
		t.Errorf("first account = %q, want a2 (replaced items move to the end)", d.Accounts[0].ID)
	}
	if f, _ := d.Folder("f1"); f.Name != "new" {
		t.Errorf("f1 = %q, want new", f.Name)
	}
}

func TestRootItems_NewestFirst(t *testing.T) {
	d := Empty()
	d.Folders = []Folder{{ID: "f1", CreatedAt: 2}}
	d.Accounts = []Account{
		{ID: "a1", CreatedAt: 1},
		{ID: "a2", CreatedAt: 3},
		{ID: "a3", CreatedAt: 4, FolderID: "f1"},
	}
	items := d.RootItems()
	if len(items) != 3 {
		t.Fatalf("RootItems len = %d, want 3", len(items))
	}
	if items[0].Account == nil || items[0].Account.ID != "a2" {
		t.Errorf("items[0] = %+v, want a2", items[0])
	}
	if items[1].Folder == nil || items[1].Folder.ID != "f1" {
		t.Errorf("items[1] = %+v, want f1", items[1])
	}
	if got := d.FolderAccounts("f1"); len(got) != 1 || got[0].ID != "a3" {
		t.Errorf("FolderAccounts(f1) = %+v", got)
	}
}

func TestBackup_RoundTrip(t *testing.T) {
	d := Empty()
	_, _ = d.AddFolder(Folder{ID: "f1", Name: "Work", CreatedAt: 1})
	_, _ = d.AddAccount(Account{ID: "a1", Name: "GitHub", Secret: "JBSWY3DPEHPK3PXP", FolderID: "f1", CreatedAt: 2})

	b, err := NewBackup(d, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	if err != nil {
		t.Fatalf("NewBackup: %v", err)
	}
	if b.Metadata.AppName != BackupAppName || b.Metadata.CreatedAt != "2026-01-02T03:04:05Z" || b.Metadata.Checksum == "" {
		t.Errorf("Metadata = %+v", b.Metadata)
	}
	raw, _ := json.Marshal(b)
	got, err := ParseBackup(raw)
	if err != nil {
		t.Fatalf("ParseBackup: %v", err)
	}
	if len(got.Accounts) != 1 || got.Accounts[0].FolderID != "f1" || len(got.Folders) != 1 {
		t.Errorf("ParseBackup = %+v", got)
	}
}

func TestParseBackup_Bare(t *testing.T) {
	got, err := ParseBackup([]byte(`{"accounts":[{"id":"1","secret":"S","name":"n","type":"totp","createdAt":5,"position":0}]}`))
	if err != nil {
		t.Fatalf("ParseBackup: %v", err)
	}
	if len(got.Accounts) != 1 || got.Folders == nil {
		t.Errorf("ParseBackup(bare) = %+v", got)
	}
	// wrapped, written by the mobile app without checksum
	got, err = ParseBackup([]byte(`{"metadata":{"appName":"LibreAuth","version":"1.0"},"data":{"folders":[{"id":"f","name":"x","createdAt":1,"position":0}]}}`))
	if err != nil {
		t.Fatalf("ParseBackup(wrapped): %v", err)
	}
	if len(got.Folders) != 1 || len(got.Accounts) != 0 {
		t.Errorf("ParseBackup(wrapped) = %+v", got)
	}
}

func TestParseBackup_Invalid(t *testing.T) {
	for _, raw := range []string{`not json`, `{}`, `{"data":{}}`, `{"other":1}`} {
		if _, err := ParseBackup([]byte(raw)); !errors.Is(err, ErrInvalidBackup) {
			t.Errorf("ParseBackup(%s) err = %v, want ErrInvalidBackup", raw, err)
		}
	}
}

func TestParseBackup_ChecksumMismatch(t *testing.T) {
	d := Empty()
	d.Accounts = []Account{{ID: "a1", Name: "x", Secret: "JBSWY3DPEHPK3PXP"}}
	b, _ := NewBackup(d, time.Now())
	b.Data.Accounts[0].Name = "tampered"
	raw, _ := json.Marshal(b)
	if _, err := ParseBackup(raw); err != ErrChecksumMismatch {
		t.Errorf("ParseBackup(tampered) err = %v, want ErrChecksumMismatch", err)
	}
}
