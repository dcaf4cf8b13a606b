package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/soulteary/libreauth/internal/otpauth"
)

func runApp(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	app := newApp()
	var out, errOut bytes.Buffer
	app.Writer = &out
	app.ErrWriter = &errOut
	app.Reader = strings.NewReader(stdin)
	err := app.Run(append([]string{"libreauth"}, args...))
	return out.String(), errOut.String(), err
}

func TestCode_At(t *testing.T) {
	out, _, err := runApp(t, "", "code", "--at", "1111111109", "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ")
	if err != nil {
		t.Fatalf("code: %v", err)
	}
	if !strings.HasPrefix(out, "081804") {
		t.Errorf("output = %q, want code 081804", out)
	}
	if !strings.Contains(out, "(1s left)") {
		t.Errorf("output = %q, want 1s left", out)
	}
}

func TestCode_Stdin(t *testing.T) {
	out, _, err := runApp(t, "gezd gnbv gy3t qojq gezd gnbv gy3t qojq\n", "code", "--at", "59")
	if err != nil {
		t.Fatalf("code: %v", err)
	}
	if !strings.HasPrefix(out, "287082") {
		t.Errorf("output = %q, want code 287082", out)
	}
}

func TestCode_NoSecret(t *testing.T) {
	_, _, err := runApp(t, "\n", "code")
	if !errors.Is(err, errNoSecret) {
		t.Errorf("err = %v, want errNoSecret", err)
	}
}

func TestCode_Fallback(t *testing.T) {
	out, errOut, err := runApp(t, "", "code", "--at=-1", "JBSWY3DPEHPK3PXP")
	if err != nil {
		t.Fatalf("code: %v", err)
	}
	if !strings.HasPrefix(out, "000000") {
		t.Errorf("output = %q, want fallback", out)
	}
	if !strings.Contains(errOut, "fallback") {
		t.Errorf("stderr = %q, want fallback warning", errOut)
	}
}

func TestParse(t *testing.T) {
	out, _, err := runApp(t, "", "parse", "otpauth://totp/Example:alice@google.com?secret=JBSWY3DPEHPK3PXP&issuer=Example")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	for _, want := range []string{"totp", "Example", "alice@google.com", "JBSWY3DPEHPK3PXP"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	_, _, err = runApp(t, "", "parse", "otpauth://totp/x?issuer=Y")
	if !errors.Is(err, otpauth.ErrInvalidFormat) {
		t.Errorf("err = %v, want ErrInvalidFormat", err)
	}
	if _, _, err := runApp(t, "", "parse"); err == nil {
		t.Error("parse without URI should error")
	}
}

func TestRemaining(t *testing.T) {
	out, _, err := runApp(t, "", "remaining")
	if err != nil {
		t.Fatalf("remaining: %v", err)
	}
	out = strings.TrimSpace(out)
	if out == "" || out == "0" || len(out) > 2 {
		t.Errorf("remaining = %q, want 1..30", out)
	}
}

func TestDescriptorRows(t *testing.T) {
	rows := descriptorRows(&otpauth.Descriptor{Type: "totp", Secret: "ABC"})
	if rows[2][1] != "-" || rows[3][1] != "-" {
		t.Errorf("empty issuer/account should render as -, got %v", rows)
	}
}
