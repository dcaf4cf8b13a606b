package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	logger "github.com/soulteary/logger-kit"

	"github.com/soulteary/libreauth/internal/config"
	"github.com/soulteary/libreauth/internal/handler"
	"github.com/soulteary/libreauth/internal/totp"
)

func setupRouter(t *testing.T) (*fiber.App, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}

	oldAddr := config.RedisAddr
	oldPass := config.RedisPassword
	oldDB := config.RedisDB
	config.RedisAddr = mr.Addr()
	config.RedisPassword = ""
	config.RedisDB = 0
	t.Cleanup(func() {
		config.RedisAddr = oldAddr
		config.RedisPassword = oldPass
		config.RedisDB = oldDB
	})

	log := logger.New(logger.Config{Level: logger.Disabled})
	config.Initialize(log)
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	st, err := Setup(app, log, totp.NewGenerator(func() int64 { return 1111111109 }))
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if st == nil {
		t.Fatal("Store is nil")
	}
	return app, mr
}

func TestSetup(t *testing.T) {
	app, mr := setupRouter(t)
	defer mr.Close()

	// Health check
	req := httptest.NewRequest("GET", "/healthz", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("GET /healthz status = %d, want 200", resp.StatusCode)
	}
}

func TestSetup_ScanRoute(t *testing.T) {
	if !config.AllowNoAuth() {
		t.Skip("service credentials configured in environment")
	}
	app, mr := setupRouter(t)
	defer mr.Close()

	body, _ := json.Marshal(handler.ScanRequest{URI: "otpauth://totp/Work:bob?secret=ABCDEFGH"})
	req := httptest.NewRequest("POST", "/v1/scan", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("POST /v1/scan status = %d, want 200", resp.StatusCode)
	}
	var out handler.ScanResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Descriptor == nil || out.Descriptor.Issuer != "Work" {
		t.Errorf("scan = %+v", out)
	}
}

func TestSetup_CodesRoute(t *testing.T) {
	if !config.AllowNoAuth() {
		t.Skip("service credentials configured in environment")
	}
	app, mr := setupRouter(t)
	defer mr.Close()
	oldKey := config.EncryptionKey
	config.EncryptionKey = "0123456789abcdef0123456789abcdef"
	defer func() { config.EncryptionKey = oldKey }()

	body := `{"subject":"r1","name":"rfc","secret":"GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ"}`
	req := httptest.NewRequest("POST", "/v1/accounts", bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("POST /v1/accounts status = %d, want 200", resp.StatusCode)
	}

	req = httptest.NewRequest("GET", "/v1/codes?subject=r1", nil)
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	var out handler.CodesResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Codes) != 1 || out.Codes[0].Code != "081804" {
		t.Errorf("codes = %+v, want one code 081804", out.Codes)
	}
}

func TestSetup_ItemsRoute(t *testing.T) {
	if !config.AllowNoAuth() {
		t.Skip("service credentials configured in environment")
	}
	app, mr := setupRouter(t)
	defer mr.Close()
	oldKey := config.EncryptionKey
	config.EncryptionKey = "0123456789abcdef0123456789abcdef"
	defer func() { config.EncryptionKey = oldKey }()

	resp, err := app.Test(httptest.NewRequest("GET", "/v1/items?subject=empty", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /v1/items status = %d, want 200", resp.StatusCode)
	}
	var out handler.ItemsResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Items == nil || len(out.Items) != 0 {
		t.Errorf("items = %+v, want empty list", out.Items)
	}
}
