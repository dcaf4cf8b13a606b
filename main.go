package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/pterm/pterm"
	"github.com/pterm/pterm/putils"
	"github.com/soulteary/logger-kit"
	version "github.com/soulteary/version-kit"

	"github.com/soulteary/libreauth/internal/config"
	"github.com/soulteary/libreauth/internal/router"
	"github.com/soulteary/libreauth/internal/totp"
)

func showBanner() {
	pterm.DefaultBox.Println(
		putils.CenterText(
			"LibreAuth\n" +
				"TOTP Authenticator Vault (Scan / Codes / Backup)\n" +
				"Version: " + version.Version,
		),
	)
	time.Sleep(time.Millisecond)
}

func main() {
	showBanner()

	level := logger.ParseLevelFromEnv("LOG_LEVEL", logger.InfoLevel)
	log := logger.New(logger.Config{
		Level:          level,
		ServiceName:    "libreauth",
		ServiceVersion: version.Version,
	})
	config.Initialize(log)

	port := config.Port
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}
	if !config.EncryptionConfigured() {
		log.Warn().Msg("LIBREAUTH_ENCRYPTION_KEY not set or shorter than 32 bytes; vault endpoints will fail")
	}
	if config.AllowNoAuth() {
		log.Warn().Msg("no API_KEY or HMAC secret configured; /v1 is unauthenticated")
	}

	app := fiber.New(fiber.Config{DisableStartupMessage: false})
	if _, err := router.Setup(app, log, totp.NewGenerator(nil)); err != nil {
		log.Fatal().Err(err).Msg("router setup failed")
	}

	go func() {
		if err := app.Listen(port); err != nil {
			log.Fatal().Err(err).Msg("listen failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Warn().Err(err).Msg("shutdown error")
	}
}
