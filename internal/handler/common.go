package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/soulteary/libreauth/internal/config"
	"github.com/soulteary/libreauth/internal/secret"
	"github.com/soulteary/libreauth/internal/store"
)

var errEncryptionNotConfigured = errors.New("encryption not configured")

// vaultCipher returns the cipher for the configured vault key.
func vaultCipher() (*secret.Cipher, error) {
	if !config.EncryptionConfigured() {
		return nil, errEncryptionNotConfigured
	}
	return secret.NewCipher(config.EncryptionKey)
}

// rateLimited bumps the subject and client IP counters and reports whether
// either is over its limit.
func rateLimited(c *fiber.Ctx, st *store.Store, subject string) bool {
	subjectCount, _ := st.IncrRateSubject(c.Context(), subject)
	if subjectCount > int64(config.RateLimitPerSubject) {
		return true
	}
	ipCount, _ := st.IncrRateIP(c.Context(), c.IP())
	return ipCount > int64(config.RateLimitPerIP)
}
