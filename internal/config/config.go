package config

import (
	"encoding/json"
	"strings"

	"github.com/soulteary/cli-kit/env"
	logger "github.com/soulteary/logger-kit"
)

var log *logger.Logger

var (
	Port     = env.Get("PORT", ":8085")
	LogLevel = env.Get("LOG_LEVEL", "info")

	// Redis
	RedisAddr     = env.Get("REDIS_ADDR", "localhost:6379")
	RedisPassword = env.Get("REDIS_PASSWORD", "")
	RedisDB       = env.GetInt("REDIS_DB", 0)

	// Vault encryption (32 bytes for AES-256)
	EncryptionKey = env.Get("LIBREAUTH_ENCRYPTION_KEY", "")

	// Service auth: API Key or HMAC
	APIKey       = env.Get("API_KEY", "")
	HMACSecret   = env.Get("HMAC_SECRET", "")
	HMACKeysJSON = env.Get("LIBREAUTH_HMAC_KEYS", "")
	ServiceName  = env.Get("SERVICE_NAME", "libreauth")

	hmacKeysMap      map[string]string
	hmacDefaultKeyID string

	// Rate limit on writes
	RateLimitPerSubject = env.GetInt("RATE_LIMIT_PER_SUBJECT", 120) // per hour
	RateLimitPerIP      = env.GetInt("RATE_LIMIT_PER_IP", 60)       // per minute

	// QR export image edge in pixels
	QRSize = env.GetInt("QR_SIZE", 256)

	// When false, /v1/codes masks secrets; export always carries them.
	ExposeSecretInCodes = ParseBoolEnv("EXPOSE_SECRET_IN_CODES", false)
)

// Initialize sets the logger and parses HMAC keys if present.
func Initialize(l *logger.Logger) {
	log = l
	hmacKeysMap = nil
	hmacDefaultKeyID = ""
	if HMACKeysJSON != "" {
		if err := parseHMACKeys(); err != nil {
			log.Warn().Err(err).Msg("Failed to parse LIBREAUTH_HMAC_KEYS")
		} else {
			for keyID := range hmacKeysMap {
				hmacDefaultKeyID = keyID
				break
			}
		}
	}
}

func parseHMACKeys() error {
	return json.Unmarshal([]byte(HMACKeysJSON), &hmacKeysMap)
}

// ParseBoolEnv reads an env var as bool: "true"/"1"/"yes" (case-insensitive) = true, "false"/"0"/etc = false, empty = defaultVal.
func ParseBoolEnv(key string, defaultVal bool) bool {
	v := strings.ToLower(strings.TrimSpace(env.Get(key, "")))
	if v == "" {
		return defaultVal
	}
	return v == "true" || v == "1" || v == "yes"
}

// GetHMACSecret returns the HMAC secret for the given key ID.
func GetHMACSecret(keyID string) string {
	if len(hmacKeysMap) > 0 {
		if keyID == "" {
			keyID = hmacDefaultKeyID
		}
		if s, ok := hmacKeysMap[keyID]; ok {
			return s
		}
		return ""
	}
	return HMACSecret
}

// HasHMACKeys returns true if multiple HMAC keys are configured.
func HasHMACKeys() bool {
	return len(hmacKeysMap) > 0
}

// AllowNoAuth returns true when no API key or HMAC is set (dev only).
func AllowNoAuth() bool {
	return APIKey == "" && HMACSecret == "" && !HasHMACKeys()
}

// EncryptionConfigured reports whether the vault key is long enough for AES-256.
func EncryptionConfigured() bool {
	return len(EncryptionKey) >= 32
}
