package handler

import (
	"github.com/gofiber/fiber/v2"
	logger "github.com/soulteary/logger-kit"

	"github.com/soulteary/libreauth/internal/metrics"
	"github.com/soulteary/libreauth/internal/otpauth"
)

// ScanRequest is the request body for POST /v1/scan.
type ScanRequest struct {
	URI string `json:"uri"`
}

// ScanResponse carries the parsed URI so a client can prefill the add form.
type ScanResponse struct {
	OK         bool                `json:"ok"`
	Descriptor *otpauth.Descriptor `json:"descriptor"`
}

// Scan handles POST /v1/scan: parse a raw otpauth URI from a QR scan.
func Scan(log *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req ScanRequest
		if err := c.BodyParser(&req); err != nil {
			return respondBadRequest(c, "invalid_request", err.Error())
		}
		if req.URI == "" {
			return respondBadRequest(c, "invalid_request", "uri is required")
		}
		d, err := otpauth.Parse(req.URI)
		if err != nil {
			metrics.RecordScan("failure")
			log.Info().Err(err).Msg("scan: rejected uri")
			return respondBadRequest(c, "invalid_format", err.Error())
		}
		metrics.RecordScan("success")
		return c.JSON(ScanResponse{OK: true, Descriptor: d})
	}
}
