package handler

import (
	"github.com/gofiber/fiber/v2"
	logger "github.com/soulteary/logger-kit"
	secure "github.com/soulteary/secure-kit"

	"github.com/soulteary/libreauth/internal/metrics"
	"github.com/soulteary/libreauth/internal/store"
)

// ClearRequest is the request body for POST /v1/clear.
type ClearRequest struct {
	Subject string `json:"subject"`
}

// ClearResponse is the response for POST /v1/clear.
type ClearResponse struct {
	OK      bool   `json:"ok"`
	Subject string `json:"subject"`
}

// Clear handles POST /v1/clear: drop every account and folder for the subject.
func Clear(st *store.Store, log *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req ClearRequest
		if err := c.BodyParser(&req); err != nil {
			return respondBadRequest(c, "invalid_request", err.Error())
		}
		if req.Subject == "" {
			return respondBadRequest(c, "invalid_request", "subject is required")
		}
		if rateLimited(c, st, req.Subject) {
			return respondRateLimited(c)
		}

		if err := st.Clear(c.Context(), req.Subject); err != nil {
			metrics.RecordVaultOp("clear", "failure")
			log.Warn().Err(err).Str("subject", secure.MaskString(req.Subject, 4)).Msg("clear failed")
			return respondInternalError(c)
		}
		metrics.RecordVaultOp("clear", "success")
		return c.JSON(ClearResponse{OK: true, Subject: req.Subject})
	}
}
