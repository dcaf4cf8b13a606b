package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	health "github.com/soulteary/health-kit"
	logger "github.com/soulteary/logger-kit"
	middlewarekit "github.com/soulteary/middleware-kit"
	rediskit "github.com/soulteary/redis-kit/client"

	"github.com/soulteary/libreauth/internal/config"
	"github.com/soulteary/libreauth/internal/handler"
	"github.com/soulteary/libreauth/internal/store"
	"github.com/soulteary/libreauth/internal/totp"
)

// Setup mounts routes on app. Call config.Initialize(log) before this. A nil
// gen uses the system clock.
func Setup(app *fiber.App, log *logger.Logger, gen *totp.Generator) (*store.Store, error) {
	cfg := rediskit.DefaultConfig().
		WithAddr(config.RedisAddr).
		WithPassword(config.RedisPassword).
		WithDB(config.RedisDB)
	redisClient, err := rediskit.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	if gen == nil {
		gen = totp.NewGenerator(nil)
	}

	rateSubTTL := time.Hour
	rateIPTTL := time.Minute
	st := store.NewStore(redisClient, rateSubTTL, rateIPTTL)

	app.Use(recover.New())
	app.Use(logger.FiberMiddleware(logger.MiddlewareConfig{
		Logger:           log,
		SkipPaths:        []string{"/healthz"},
		IncludeRequestID: true,
		IncludeLatency:   true,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Content-Type,Authorization,X-Service,X-Signature,X-Timestamp,X-API-Key,X-Key-Id",
	}))

	healthConfig := health.DefaultConfig().WithServiceName(config.ServiceName)
	healthAgg := health.NewAggregator(healthConfig)
	healthAgg.AddChecker(health.NewRedisChecker(redisClient))
	app.Get("/healthz", health.FiberHandler(healthAgg))

	v1 := app.Group("/v1")
	zerologLogger := log.Zerolog()
	authHandler := middlewarekit.CombinedAuth(middlewarekit.AuthConfig{
		HMACConfig: &middlewarekit.HMACConfig{
			KeyProvider: config.GetHMACSecret,
		},
		APIKeyConfig: &middlewarekit.APIKeyConfig{
			APIKey: config.APIKey,
		},
		AllowNoAuth: config.AllowNoAuth(),
		Logger:      &zerologLogger,
	})

	v1.Post("/scan", authHandler, handler.Scan(log))
	v1.Post("/accounts", authHandler, handler.AddAccount(st, log))
	v1.Get("/accounts/:id/qr", authHandler, handler.AccountQR(st, log))
	v1.Post("/folders", authHandler, handler.AddFolder(st, log))
	v1.Post("/delete", authHandler, handler.Delete(st, log))
	v1.Get("/items", authHandler, handler.Items(st, log))
	v1.Get("/codes", authHandler, handler.Codes(st, gen, log))
	v1.Get("/export", authHandler, handler.Export(st, log))
	v1.Post("/import", authHandler, handler.Import(st, log))
	v1.Post("/clear", authHandler, handler.Clear(st, log))
	v1.Get("/status", authHandler, handler.Status(st))

	return st, nil
}
