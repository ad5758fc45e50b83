package middleware

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"unem-umt/internal/config"
	"unem-umt/internal/pkg/metrics"
	"unem-umt/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// Setup configures all middlewares for the application
func Setup(app *fiber.App, cfg *config.Config) {
	app.Use(recover.New())
	app.Use(Metrics())

	// backups are already gzip streams
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
		Next: func(c *fiber.Ctx) bool {
			return strings.HasSuffix(c.Path(), "/download_backup")
		},
	}))

	app.Use(helmet.New(helmet.Config{
		XSSProtection:             "1; mode=block",
		ContentTypeNosniff:        "nosniff",
		XFrameOptions:             "SAMEORIGIN",
		ReferrerPolicy:            "strict-origin-when-cross-origin",
		CrossOriginEmbedderPolicy: "unsafe-none",
		CrossOriginOpenerPolicy:   "same-origin",
		CrossOriginResourcePolicy: "same-origin",
		PermissionPolicy:          "geolocation=(), microphone=(), camera=()",
	}))

	// General API limit, health and metrics excluded
	general := rateLimiter(100, "", "Too many requests", "عدد الطلبات كبير جدا، يرجى الانتظار قليلا")
	app.Use(func(c *fiber.Ctx) error {
		if p := c.Path(); p == "/health" || p == "/metrics" {
			return c.Next()
		}
		return general(c)
	})

	format := "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n"
	if !cfg.IsDev() {
		format = "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path} | ${error}\n"
	}
	app.Use(logger.New(logger.Config{Format: format, TimeFormat: "2006-01-02 15:04:05"}))

	corsConfig := cors.Config{
		AllowOrigins:     cfg.GetAllowedOrigins(),
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,Authorization",
		ExposeHeaders:    "Content-Disposition",
		AllowCredentials: true,
	}
	if cfg.IsDev() {
		// credentials cannot be combined with a wildcard origin
		corsConfig.AllowOrigins = "*"
		corsConfig.AllowCredentials = false
	}
	app.Use(cors.New(corsConfig))
}

// rateLimiter allows max requests per minute per IP. suffix separates the
// counters of stacked limiters.
func rateLimiter(max int, suffix, errText, message string) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + suffix
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"success": false,
				"error":   errText,
				"message": message,
			})
		},
	})
}

// AuthRateLimiter allows 5 login attempts per minute per IP
func AuthRateLimiter() fiber.Handler {
	return rateLimiter(5, "-auth", "Too many login attempts", "محاولات تسجيل دخول كثيرة، يرجى الانتظار دقيقة")
}

// StrictRateLimiter allows 3 requests per minute per IP for registration and test emails
func StrictRateLimiter() fiber.Handler {
	return rateLimiter(3, "-strict", "Rate limit exceeded", "يرجى الانتظار قبل المحاولة مرة أخرى")
}

// Metrics records request count and latency per route
func Metrics() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		}
		metrics.ObserveRequest(c.Method(), c.Route().Path, strconv.Itoa(status), start)
		return err
	}
}

// CustomErrorHandler renders unhandled errors in the API error envelope
func CustomErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return response.Error(c, fe.Code, fe.Message)
	}
	return response.InternalServerError(c, "Internal Server Error")
}
