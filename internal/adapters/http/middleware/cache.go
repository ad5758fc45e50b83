package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
)

// NoCacheHeaders marks member and finance data as never cacheable
func NoCacheHeaders() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderCacheControl, "no-store, no-cache, must-revalidate")
		c.Set(fiber.HeaderPragma, "no-cache")
		c.Set(fiber.HeaderExpires, "0")
		return c.Next()
	}
}

// ReportCacheHeaders lets the browser reuse a successful report GET for maxAge.
// It runs after the group's NoCacheHeaders and replaces its Cache-Control.
func ReportCacheHeaders(maxAge time.Duration) fiber.Handler {
	value := "private, max-age=" + strconv.Itoa(int(maxAge.Seconds()))
	return func(c *fiber.Ctx) error {
		err := c.Next()
		if err == nil && c.Method() == fiber.MethodGet && c.Response().StatusCode() == fiber.StatusOK {
			c.Set(fiber.HeaderCacheControl, value)
			c.Response().Header.Del(fiber.HeaderPragma)
			c.Response().Header.Del(fiber.HeaderExpires)
		}
		return err
	}
}
