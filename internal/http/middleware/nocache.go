package middleware

import "github.com/gofiber/fiber/v2"

// NoStore marks responses as not cacheable. Pages carrying document identifiers use it
// so that shared caches and the browser history do not keep them.
func NoStore() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderCacheControl, "no-store")
		return c.Next()
	}
}
