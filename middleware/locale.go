package middleware

import (
	"strings"

	"jmapmail/utils"

	"github.com/gofiber/fiber/v2"
)

// LocaleMiddleware detects and sets the user's locale
func LocaleMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		lang := c.Query("lang")

		if lang == "" {
			lang = c.Cookies("lang")
		}

		if lang == "" {
			if strings.HasPrefix(c.Get("Accept-Language"), "ja") {
				lang = "ja"
			} else {
				lang = "en"
			}
		}

		// Only allow supported languages
		if lang != "en" && lang != "ja" {
			lang = "en"
		}

		c.Locals("localizer", utils.GetLocalizer(lang))
		c.Locals("lang", lang)

		return c.Next()
	}
}
