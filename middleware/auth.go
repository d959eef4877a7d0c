package middleware

import (
	"jmapmail/session"
	"jmapmail/utils"

	"github.com/gofiber/fiber/v2"
)

// SessionCookie is the browser cookie carrying the opaque session token.
const SessionCookie = "session"

// TokenKey is the context local under which the validated token is stored.
const TokenKey = "token"

// RequireSession gates authenticated routes on a live session token. HTMX
// requests get the login page swapped into the body; plain requests get a
// redirect.
func RequireSession(store *session.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Cookies(SessionCookie)
		if token == "" || !store.Exists(token) {
			utils.Log.Debug("Unauthenticated request to %s", c.Path())
			if c.Get("HX-Request") != "" {
				return c.Render("login", fiber.Map{})
			}
			return c.Redirect("/login", fiber.StatusSeeOther)
		}
		c.Locals(TokenKey, token)
		return c.Next()
	}
}
