// handlers/web/auth.go
package web

import (
	"strings"

	"jmapmail/config"
	"jmapmail/jmap"
	"jmapmail/middleware"
	"jmapmail/models"
	"jmapmail/session"
	"jmapmail/utils"

	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	config   *config.Config
	sessions *session.Store
}

// NewAuthHandler creates a new instance of AuthHandler
func NewAuthHandler(cfg *config.Config, sessions *session.Store) *AuthHandler {
	return &AuthHandler{config: cfg, sessions: sessions}
}

// ShowLogin renders the login page; a browser with a live session goes
// straight to the inbox.
func (h *AuthHandler) ShowLogin(c *fiber.Ctx) error {
	if token := c.Cookies(middleware.SessionCookie); token != "" && h.sessions.Exists(token) {
		return c.Redirect("/")
	}
	return c.Render("login", fiber.Map{})
}

// HandleLogin runs JMAP discovery with the submitted credentials and mints a
// session on success.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	username := strings.TrimSpace(c.FormValue("username"))
	password := c.FormValue("password")

	if username == "" || password == "" {
		return c.Status(fiber.StatusBadRequest).Render("login", fiber.Map{
			"Error":    "Username and password are required",
			"Username": username,
		})
	}

	utils.Log.Info("Login attempt for user: %s", username)

	descriptor, client, err := jmap.Discover(h.config.JMAP.WellKnownURL, username, password)
	if err != nil {
		utils.Log.Error("Login failed for user %s: %v", username, err)
		code := fiber.StatusBadGateway
		if jmap.IsAuthFailed(err) {
			code = fiber.StatusUnauthorized
		}
		return c.Status(code).Render("login", fiber.Map{
			"Error":    "Login failed: " + models.UserMessage(err),
			"Username": username,
		})
	}

	token := h.sessions.Create(session.Record{
		Username:    username,
		Password:    password,
		APIURL:      client.APIURL(),
		AccountID:   client.AccountID(),
		DownloadURL: descriptor.DownloadURL,
	})
	c.Cookie(sessionCookie(token, 0))

	utils.Log.WithField("account", client.AccountID()).Info("Login successful for user: %s", username)
	return c.Render("inbox", fiber.Map{"Username": username})
}

// HandleLogout destroys the session and clears the cookie.
func (h *AuthHandler) HandleLogout(c *fiber.Ctx) error {
	if token, ok := c.Locals(middleware.TokenKey).(string); ok {
		if rec, ok := h.sessions.Remove(token); ok {
			utils.Log.Info("User logged out: %s", rec.Username)
		}
	}
	c.Cookie(sessionCookie("", -1))
	return c.Render("login", fiber.Map{})
}

// sessionCookie builds the session cookie; maxAge -1 clears it.
func sessionCookie(token string, maxAge int) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   maxAge,
		HTTPOnly: true,
		SameSite: "Strict",
	}
}
