package main

import (
	"time"

	"jmapmail/config"
	"jmapmail/handlers/web"
	"jmapmail/middleware"
	"jmapmail/session"
	"jmapmail/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/template/html/v2"
	"github.com/nicksnyder/go-i18n/v2/i18n"
)

// Helper function to determine if request is an HTMX or API request
func isFragmentRequest(c *fiber.Ctx) bool {
	if c == nil {
		return false
	}
	return c.Get("HX-Request") != ""
}

func main() {
	utils.Log.Info("Initializing jmapmail...")

	cfg, err := config.LoadConfig("config.toml")
	if err != nil {
		utils.Log.Error("Failed to load config: %v", err)
		return
	}

	if err := utils.InitI18n(); err != nil {
		utils.Log.Error("Failed to initialize i18n: %v", err)
	}

	// Template engine with helper functions. The t function uses the default
	// localizer; locale middleware swaps it per request via Locals.
	engine := html.New("./templates", ".html")
	engine.AddFunc("t", func(messageID string) string {
		return utils.T(utils.Localizer, messageID)
	})
	engine.AddFunc("tWithData", func(messageID string, data map[string]interface{}) string {
		return utils.TWithData(utils.Localizer, messageID, data)
	})

	app := fiber.New(fiber.Config{
		Views: engine,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if appErr, ok := err.(*utils.AppError); ok {
				code = appErr.Code
				utils.Log.Error("Application error: %v", appErr)
			} else if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}

			if isFragmentRequest(c) {
				return c.Status(code).Render("partials/error", fiber.Map{
					"Message": err.Error(),
				})
			}
			return c.Status(code).Render("error", fiber.Map{
				"Error": err.Error(),
				"Code":  code,
			})
		},
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(compress.New())
	app.Use(helmet.New(helmet.Config{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "SAMEORIGIN",
		ReferrerPolicy:        "no-referrer",
		ContentSecurityPolicy: "default-src 'self'; script-src 'self' 'unsafe-inline' https://unpkg.com; style-src 'self' 'unsafe-inline';",
	}))
	app.Use(middleware.LocaleMiddleware())

	// The session store lives for the life of the process; records are
	// dropped only on logout.
	sessions := session.NewStore()

	authHandler := web.NewAuthHandler(cfg, sessions)
	emailHandler := web.NewEmailHandler(sessions)

	// Public routes. Login is rate limited per IP.
	loginLimiter := middleware.RateLimiter(cfg.RateLimit.Requests,
		time.Duration(cfg.RateLimit.WindowSeconds)*time.Second)
	app.Get("/login", authHandler.ShowLogin)
	app.Post("/login", loginLimiter, authHandler.HandleLogin)

	// Protected routes
	protected := app.Group("", middleware.RequireSession(sessions))
	protected.Get("/", emailHandler.HandleMain)
	protected.Post("/logout", authHandler.HandleLogout)
	protected.Get("/mailboxes", emailHandler.HandleMailboxes)
	protected.Get("/mailbox/:id/emails", emailHandler.HandleMailboxEmails)
	protected.Get("/email/:id/raw", emailHandler.HandleEmailRaw)
	protected.Get("/email/:id", emailHandler.HandleEmailView)

	// Health check endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":   "ok",
			"sessions": sessions.Len(),
			"time":     time.Now().Format(time.RFC3339),
		})
	})

	// 404 for everything else
	app.Use(func(c *fiber.Ctx) error {
		localizer, _ := c.Locals("localizer").(*i18n.Localizer)
		if localizer == nil {
			localizer = utils.Localizer
		}
		if isFragmentRequest(c) {
			return c.Status(404).Render("partials/error", fiber.Map{
				"Message": utils.T(localizer, "error_404"),
			})
		}
		return c.Status(404).Render("error", fiber.Map{
			"Error": utils.T(localizer, "error_404"),
			"Code":  404,
		})
	})

	utils.Log.Info("JMAP well-known URL: %s", cfg.JMAP.WellKnownURL)
	utils.Log.Info("Starting server on %s...", cfg.ListenAddress())
	if err := app.Listen(cfg.ListenAddress()); err != nil {
		utils.Log.Error("Error starting server: %v", err)
	}
}
