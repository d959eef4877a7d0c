package web

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"jmapmail/config"
	"jmapmail/middleware"
	"jmapmail/session"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/template/html/v2"
)

// newTestApp wires the same routes as main with the template engine pointed at
// the repository's templates. Localization is stubbed to echo message ids.
func newTestApp(cfg *config.Config, sessions *session.Store) *fiber.App {
	engine := html.New("../../templates", ".html")
	engine.AddFunc("t", func(messageID string) string { return messageID })
	engine.AddFunc("tWithData", func(messageID string, data map[string]interface{}) string {
		return messageID
	})

	app := fiber.New(fiber.Config{Views: engine})

	authHandler := NewAuthHandler(cfg, sessions)
	emailHandler := NewEmailHandler(sessions)

	app.Get("/login", authHandler.ShowLogin)
	app.Post("/login", authHandler.HandleLogin)

	protected := app.Group("", middleware.RequireSession(sessions))
	protected.Get("/", emailHandler.HandleMain)
	protected.Post("/logout", authHandler.HandleLogout)
	protected.Get("/mailboxes", emailHandler.HandleMailboxes)
	protected.Get("/mailbox/:id/emails", emailHandler.HandleMailboxEmails)
	protected.Get("/email/:id/raw", emailHandler.HandleEmailRaw)
	protected.Get("/email/:id", emailHandler.HandleEmailView)

	return app
}

func testConfig(wellKnownURL string) *config.Config {
	return &config.Config{
		JMAP: config.JMAPConfig{WellKnownURL: wellKnownURL},
	}
}

func loginForm(username, password string) *http.Request {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)
	req := httptest.NewRequest("POST", "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func sessionRequest(method, target, token string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: token})
	return req
}

// newJMAPBackend serves a minimal but complete JMAP server: the well-known
// session resource plus an API endpoint that answers the three read methods.
func newJMAPBackend(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	mux.HandleFunc("/.well-known/jmap", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != basicAuthHeader("alice", "secret") {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		fmt.Fprintf(w, `{
			"apiUrl": %q,
			"downloadUrl": %q,
			"primaryAccounts": {"urn:ietf:params:jmap:mail": "u1"},
			"accounts": {"u1": {}}
		}`, srv.URL+"/api", srv.URL+"/download")
	})

	mux.HandleFunc("/api", func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(r.Body)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		body := string(raw)
		switch {
		case strings.Contains(body, "Mailbox/get"):
			fmt.Fprint(w, `{"methodResponses": [["Mailbox/get", {"list": [
				{"id": "mb1", "name": "Inbox", "role": "inbox", "unreadEmails": 2},
				{"id": "mb2", "name": "Archive", "role": "archive"}
			]}, "0"]]}`)
		case strings.Contains(body, "Email/query"):
			fmt.Fprint(w, `{"methodResponses": [["Email/query", {"ids": ["e1"], "total": 1}, "0"]]}`)
		case strings.Contains(body, "Email/get"):
			fmt.Fprint(w, `{"methodResponses": [["Email/get", {"list": [{
				"id": "e1",
				"from": [{"name": "Bob", "email": "bob@example.com"}],
				"subject": "Hello",
				"receivedAt": "2026-08-12T13:45:00Z",
				"preview": "Hi there",
				"textBody": [{"partId": "1"}],
				"bodyValues": {"1": {"value": "Hi there, full text."}}
			}]}, "0"]]}`)
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	})

	return srv
}

func basicAuthHeader(user, pass string) string {
	req := httptest.NewRequest("GET", "/", nil)
	req.SetBasicAuth(user, pass)
	return req.Header.Get("Authorization")
}
