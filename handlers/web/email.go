// handlers/web/email.go
package web

import (
	"net/url"

	"jmapmail/jmap"
	"jmapmail/middleware"
	"jmapmail/models"
	"jmapmail/session"
	"jmapmail/utils"

	"github.com/gofiber/fiber/v2"
)

// emailPageSize is the number of emails fetched per list page.
const emailPageSize = 50

type EmailHandler struct {
	sessions *session.Store
}

func NewEmailHandler(sessions *session.Store) *EmailHandler {
	return &EmailHandler{sessions: sessions}
}

// client rebuilds a JMAP client from the request's session. The projector
// copies the record fields; nothing from the store escapes by reference.
func (h *EmailHandler) client(c *fiber.Ctx) (*jmap.Client, bool) {
	token, _ := c.Locals(middleware.TokenKey).(string)
	return session.Get(h.sessions, token, func(rec session.Record) *jmap.Client {
		return jmap.FromSession(rec.Username, rec.Password, rec.APIURL, rec.AccountID)
	})
}

// HandleMain renders the application shell.
func (h *EmailHandler) HandleMain(c *fiber.Ctx) error {
	token, _ := c.Locals(middleware.TokenKey).(string)
	username, ok := session.Get(h.sessions, token, func(rec session.Record) string {
		return rec.Username
	})
	if !ok {
		return c.Redirect("/login", fiber.StatusSeeOther)
	}
	return c.Render("inbox", fiber.Map{"Username": username})
}

// HandleMailboxes renders the sidebar mailbox list fragment.
func (h *EmailHandler) HandleMailboxes(c *fiber.Ctx) error {
	client, ok := h.client(c)
	if !ok {
		return c.Redirect("/login", fiber.StatusSeeOther)
	}

	mailboxes, err := client.GetMailboxes()
	if err != nil {
		utils.Log.Error("Failed to fetch mailboxes: %v", err)
		return h.errorFragment(c, "Failed to load mailboxes: "+models.UserMessage(err))
	}

	utils.Log.Info("Fetched %d mailboxes", len(mailboxes))
	return c.Render("partials/mailboxes", fiber.Map{
		"Mailboxes": models.SortMailboxes(mailboxes),
	})
}

// HandleMailboxEmails renders the email list fragment for one mailbox. An
// offset query selects a later page; those requests get bare rows that HTMX
// swaps in place of the load-more row.
func (h *EmailHandler) HandleMailboxEmails(c *fiber.Ctx) error {
	mailboxID := decodeParam(c.Params("id"))
	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	client, ok := h.client(c)
	if !ok {
		return c.Redirect("/login", fiber.StatusSeeOther)
	}

	ids, total, err := client.QueryEmailsPage(mailboxID, emailPageSize, offset)
	if err != nil {
		utils.Log.Error("Failed to query emails for mailbox %s: %v", mailboxID, err)
		return h.errorFragment(c, "Failed to query emails: "+models.UserMessage(err))
	}
	utils.Log.Info("Email/query returned %d ids for mailbox %s (offset %d, total %d)",
		len(ids), mailboxID, offset, total)

	emails, err := client.GetEmails(ids)
	if err != nil {
		utils.Log.Error("Failed to fetch emails for mailbox %s: %v", mailboxID, err)
		return h.errorFragment(c, "Failed to load emails: "+models.UserMessage(err))
	}

	nextOffset := 0
	if offset+len(ids) < total {
		nextOffset = offset + len(ids)
	}

	bind := fiber.Map{
		"Emails":     models.EmailRows(emails),
		"MailboxID":  mailboxID,
		"NextOffset": nextOffset,
	}
	if offset > 0 {
		return c.Render("partials/email_rows", bind)
	}
	return c.Render("partials/emails", bind)
}

// HandleEmailView renders a single opened email fragment.
func (h *EmailHandler) HandleEmailView(c *fiber.Ctx) error {
	emailID := decodeParam(c.Params("id"))

	client, ok := h.client(c)
	if !ok {
		return c.Redirect("/login", fiber.StatusSeeOther)
	}

	email, err := client.GetEmail(emailID)
	if err != nil {
		utils.Log.Error("Failed to fetch email %s: %v", emailID, err)
		return h.errorFragment(c, "Failed to load email: "+models.UserMessage(err))
	}
	if email == nil {
		utils.Log.Warn("Email not found: %s", emailID)
		return h.errorFragment(c, "Email not found")
	}

	return c.Render("partials/email", fiber.Map{"Email": models.EmailDetail(email)})
}

// HandleEmailRaw returns the server's JSON for one email, for debugging.
func (h *EmailHandler) HandleEmailRaw(c *fiber.Ctx) error {
	emailID := decodeParam(c.Params("id"))

	client, ok := h.client(c)
	if !ok {
		return c.Redirect("/login", fiber.StatusSeeOther)
	}

	raw, err := client.GetEmailRaw(emailID)
	if err != nil {
		utils.Log.Error("Failed to fetch raw email %s: %v", emailID, err)
		return utils.InternalServerError("Failed to load email", err)
	}
	if raw == nil {
		return utils.NotFoundError("Email not found", nil)
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSONCharsetUTF8)
	return c.Send(raw)
}

func (h *EmailHandler) errorFragment(c *fiber.Ctx, message string) error {
	return c.Render("partials/error", fiber.Map{"Message": message})
}

// decodeParam undoes the URL escaping fiber leaves in route params; mailbox
// and email ids can contain arbitrary bytes.
func decodeParam(p string) string {
	decoded, err := url.QueryUnescape(p)
	if err != nil {
		return p
	}
	return decoded
}
