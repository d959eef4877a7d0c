// Package models adapts protocol values into what the templates render.
package models

import (
	"errors"
	"sort"
	"strings"

	"jmapmail/jmap"
	"jmapmail/utils"
)

// MailboxView is one sidebar entry.
type MailboxView struct {
	ID     string
	Name   string
	Unread uint32
}

// EmailRowView is one row of the email list.
type EmailRowView struct {
	ID      string
	From    string
	Subject string
	Preview string
	Date    string
	Unread  bool
}

// EmailDetailView is the opened email.
type EmailDetailView struct {
	ID      string
	From    string
	To      string
	Cc      string
	Subject string
	Date    string
	Body    string
}

// roleOrder ranks mailbox roles for sidebar display.
func roleOrder(role string) int {
	switch role {
	case "inbox":
		return 0
	case "drafts":
		return 1
	case "sent":
		return 2
	case "trash":
		return 3
	case "junk", "spam":
		return 4
	case "archive":
		return 5
	default:
		return 10
	}
}

// SortMailboxes orders mailboxes by role, then name, and converts them for
// the sidebar template.
func SortMailboxes(mailboxes []jmap.Mailbox) []MailboxView {
	sorted := make([]jmap.Mailbox, len(mailboxes))
	copy(sorted, mailboxes)
	sort.SliceStable(sorted, func(i, j int) bool {
		ri, rj := roleOrder(sorted[i].Role), roleOrder(sorted[j].Role)
		if ri != rj {
			return ri < rj
		}
		return sorted[i].Name < sorted[j].Name
	})

	views := make([]MailboxView, len(sorted))
	for i, m := range sorted {
		views[i] = MailboxView{ID: m.ID, Name: m.Name, Unread: m.UnreadEmails}
	}
	return views
}

// EmailRows converts emails into list rows.
func EmailRows(emails []jmap.Email) []EmailRowView {
	rows := make([]EmailRowView, len(emails))
	for i := range emails {
		e := &emails[i]
		rows[i] = EmailRowView{
			ID:      e.ID,
			From:    FormatAddressShort(e.From),
			Subject: orNoSubject(e.Subject),
			Preview: Truncate(utils.CleanText(e.Preview), 80),
			Date:    FormatDate(e.ReceivedAt),
			Unread:  !e.Seen(),
		}
	}
	return rows
}

// EmailDetail converts an email into the detail view.
func EmailDetail(e *jmap.Email) EmailDetailView {
	return EmailDetailView{
		ID:      e.ID,
		From:    FormatAddresses(e.From),
		To:      FormatAddresses(e.To),
		Cc:      FormatAddresses(e.Cc),
		Subject: orNoSubject(e.Subject),
		Date:    e.ReceivedAt,
		Body:    utils.CleanText(e.Body()),
	}
}

// FormatAddressShort renders the first address as its display name, falling
// back to the bare address.
func FormatAddressShort(addrs []jmap.EmailAddress) string {
	if len(addrs) == 0 {
		return "(unknown)"
	}
	if addrs[0].Name != "" {
		return addrs[0].Name
	}
	if addrs[0].Email != "" {
		return addrs[0].Email
	}
	return "(unknown)"
}

// FormatAddresses renders an address list as "Name <addr>, ...".
func FormatAddresses(addrs []jmap.EmailAddress) string {
	if len(addrs) == 0 {
		return ""
	}
	parts := make([]string, 0, len(addrs))
	for _, a := range addrs {
		switch {
		case a.Name != "" && a.Email != "":
			parts = append(parts, a.Name+" <"+a.Email+">")
		case a.Name != "":
			parts = append(parts, a.Name)
		default:
			parts = append(parts, a.Email)
		}
	}
	return strings.Join(parts, ", ")
}

// FormatDate shortens an ISO-8601 timestamp to "2006-01-02 15:04" without
// parsing it; malformed values pass through untouched.
func FormatDate(iso string) string {
	t := strings.Index(iso, "T")
	if t < 0 {
		return iso
	}
	end := t + 6
	if end > len(iso) {
		end = len(iso)
	}
	return iso[:t] + " " + iso[t+1:end]
}

// Truncate caps s at max runes, appending an ellipsis when cut.
func Truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}

func orNoSubject(subject string) string {
	if subject == "" {
		return "(no subject)"
	}
	return subject
}

// UserMessage turns an internal error into text safe to show in a fragment.
// Protocol errors are already displayable values; only the auth failure gets
// a friendlier line.
func UserMessage(err error) string {
	var jerr *jmap.Error
	if errors.As(err, &jerr) && jerr.AuthFailed {
		return "Authentication failed. Check your username and password."
	}
	return err.Error()
}
