package models

import (
	"testing"

	"jmapmail/jmap"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSortMailboxes(t *testing.T) {
	mailboxes := []jmap.Mailbox{
		{ID: "m1", Name: "Work", Role: ""},
		{ID: "m2", Name: "Archive", Role: "archive"},
		{ID: "m3", Name: "Inbox", Role: "inbox", UnreadEmails: 7},
		{ID: "m4", Name: "Sent", Role: "sent"},
		{ID: "m5", Name: "Family", Role: ""},
	}

	views := SortMailboxes(mailboxes)
	require.Len(t, views, 5)

	names := make([]string, len(views))
	for i, v := range views {
		names[i] = v.Name
	}
	assert.Equal(t, []string{"Inbox", "Sent", "Archive", "Family", "Work"}, names)
	assert.EqualValues(t, 7, views[0].Unread)

	// The input slice is left untouched.
	assert.Equal(t, "Work", mailboxes[0].Name)
}

func TestEmailRows(t *testing.T) {
	emails := []jmap.Email{
		{
			ID:         "e1",
			From:       []jmap.EmailAddress{{Name: "Bob", Email: "bob@example.com"}},
			Subject:    "Lunch?",
			ReceivedAt: "2026-08-12T13:45:00Z",
			Preview:    "Are you free <b>today</b>?",
			Keywords:   map[string]bool{"$seen": true},
		},
		{
			ID:         "e2",
			From:       []jmap.EmailAddress{{Email: "noreply@example.com"}},
			ReceivedAt: "2026-08-11T08:00:00Z",
		},
	}

	rows := EmailRows(emails)
	require.Len(t, rows, 2)

	assert.Equal(t, "Bob", rows[0].From)
	assert.Equal(t, "2026-08-12 13:45", rows[0].Date)
	assert.False(t, rows[0].Unread)
	assert.NotContains(t, rows[0].Preview, "<b>")

	assert.Equal(t, "noreply@example.com", rows[1].From)
	assert.Equal(t, "(no subject)", rows[1].Subject)
	assert.True(t, rows[1].Unread)
}

func TestEmailDetail(t *testing.T) {
	e := &jmap.Email{
		ID:         "e1",
		From:       []jmap.EmailAddress{{Name: "Bob", Email: "bob@example.com"}},
		To:         []jmap.EmailAddress{{Email: "alice@example.com"}, {Name: "Carol"}},
		Subject:    "Plans",
		ReceivedAt: "2026-08-12T13:45:00Z",
		TextBody:   []jmap.BodyPart{{PartID: "1"}},
		BodyValues: map[string]jmap.BodyValue{"1": {Value: "See you at noon."}},
	}

	view := EmailDetail(e)
	assert.Equal(t, "Bob <bob@example.com>", view.From)
	assert.Equal(t, "alice@example.com, Carol", view.To)
	assert.Equal(t, "See you at noon.", view.Body)
}

func TestFormatAddressShort(t *testing.T) {
	assert.Equal(t, "(unknown)", FormatAddressShort(nil))
	assert.Equal(t, "Bob", FormatAddressShort([]jmap.EmailAddress{{Name: "Bob", Email: "b@x"}}))
	assert.Equal(t, "b@x", FormatAddressShort([]jmap.EmailAddress{{Email: "b@x"}}))
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "2026-08-12 13:45", FormatDate("2026-08-12T13:45:00Z"))
	assert.Equal(t, "not-a-date", FormatDate("not-a-date"))
	assert.Equal(t, "2026-08-12 13", FormatDate("2026-08-12T13"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "abcde...", Truncate("abcdefgh", 5))
	assert.Equal(t, "日本語...", Truncate("日本語のテキスト", 3))
}

func TestUserMessage(t *testing.T) {
	authErr := &jmap.Error{Kind: jmap.KindHTTP, Message: "401 Unauthorized", AuthFailed: true}
	assert.Contains(t, UserMessage(authErr), "username and password")

	plain := &jmap.Error{Kind: jmap.KindParse, Message: "bad session json"}
	assert.Contains(t, UserMessage(plain), "bad session json")
}
