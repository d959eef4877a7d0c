// Package jmap implements the subset of the JSON Meta Application Protocol
// (RFC 8620, RFC 8621) this webmail needs: session autodiscovery with
// auth-preserving redirects, batched method calls and read-only mail access.
package jmap

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Capability URNs.
const (
	CoreCapability = "urn:ietf:params:jmap:core"
	MailCapability = "urn:ietf:params:jmap:mail"
)

// Method names used by this client.
const (
	methodMailboxGet = "Mailbox/get"
	methodEmailQuery = "Email/query"
	methodEmailGet   = "Email/get"
)

// Session is the session resource served from the well-known endpoint
// (RFC 8620 section 2).
type Session struct {
	Capabilities    map[string]json.RawMessage `json:"capabilities"`
	Accounts        map[string]Account         `json:"accounts"`
	PrimaryAccounts map[string]string          `json:"primaryAccounts"`
	Username        string                     `json:"username"`
	APIURL          string                     `json:"apiUrl"`
	DownloadURL     string                     `json:"downloadUrl"`
	UploadURL       string                     `json:"uploadUrl"`
	State           string                     `json:"state"`
}

// Account describes one account available to the session.
type Account struct {
	Name                string                     `json:"name"`
	IsPersonal          bool                       `json:"isPersonal"`
	IsReadOnly          bool                       `json:"isReadOnly"`
	AccountCapabilities map[string]json.RawMessage `json:"accountCapabilities"`
}

// MailAccountID resolves the account used for mail operations. The primary
// mail account wins; otherwise the accounts are scanned for one carrying the
// mail capability. Go map iteration order is unspecified, so the scan walks
// account ids in sorted order to stay deterministic.
func (s *Session) MailAccountID() (string, bool) {
	if id, ok := s.PrimaryAccounts[MailCapability]; ok && id != "" {
		return id, true
	}
	ids := make([]string, 0, len(s.Accounts))
	for id := range s.Accounts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if _, ok := s.Accounts[id].AccountCapabilities[MailCapability]; ok {
			return id, true
		}
	}
	return "", false
}

// Mailbox is a JMAP mailbox (RFC 8621 section 2).
type Mailbox struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ParentID     string `json:"parentId"`
	Role         string `json:"role"`
	SortOrder    uint32 `json:"sortOrder"`
	TotalEmails  uint32 `json:"totalEmails"`
	UnreadEmails uint32 `json:"unreadEmails"`
}

// EmailAddress is an address with an optional display name.
type EmailAddress struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// BodyPart references one body part of an email.
type BodyPart struct {
	PartID string `json:"partId"`
}

// BodyValue holds the fetched content of a body part.
type BodyValue struct {
	Value string `json:"value"`
}

// Email is a JMAP email object restricted to the properties this client
// requests.
type Email struct {
	ID         string               `json:"id"`
	From       []EmailAddress       `json:"from"`
	To         []EmailAddress       `json:"to"`
	Cc         []EmailAddress       `json:"cc"`
	Subject    string               `json:"subject"`
	ReceivedAt string               `json:"receivedAt"`
	Preview    string               `json:"preview"`
	TextBody   []BodyPart           `json:"textBody"`
	BodyValues map[string]BodyValue `json:"bodyValues"`
	Keywords   map[string]bool      `json:"keywords"`
}

// Seen reports whether the $seen keyword is set.
func (e *Email) Seen() bool { return e.Keywords["$seen"] }

// Body returns the content of the first text body part that has a fetched
// value, falling back to the preview.
func (e *Email) Body() string {
	for _, part := range e.TextBody {
		if bv, ok := e.BodyValues[part.PartID]; ok {
			return bv.Value
		}
	}
	return e.Preview
}

// Request is the API request envelope (RFC 8620 section 3.3).
type Request struct {
	Using       []string     `json:"using"`
	MethodCalls []MethodCall `json:"methodCalls"`
}

// Response is the API response envelope.
type Response struct {
	MethodResponses []MethodResponse `json:"methodResponses"`
	SessionState    string           `json:"sessionState,omitempty"`
}

// MethodCall is one invocation; the wire format is the tuple
// [name, arguments, callId]. Arguments stays an untyped value so raw
// arguments can be forwarded for methods this package has no struct for.
type MethodCall struct {
	Name      string
	Arguments interface{}
	CallID    string
}

// MarshalJSON encodes the tuple form.
func (m MethodCall) MarshalJSON() ([]byte, error) {
	return json.Marshal([]interface{}{m.Name, m.Arguments, m.CallID})
}

// MethodResponse is one response tuple [name, arguments, callId].
type MethodResponse struct {
	Name      string
	Arguments json.RawMessage
	CallID    string
}

// UnmarshalJSON decodes the tuple form.
func (m *MethodResponse) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != 3 {
		return fmt.Errorf("method response has %d elements, want 3", len(raw))
	}
	if err := json.Unmarshal(raw[0], &m.Name); err != nil {
		return err
	}
	m.Arguments = raw[1]
	return json.Unmarshal(raw[2], &m.CallID)
}

// methodError is the argument payload of an "error" method response.
type methodError struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

// Argument and result shapes for the methods this client issues. The nil IDs
// slice in mailboxGetArgs deliberately serializes as null: the server reads
// that as "all mailboxes visible to this account".
type mailboxGetArgs struct {
	AccountID string   `json:"accountId"`
	IDs       []string `json:"ids"`
}

type mailboxGetResult struct {
	List []Mailbox `json:"list"`
}

type emailFilter struct {
	InMailbox string `json:"inMailbox"`
}

type sortOrder struct {
	Property    string `json:"property"`
	IsAscending bool   `json:"isAscending"`
}

type emailQueryArgs struct {
	AccountID      string      `json:"accountId"`
	Filter         emailFilter `json:"filter"`
	Sort           []sortOrder `json:"sort"`
	Position       int         `json:"position,omitempty"`
	Limit          int         `json:"limit"`
	CalculateTotal bool        `json:"calculateTotal,omitempty"`
}

type emailQueryResult struct {
	IDs      []string `json:"ids"`
	Position int      `json:"position"`
	Total    int      `json:"total"`
}

type emailGetArgs struct {
	AccountID           string   `json:"accountId"`
	IDs                 []string `json:"ids"`
	Properties          []string `json:"properties"`
	FetchTextBodyValues bool     `json:"fetchTextBodyValues"`
}

type emailGetResult struct {
	List     []Email  `json:"list"`
	NotFound []string `json:"notFound"`
}

type emailGetRawResult struct {
	List []json.RawMessage `json:"list"`
}
