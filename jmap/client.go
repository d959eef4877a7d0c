package jmap

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"jmapmail/utils"
)

// emailProperties is the fixed property set requested for every Email/get.
var emailProperties = []string{
	"id", "from", "to", "cc", "subject",
	"receivedAt", "preview", "textBody", "bodyValues", "keywords",
}

// Client is an authenticated JMAP client bound to one mail account. It is
// cheap to construct and holds no connection state; the web layer builds a
// fresh one per request from the stored session.
type Client struct {
	username  string
	password  string
	apiURL    string
	accountID string
}

// FromSession reconstructs a client from stored session fields without
// re-running discovery.
func FromSession(username, password, apiURL, accountID string) *Client {
	return &Client{
		username:  username,
		password:  password,
		apiURL:    apiURL,
		accountID: accountID,
	}
}

// AccountID returns the resolved mail account id.
func (c *Client) AccountID() string { return c.accountID }

// APIURL returns the resolved API endpoint.
func (c *Client) APIURL() string { return c.apiURL }

// call issues a single method call and returns the arguments of its response.
// This client batches exactly one call per request with a fixed call id, so
// the first response entry is read and its method name verified.
func (c *Client) call(method string, args interface{}) (json.RawMessage, error) {
	payload, err := json.Marshal(Request{
		Using:       []string{CoreCapability, MailCapability},
		MethodCalls: []MethodCall{{Name: method, Arguments: args, CallID: "0"}},
	})
	if err != nil {
		return nil, &Error{Kind: KindParse, Message: "failed to encode request", Err: err}
	}

	req, err := http.NewRequest(http.MethodPost, c.apiURL, bytes.NewReader(payload))
	if err != nil {
		return nil, &Error{Kind: KindHTTP, Message: "invalid API URL", Err: err}
	}
	req.Header.Set("Authorization", basicAuth(c.username, c.password))
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, &Error{Kind: KindHTTP, Message: "connection failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, authError()
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return nil, statusError(resp.StatusCode, body)
	}

	var envelope Response
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, &Error{Kind: KindParse, Message: "failed to decode method responses", Err: err}
	}
	if len(envelope.MethodResponses) == 0 {
		return nil, apiErrorf("response contained no method responses")
	}

	first := envelope.MethodResponses[0]
	if first.Name == "error" {
		var me methodError
		_ = json.Unmarshal(first.Arguments, &me)
		return nil, apiErrorf("%s failed: %s %s", method, me.Type, me.Description)
	}
	if first.Name != method {
		return nil, apiErrorf("unexpected response %q to %s", first.Name, method)
	}
	return first.Arguments, nil
}

// GetMailboxes fetches all mailboxes visible to the account.
func (c *Client) GetMailboxes() ([]Mailbox, error) {
	raw, err := c.call(methodMailboxGet, mailboxGetArgs{AccountID: c.accountID})
	if err != nil {
		return nil, err
	}
	var result mailboxGetResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, &Error{Kind: KindParse, Message: "failed to decode Mailbox/get result", Err: err}
	}
	return result.List, nil
}

// QueryEmails returns up to limit email ids for a mailbox, newest first, in
// server-returned order.
func (c *Client) QueryEmails(mailboxID string, limit int) ([]string, error) {
	ids, _, err := c.QueryEmailsPage(mailboxID, limit, 0)
	return ids, err
}

// QueryEmailsPage is QueryEmails with an offset into the result set. It also
// returns the server's total match count so callers can decide whether more
// pages exist.
func (c *Client) QueryEmailsPage(mailboxID string, limit, position int) ([]string, int, error) {
	raw, err := c.call(methodEmailQuery, emailQueryArgs{
		AccountID:      c.accountID,
		Filter:         emailFilter{InMailbox: mailboxID},
		Sort:           []sortOrder{{Property: "receivedAt", IsAscending: false}},
		Position:       position,
		Limit:          limit,
		CalculateTotal: true,
	})
	if err != nil {
		return nil, 0, err
	}
	var result emailQueryResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, 0, &Error{Kind: KindParse, Message: "failed to decode Email/query result", Err: err}
	}
	return result.IDs, result.Total, nil
}

// GetEmails fetches the given emails with text bodies. An empty id list
// returns immediately without a network call. Ids the server does not return
// are logged as a diagnostic, not treated as an error; the fetched subset is
// returned as-is.
func (c *Client) GetEmails(ids []string) ([]Email, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	raw, err := c.call(methodEmailGet, emailGetArgs{
		AccountID:           c.accountID,
		IDs:                 ids,
		Properties:          emailProperties,
		FetchTextBodyValues: true,
	})
	if err != nil {
		return nil, err
	}
	var result emailGetResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, &Error{Kind: KindParse, Message: "failed to decode Email/get result", Err: err}
	}

	if len(result.List) != len(ids) {
		utils.Log.Warn("Email/get returned %d of %d requested emails; missing ids: %v",
			len(result.List), len(ids), missingIDs(ids, result.List))
	}
	return result.List, nil
}

// GetEmail fetches a single email, returning nil when the server does not
// know the id.
func (c *Client) GetEmail(id string) (*Email, error) {
	emails, err := c.GetEmails([]string{id})
	if err != nil {
		return nil, err
	}
	if len(emails) == 0 {
		return nil, nil
	}
	return &emails[0], nil
}

// GetEmailRaw returns the server's JSON object for one email without decoding
// it, for the raw-view debug route.
func (c *Client) GetEmailRaw(id string) (json.RawMessage, error) {
	raw, err := c.call(methodEmailGet, emailGetArgs{
		AccountID:           c.accountID,
		IDs:                 []string{id},
		Properties:          emailProperties,
		FetchTextBodyValues: true,
	})
	if err != nil {
		return nil, err
	}
	var result emailGetRawResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, &Error{Kind: KindParse, Message: "failed to decode Email/get result", Err: err}
	}
	if len(result.List) == 0 {
		return nil, nil
	}
	return result.List[0], nil
}

// missingIDs computes requested minus returned, preserving request order.
func missingIDs(requested []string, got []Email) []string {
	returned := make(map[string]struct{}, len(got))
	for _, e := range got {
		returned[e.ID] = struct{}{}
	}
	var missing []string
	for _, id := range requested {
		if _, ok := returned[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}
