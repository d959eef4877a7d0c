package jmap

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"sort"
	"strings"

	"jmapmail/utils"
)

// WellKnownPath is the autodiscovery path (RFC 8620 section 2.2).
const WellKnownPath = "/.well-known/jmap"

// maxRedirects bounds the discovery redirect loop.
const maxRedirects = 5

// httpClient never follows redirects on its own. Providers commonly redirect
// the well-known URL to another host of the same deployment and expect the
// same credentials there, while net/http drops the Authorization header on
// cross-origin redirects. The hops are followed manually instead, with the
// header re-applied each time. No timeout is configured; calls block on
// transport defaults.
var httpClient = &http.Client{
	CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	},
}

// basicAuth builds the Authorization header value.
func basicAuth(username, password string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(username+":"+password))
}

// Discover fetches the session document from the well-known URL, following up
// to maxRedirects hops, parses it and resolves the mail account. On success it
// returns the session descriptor and a client bound to the resolved account.
func Discover(wellKnownURL, username, password string) (*Session, *Client, error) {
	auth := basicAuth(username, password)

	body, err := fetchFollowingRedirects(wellKnownURL, auth)
	if err != nil {
		return nil, nil, err
	}

	var session Session
	if err := json.Unmarshal(body, &session); err != nil {
		return nil, nil, &Error{
			Kind:    KindParse,
			Message: "failed to parse session: " + err.Error() + ". Response was: " + truncate(string(body), 500),
			Err:     err,
		}
	}

	accountID, ok := session.MailAccountID()
	if !ok {
		return nil, nil, apiErrorf("no mail account found. primaryAccounts: [%s], accounts: [%s]",
			truncate(strings.Join(sortedKeys(session.PrimaryAccounts), ", "), 200),
			truncate(strings.Join(accountIDs(session.Accounts), ", "), 200))
	}

	client := &Client{
		username:  username,
		password:  password,
		apiURL:    session.APIURL,
		accountID: accountID,
	}
	utils.Log.Debug("Discovery resolved apiUrl=%s account=%s", session.APIURL, accountID)
	return &session, client, nil
}

// fetchFollowingRedirects issues authenticated GETs until a hop yields a body
// or fails. Each hop re-sends the same Authorization header.
func fetchFollowingRedirects(url, auth string) ([]byte, error) {
	current := url
	for hop := 0; hop < maxRedirects; hop++ {
		utils.Log.Debug("Discovery request %d to %s", hop+1, current)

		req, err := http.NewRequest(http.MethodGet, current, nil)
		if err != nil {
			return nil, &Error{Kind: KindHTTP, Message: "invalid discovery URL", Err: err}
		}
		req.Header.Set("Authorization", auth)

		resp, err := httpClient.Do(req)
		if err != nil {
			return nil, &Error{Kind: KindHTTP, Message: "connection failed", Err: err}
		}
		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return nil, &Error{Kind: KindHTTP, Message: "failed to read response", Err: readErr}
		}

		step := nextHop(current, resp.StatusCode, resp.Header.Get("Location"), body)
		switch step.action {
		case hopFollow:
			utils.Log.Debug("Following redirect %d -> %s", resp.StatusCode, step.next)
			current = step.next
		case hopSucceed:
			return step.body, nil
		default:
			return nil, step.err
		}
	}
	return nil, httpErrorf("too many redirects")
}

type hopAction int

const (
	hopFollow hopAction = iota
	hopSucceed
	hopFail
)

type hopResult struct {
	action hopAction
	next   string
	body   []byte
	err    error
}

// nextHop classifies one discovery response. Pure, so redirect handling can be
// tested without a network.
func nextHop(currentURL string, status int, location string, body []byte) hopResult {
	switch {
	case status >= 300 && status < 400:
		if location == "" {
			return hopResult{action: hopFail, err: httpErrorf("redirect %d without Location header", status)}
		}
		return hopResult{action: hopFollow, next: ResolveRedirect(currentURL, location)}
	case status == http.StatusUnauthorized:
		return hopResult{action: hopFail, err: authError()}
	case status >= 200 && status < 300:
		if len(body) == 0 {
			return hopResult{action: hopFail, err: httpErrorf("server returned empty response (status %d)", status)}
		}
		return hopResult{action: hopSucceed, body: body}
	default:
		return hopResult{action: hopFail, err: statusError(status, body)}
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func accountIDs(m map[string]Account) []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
