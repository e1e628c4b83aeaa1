package graphapi

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	errs "frienddump/pkg/errors"
	"frienddump/pkg/models"
)

var accessTokenPattern = regexp.MustCompile(`"access_token":"([^"]+)"`)

// FriendsPage is a friends-list fetch: the raw response and its decoded body
type FriendsPage struct {
	Response *Response
	Body     *FriendsResponse
}

// FetchFriends fetches the friends list of id. The body is decoded
// whatever the status code; a body that is not JSON yields a parsing error.
func (c *Client) FetchFriends(ctx context.Context, id string, creds models.Credentials) (*FriendsPage, error) {
	resp, err := c.Get(ctx, FriendsURL(c.endpoints.GraphBaseURL, id, creds.Token), creds.Cookie)
	if err != nil {
		return nil, err
	}

	var body FriendsResponse
	if err := resp.Decode(&body); err != nil {
		return nil, err
	}
	return &FriendsPage{Response: resp, Body: &body}, nil
}

// TokenFromOAuthStatus probes the OAuth status endpoint with cookie and
// extracts an access token from the serialised response headers.
func (c *Client) TokenFromOAuthStatus(ctx context.Context, cookie string) (string, error) {
	probeURL := OAuthStatusURL(c.endpoints)
	if probeURL == "" {
		return "", errs.NewAuthError(errs.StatusNotConfigured, "oauth status url is not configured")
	}

	resp, err := c.Get(ctx, probeURL, cookie)
	if err != nil {
		return "", err
	}

	headers := HeaderText(resp.Header)
	if !strings.Contains(headers, `"access_token":`) {
		return "", &errs.Error{Type: errs.ErrorTypeAuth, Message: "no access token in oauth status headers", Code: resp.StatusCode}
	}
	m := accessTokenPattern.FindStringSubmatch(headers)
	if m == nil {
		return "", &errs.Error{Type: errs.ErrorTypeAuth, Message: "malformed access token in oauth status headers", Code: resp.StatusCode}
	}
	return m[1], nil
}

// TokenFromCookieAPI exchanges cookie for a token at the token-resolution service
func (c *Client) TokenFromCookieAPI(ctx context.Context, cookie string) (string, error) {
	if c.endpoints.TokenAPIURL == "" {
		return "", errs.NewAuthError(errs.StatusNotConfigured, "token api url is not configured")
	}

	resp, err := c.PostJSON(ctx, c.endpoints.TokenAPIURL, tokenRequest{Cookies: cookie})
	if err != nil {
		return "", err
	}

	var body tokenResponse
	if err := resp.Decode(&body); err != nil {
		return "", err
	}
	if body.Status != "success" || body.Data.AccessToken == "" {
		return "", &errs.Error{Type: errs.ErrorTypeAuth, Message: fmt.Sprintf("token api returned status %q", body.Status), Code: resp.StatusCode}
	}
	return body.Data.AccessToken, nil
}

// Login posts credentials to the login service and returns the raw reply
func (c *Client) Login(ctx context.Context, identifier, secret string) (*Response, error) {
	if c.endpoints.LoginAPIURL == "" {
		return nil, errs.NewAuthError(errs.StatusNotConfigured, "login api url is not configured")
	}
	return c.PostJSON(ctx, c.endpoints.LoginAPIURL, LoginRequest{
		Email:      identifier,
		Password:   secret,
		ConvertAll: true,
	})
}

// ResolveUID asks the UID-resolution service for the numeric id behind a profile URL
func (c *Client) ResolveUID(ctx context.Context, profileURL string) (string, error) {
	if c.endpoints.UIDAPIURL == "" {
		return "", errs.NewAuthError(errs.StatusNotConfigured, "uid api url is not configured")
	}

	resp, err := c.PostJSON(ctx, c.endpoints.UIDAPIURL, uidRequest{URL: profileURL})
	if err != nil {
		return "", err
	}

	var body uidResponse
	if err := resp.Decode(&body); err != nil {
		return "", err
	}
	if body.Status != "success" || body.Data.UserID == "" {
		return "", &errs.Error{Type: errs.ErrorTypeNotFound, Message: "uid not resolved for " + profileURL, Code: resp.StatusCode}
	}
	return string(body.Data.UserID), nil
}
