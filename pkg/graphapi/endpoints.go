package graphapi

import (
	"net/url"
	"sort"
	"strings"

	"frienddump/pkg/config"
)

// FriendsURL builds the friends-list URL for id
func FriendsURL(baseURL, id, token string) string {
	params := url.Values{}
	params.Set("access_token", token)
	params.Set("fields", "friends")
	return strings.TrimRight(baseURL, "/") + "/" + url.PathEscape(id) + "?" + params.Encode()
}

// OAuthStatusURL builds the OAuth status probe URL, or "" when no probe is configured
func OAuthStatusURL(api config.APIConfig) string {
	if api.OAuthStatusURL == "" {
		return ""
	}

	params := url.Values{}
	params.Set("client_id", api.OAuthClientID)
	params.Set("wants_cookie_data", "true")
	params.Set("origin", "1")
	params.Set("input_token", "")
	params.Set("sdk", "joey")
	params.Set("redirect_uri", api.OAuthRedirectURI)

	sep := "?"
	if strings.Contains(api.OAuthStatusURL, "?") {
		sep = "&"
	}
	return api.OAuthStatusURL + sep + params.Encode()
}

// HeaderText serialises headers one "Key: value" per line with sorted keys
func HeaderText(h map[string][]string) string {
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		for _, v := range h[k] {
			b.WriteString(k)
			b.WriteString(": ")
			b.WriteString(v)
			b.WriteByte('\n')
		}
	}
	return b.String()
}
