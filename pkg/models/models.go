package models

import (
	"strings"
)

// UnknownName is used for friends whose record carries no name
const UnknownName = "Unknown"

// Credentials is an authenticated session: a bearer token plus the cookie it was derived from
type Credentials struct {
	Token  string `json:"token"`
	Cookie string `json:"cookie"`
}

// LoggedIn reports whether both token and cookie are present
func (c Credentials) LoggedIn() bool {
	return c.Token != "" && c.Cookie != ""
}

// Clear empties both fields
func (c *Credentials) Clear() {
	c.Token = ""
	c.Cookie = ""
}

// FriendEdge is one (owner, friend) pair observed in a friends response
type FriendEdge struct {
	OwnerID    string
	FriendID   string
	FriendName string
}

// Line renders the edge as an output line, "<id>|<name>"
func (e FriendEdge) Line() string {
	name := e.FriendName
	if name == "" {
		name = UnknownName
	}
	return e.FriendID + "|" + name
}

// ParseIdentifier normalises a seed line. Surrounding whitespace is
// trimmed and anything after the first '|' is dropped, so previously
// dumped "id|name" lines can be fed back in as seeds.
func ParseIdentifier(line string) string {
	line = strings.TrimSpace(line)
	if i := strings.IndexByte(line, '|'); i >= 0 {
		line = strings.TrimSpace(line[:i])
	}
	return line
}

// ParseIdentifiers applies ParseIdentifier to every line and drops blanks
func ParseIdentifiers(lines []string) []string {
	ids := make([]string, 0, len(lines))
	for _, line := range lines {
		if id := ParseIdentifier(line); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// CookieValue returns the value of the named field in a Cookie header string
func CookieValue(cookie, name string) (string, bool) {
	for _, part := range strings.Split(cookie, ";") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if ok && strings.TrimSpace(k) == name {
			return strings.TrimSpace(v), true
		}
	}
	return "", false
}

// Mask hides all but the first and last four characters of a secret
func Mask(secret string) string {
	if secret == "" {
		return "(none)"
	}
	if len(secret) <= 8 {
		return strings.Repeat("*", len(secret))
	}
	return secret[:4] + strings.Repeat("*", len(secret)-8) + secret[len(secret)-4:]
}
