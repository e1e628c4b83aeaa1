package graphapi

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ID accepts both JSON strings and numbers
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

// Friend is one record of a friends list
type Friend struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
}

// FriendList is the "friends" member of a node
type FriendList struct {
	Data []Friend `json:"data"`
}

// UnmarshalJSON decodes each record on its own; records that do not
// decode are left out so the rest of the page survives.
func (l *FriendList) UnmarshalJSON(data []byte) error {
	var raw struct {
		Data []json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	l.Data = make([]Friend, 0, len(raw.Data))
	for _, rec := range raw.Data {
		var f Friend
		if err := json.Unmarshal(rec, &f); err != nil {
			continue
		}
		l.Data = append(l.Data, f)
	}
	return nil
}

// FriendsResponse is the body of a friends-list fetch
type FriendsResponse struct {
	ID      ID              `json:"id"`
	Friends *FriendList     `json:"friends"`
	Error   json.RawMessage `json:"error"`
}

// HasError reports whether the body carried an "error" member
func (r *FriendsResponse) HasError() bool {
	return len(r.Error) > 0
}

// FriendRecords returns the friend records, or nil when absent
func (r *FriendsResponse) FriendRecords() []Friend {
	if r == nil || r.Friends == nil {
		return nil
	}
	return r.Friends.Data
}

type tokenRequest struct {
	Cookies string `json:"cookies"`
}

type tokenResponse struct {
	Status string `json:"status"`
	Data   struct {
		AccessToken string `json:"access_token"`
	} `json:"data"`
}

// LoginRequest is the credential login payload
type LoginRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	ConvertAll bool   `json:"convert_all"`
}

// LoginResponse is the credential login reply
type LoginResponse struct {
	Status  string      `json:"status"`
	Message interface{} `json:"message"`
	Data    struct {
		Cookies string `json:"cookies"`
	} `json:"data"`
}

// MessageText returns the message member as text, "" when absent
func (r *LoginResponse) MessageText() string {
	switch m := r.Message.(type) {
	case nil:
		return ""
	case string:
		return m
	default:
		return fmt.Sprint(m)
	}
}

// Succeeded reports a success status carrying cookies
func (r *LoginResponse) Succeeded() bool {
	return r.Status == "success" && r.Data.Cookies != ""
}

type uidRequest struct {
	URL                string `json:"url"`
	ShowAllSocialLinks bool   `json:"show_all_social_links"`
}

type uidResponse struct {
	Status string `json:"status"`
	Data   struct {
		UserID ID `json:"user_id"`
	} `json:"data"`
}
