// Package session persists the login state (token, cookie and the friend
// ids of the last successful validation) between runs.
//
// Four backends implement Store: a plain JSON file, an AES-GCM encrypted
// file, the system keyring and process memory. Writers always go through
// Update so a partial change never drops the other fields.
package session
