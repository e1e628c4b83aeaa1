package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"frienddump/pkg/config"
	"frienddump/pkg/models"
)

// ErrUnknownBackend is returned by Open for an unrecognised backend name
var ErrUnknownBackend = errors.New("unknown session backend")

// Session is the persisted login state
type Session struct {
	Token      string   `json:"token"`
	Cookie     string   `json:"cookie"`
	LoginCheck []string `json:"login_check"`
}

// Credentials returns the token/cookie pair of the session
func (s *Session) Credentials() models.Credentials {
	if s == nil {
		return models.Credentials{}
	}
	return models.Credentials{Token: s.Token, Cookie: s.Cookie}
}

// Store persists a single Session record
type Store interface {
	// Load returns the stored session, or an empty one when nothing is stored
	Load() (*Session, error)
	// Save replaces the stored session
	Save(s *Session) error
	// Clear removes the stored session
	Clear() error
}

// Update loads the session, applies fn and saves the result
func Update(store Store, fn func(s *Session)) error {
	s, err := store.Load()
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	fn(s)
	if err := store.Save(s); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// SaveCredentials records token and cookie, keeping other fields
func SaveCredentials(store Store, creds models.Credentials) error {
	return Update(store, func(s *Session) {
		s.Token = creds.Token
		s.Cookie = creds.Cookie
	})
}

// SaveLoginCheck records the friend ids seen by the last successful validation
func SaveLoginCheck(store Store, ids []string) error {
	return Update(store, func(s *Session) {
		s.LoginCheck = append([]string(nil), ids...)
	})
}

// DefaultDir returns the per-user directory holding session files
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".frienddump"), nil
}

// Open builds the Store selected by cfg.Backend
func Open(cfg config.SessionConfig) (Store, error) {
	path := cfg.File
	if path == "" && (cfg.Backend == config.BackendFile || cfg.Backend == config.BackendEncrypted || cfg.Backend == "") {
		dir, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		name := "session.json"
		if cfg.Backend == config.BackendEncrypted {
			name = "session.enc"
		}
		path = filepath.Join(dir, name)
	}

	switch cfg.Backend {
	case config.BackendFile, "":
		return NewFileStore(path), nil
	case config.BackendEncrypted:
		passphrase, err := Passphrase(filepath.Dir(path))
		if err != nil {
			return nil, err
		}
		return NewEncryptedFileStore(path, passphrase), nil
	case config.BackendKeyring:
		return NewKeyringStore(), nil
	case config.BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}
