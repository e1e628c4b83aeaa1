package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"frienddump/pkg/config"
	"frienddump/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func storesUnderTest(t *testing.T) map[string]Store {
	t.Helper()
	keyring.MockInit()
	dir := t.TempDir()

	return map[string]Store{
		"file":      NewFileStore(filepath.Join(dir, "session.json")),
		"encrypted": NewEncryptedFileStore(filepath.Join(dir, "session.enc"), "correct horse"),
		"keyring":   NewKeyringStore(),
		"memory":    NewMemoryStore(),
	}
}

func TestStores(t *testing.T) {
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			s, err := store.Load()
			require.NoError(t, err)
			assert.False(t, s.Credentials().LoggedIn())

			require.NoError(t, SaveCredentials(store, models.Credentials{Token: "EAAtok", Cookie: "sb=1; c_user=2"}))
			require.NoError(t, SaveLoginCheck(store, []string{"7", "8"}))

			s, err = store.Load()
			require.NoError(t, err)
			assert.Equal(t, "EAAtok", s.Token)
			assert.Equal(t, "sb=1; c_user=2", s.Cookie)
			assert.Equal(t, []string{"7", "8"}, s.LoginCheck)

			require.NoError(t, SaveCredentials(store, models.Credentials{Token: "EAAnew", Cookie: "sb=3"}))
			s, err = store.Load()
			require.NoError(t, err)
			assert.Equal(t, "EAAnew", s.Token)
			assert.Equal(t, []string{"7", "8"}, s.LoginCheck, "login_check survives credential update")

			require.NoError(t, store.Clear())
			s, err = store.Load()
			require.NoError(t, err)
			assert.Empty(t, s.Token)
			assert.Empty(t, s.Cookie)

			require.NoError(t, store.Clear(), "clearing twice is fine")
		})
	}
}

func TestFileStoreFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	store := NewFileStore(path)

	require.NoError(t, store.Save(&Session{Token: "t", Cookie: "c", LoginCheck: []string{"1"}}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "t", raw["token"])
	assert.Equal(t, "c", raw["cookie"])
	assert.Equal(t, []interface{}{"1"}, raw["login_check"])

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestFileStoreCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	_, err := NewFileStore(path).Load()
	assert.Error(t, err)

	assert.Error(t, Update(NewFileStore(path), func(*Session) {}))
}

func TestEncryptedFileStoreHidesPlaintext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.enc")
	store := NewEncryptedFileStore(path, "pass")
	require.NoError(t, store.Save(&Session{Token: "EAAsecret", Cookie: "c_user=42"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.False(t, strings.Contains(string(data), "EAAsecret"))

	_, err = NewEncryptedFileStore(path, "wrong").Load()
	assert.Error(t, err)
}

func TestPassphrase(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(PassphraseEnv, "")

	first, err := Passphrase(dir)
	require.NoError(t, err)
	assert.NotEmpty(t, first)

	second, err := Passphrase(dir)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	t.Setenv(PassphraseEnv, "from-env")
	got, err := Passphrase(dir)
	require.NoError(t, err)
	assert.Equal(t, "from-env", got)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(PassphraseEnv, "x")

	store, err := Open(config.SessionConfig{Backend: config.BackendFile, File: filepath.Join(dir, "s.json")})
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, store)

	store, err = Open(config.SessionConfig{Backend: config.BackendEncrypted, File: filepath.Join(dir, "s.enc")})
	require.NoError(t, err)
	assert.IsType(t, &EncryptedFileStore{}, store)

	store, err = Open(config.SessionConfig{Backend: config.BackendKeyring})
	require.NoError(t, err)
	assert.IsType(t, &KeyringStore{}, store)

	store, err = Open(config.SessionConfig{Backend: config.BackendMemory})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)

	_, err = Open(config.SessionConfig{Backend: "s3"})
	assert.ErrorIs(t, err, ErrUnknownBackend)
}

func TestMemoryStoreCountsSaves(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, SaveCredentials(store, models.Credentials{Token: "t", Cookie: "c"}))
	assert.Equal(t, 1, store.Saves())
}
