package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"frienddump/pkg/config"
	errs "frienddump/pkg/errors"
	"frienddump/pkg/graphapi"
	"frienddump/pkg/logger"
	"frienddump/pkg/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAuthService serves the oauth status, token, login and uid endpoints
type fakeAuthService struct {
	mu           sync.Mutex
	oauthCookies []string
	oauthToken   string
	apiToken     string
	loginReplies []string
	loginCalls   int32
	uidCalls     int32
}

func (f *fakeAuthService) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/status", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.oauthCookies = append(f.oauthCookies, r.Header.Get("Cookie"))
		f.mu.Unlock()
		if f.oauthToken != "" {
			w.Header().Set("X-Auth-Data", fmt.Sprintf(`{"access_token":"%s"}`, f.oauthToken))
		}
		w.Write([]byte(`{}`))
	})
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		if f.apiToken == "" {
			w.Write([]byte(`{"status":"failed"}`))
			return
		}
		fmt.Fprintf(w, `{"status":"success","data":{"access_token":"%s"}}`, f.apiToken)
	})
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		n := int(atomic.AddInt32(&f.loginCalls, 1))
		var payload map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, true, payload["convert_all"])

		reply := f.loginReplies[len(f.loginReplies)-1]
		if n <= len(f.loginReplies) {
			reply = f.loginReplies[n-1]
		}
		w.Write([]byte(reply))
	})
	mux.HandleFunc("/uid", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&f.uidCalls, 1)
		var payload map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		url := payload["url"].(string)
		fmt.Fprintf(w, `{"status":"success","data":{"user_id":"%d"}}`, len(url))
	})
	return mux
}

func testConfig(baseURL string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.API.GraphBaseURL = baseURL
	cfg.API.OAuthStatusURL = baseURL + "/oauth/status"
	cfg.API.TokenAPIURL = baseURL + "/token"
	cfg.API.LoginAPIURL = baseURL + "/login"
	cfg.API.UIDAPIURL = baseURL + "/uid"
	return cfg
}

func newTestAuthenticator(t *testing.T, f *fakeAuthService) (*Authenticator, *session.MemoryStore) {
	t.Helper()
	server := httptest.NewServer(f.handler(t))
	t.Cleanup(server.Close)

	cfg := testConfig(server.URL)
	store := session.NewMemoryStore()
	a := New(graphapi.NewClient(cfg, logger.NewTestLogger()), store, cfg, logger.NewTestLogger())
	a.newSB = func() string { return "SYNTH" }
	return a, store
}

func TestLoginWithCookieSynthesizesSB(t *testing.T) {
	f := &fakeAuthService{oauthToken: "EAAoauth"}
	a, store := newTestAuthenticator(t, f)

	creds, err := a.LoginWithCookie(context.Background(), "c_user=1; xs=2")
	require.NoError(t, err)
	assert.Equal(t, "EAAoauth", creds.Token)
	assert.Equal(t, "sb=SYNTH;c_user=1; xs=2", creds.Cookie)

	require.Len(t, f.oauthCookies, 1)
	assert.True(t, strings.HasPrefix(f.oauthCookies[0], "sb=SYNTH;"))

	s, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "EAAoauth", s.Token)
	assert.Equal(t, creds.Cookie, s.Cookie)
}

func TestLoginWithCookieUsesStableSB(t *testing.T) {
	f := &fakeAuthService{oauthToken: "EAAoauth"}
	server := httptest.NewServer(f.handler(t))
	defer server.Close()

	tests := []struct {
		name       string
		configured string
		want       string
	}{
		{"default", "", config.DefaultSyntheticSB},
		{"configured", "fixed-sb", "fixed-sb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(server.URL)
			cfg.Auth.SyntheticSB = tt.configured
			a := New(graphapi.NewClient(cfg, logger.NewTestLogger()), session.NewMemoryStore(), cfg, logger.NewTestLogger())

			first, err := a.LoginWithCookie(context.Background(), "c_user=1; xs=2")
			require.NoError(t, err)
			second, err := a.LoginWithCookie(context.Background(), "c_user=1; xs=2")
			require.NoError(t, err)

			assert.Equal(t, "sb="+tt.want+";c_user=1; xs=2", first.Cookie)
			assert.Equal(t, first.Cookie, second.Cookie)
		})
	}
}

func TestLoginWithCookieKeepsExistingSB(t *testing.T) {
	f := &fakeAuthService{oauthToken: "EAAoauth"}
	a, _ := newTestAuthenticator(t, f)

	creds, err := a.LoginWithCookie(context.Background(), "  sb=abc; c_user=1 ")
	require.NoError(t, err)
	assert.Equal(t, "sb=abc; c_user=1", creds.Cookie)
}

func TestLoginWithCookieFallsBackToTokenAPI(t *testing.T) {
	f := &fakeAuthService{apiToken: "EAAapi"}
	a, store := newTestAuthenticator(t, f)

	creds, err := a.LoginWithCookie(context.Background(), "sb=abc; c_user=1")
	require.NoError(t, err)
	assert.Equal(t, "EAAapi", creds.Token)
	assert.Len(t, f.oauthCookies, 1)
	assert.Equal(t, 1, store.Saves())
}

func TestLoginWithCookieTokenFailed(t *testing.T) {
	f := &fakeAuthService{}
	a, store := newTestAuthenticator(t, f)

	_, err := a.LoginWithCookie(context.Background(), "sb=abc; c_user=1")
	require.Error(t, err)
	assert.Equal(t, errs.StatusTokenFailed, errs.StatusOf(err))
	assert.Equal(t, 0, store.Saves())
}

func TestLoginWithCookieNotConfigured(t *testing.T) {
	cfg := config.DefaultConfig()
	store := session.NewMemoryStore()
	a := New(graphapi.NewClient(cfg, logger.NewTestLogger()), store, cfg, logger.NewTestLogger())

	_, err := a.LoginWithCookie(context.Background(), "sb=abc")
	assert.Equal(t, errs.StatusNotConfigured, errs.StatusOf(err))
}

func TestLoginWithCookieEmpty(t *testing.T) {
	a, _ := newTestAuthenticator(t, &fakeAuthService{})

	_, err := a.LoginWithCookie(context.Background(), "   ")
	assert.Equal(t, errs.StatusError, errs.StatusOf(err))
}

func TestLoginWithCredentialsRetryCeiling(t *testing.T) {
	f := &fakeAuthService{loginReplies: []string{`upstream failed: SOCKSHTTPSConnectionPool(host='x', port=443)`}}
	a, store := newTestAuthenticator(t, f)

	_, err := a.LoginWithCredentials(context.Background(), "user@example.test", "pw")
	require.Error(t, err)
	assert.Equal(t, errs.StatusMaxRetries, errs.StatusOf(err))
	assert.Equal(t, int32(10), atomic.LoadInt32(&f.loginCalls))
	assert.Equal(t, 0, store.Saves())
}

func TestLoginWithCredentialsRecoversFromProxyErrors(t *testing.T) {
	f := &fakeAuthService{
		oauthToken: "EAAoauth",
		loginReplies: []string{
			`SOCKSHTTPSConnectionPool`,
			`SOCKSHTTPSConnectionPool`,
			`{"status":"success","data":{"cookies":"c_user=1; xs=2"}}`,
		},
	}
	a, store := newTestAuthenticator(t, f)

	creds, err := a.LoginWithCredentials(context.Background(), "user", "pw")
	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&f.loginCalls))
	assert.Equal(t, "EAAoauth", creds.Token)
	assert.Equal(t, "sb=SYNTH;c_user=1; xs=2", creds.Cookie)

	s, err := store.Load()
	require.NoError(t, err)
	assert.True(t, s.Credentials().LoggedIn())
}

func TestLoginWithCredentialsClassification(t *testing.T) {
	tests := []struct {
		name    string
		reply   string
		status  errs.AuthStatus
		message string
	}{
		{"invalid", `{"status":"error","message":"Invalid username or password"}`, errs.StatusInvalidCredentials, ""},
		{"wrong", `{"status":"error","message":"The password you entered is WRONG"}`, errs.StatusInvalidCredentials, ""},
		{"checkpoint", `{"status":"error","message":"Checkpoint required"}`, errs.StatusCheckpoint, ""},
		{"two-factor", `{"status":"error","message":"Two-Factor authentication needed"}`, errs.StatusCheckpoint, ""},
		{"other", `{"status":"error","message":"Account disabled"}`, errs.StatusRemote, "Account disabled"},
		{"empty", `{"status":"error"}`, errs.StatusRemote, errs.LoginFailedMessage},
		{"success without cookies", `{"status":"success","data":{}}`, errs.StatusRemote, errs.LoginFailedMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeAuthService{loginReplies: []string{tt.reply}}
			a, store := newTestAuthenticator(t, f)

			_, err := a.LoginWithCredentials(context.Background(), "user", "pw")
			require.Error(t, err)
			assert.Equal(t, tt.status, errs.StatusOf(err))
			if tt.message != "" {
				assert.Equal(t, tt.message, err.Error())
			}
			assert.Equal(t, int32(1), atomic.LoadInt32(&f.loginCalls), "terminal outcomes are never retried")
			assert.Equal(t, 0, store.Saves())
		})
	}
}

func TestLoginWithCredentialsUndecodable(t *testing.T) {
	f := &fakeAuthService{loginReplies: []string{`<html>gateway</html>`}}
	a, _ := newTestAuthenticator(t, f)

	_, err := a.LoginWithCredentials(context.Background(), "user", "pw")
	assert.Equal(t, errs.StatusError, errs.StatusOf(err))
	assert.True(t, strings.HasPrefix(err.Error(), "ERROR: "))
	assert.Equal(t, int32(1), atomic.LoadInt32(&f.loginCalls))
}

// mockRoundTripper intercepts HTTP requests
type mockRoundTripper struct {
	handler func(req *http.Request) (*http.Response, error)
}

func (m *mockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	return m.handler(req)
}

func newMockAuthenticator(handler func(req *http.Request) (*http.Response, error)) *Authenticator {
	cfg := testConfig("https://auth.test")
	client := graphapi.NewClient(cfg, logger.NewTestLogger(),
		graphapi.WithHTTPClient(&http.Client{Transport: &mockRoundTripper{handler: handler}}))
	return New(client, session.NewMemoryStore(), cfg, logger.NewTestLogger())
}

func TestLoginWithCredentialsTimeoutsAreRetried(t *testing.T) {
	var calls int32
	a := newMockAuthenticator(func(req *http.Request) (*http.Response, error) {
		atomic.AddInt32(&calls, 1)
		return nil, context.DeadlineExceeded
	})

	_, err := a.LoginWithCredentials(context.Background(), "user", "pw")
	assert.Equal(t, errs.StatusMaxRetries, errs.StatusOf(err))
	assert.Equal(t, int32(10), calls)
}

func TestLoginWithCredentialsConnectionErrorIsTerminal(t *testing.T) {
	var calls int32
	a := newMockAuthenticator(func(req *http.Request) (*http.Response, error) {
		atomic.AddInt32(&calls, 1)
		return nil, io.ErrUnexpectedEOF
	})

	_, err := a.LoginWithCredentials(context.Background(), "user", "pw")
	assert.Equal(t, errs.StatusError, errs.StatusOf(err))
	assert.Equal(t, int32(1), calls)
}

func TestLoginWithCredentialsCancelled(t *testing.T) {
	var calls int32
	a := newMockAuthenticator(func(req *http.Request) (*http.Response, error) {
		atomic.AddInt32(&calls, 1)
		return nil, context.DeadlineExceeded
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := a.LoginWithCredentials(ctx, "user", "pw")
	assert.Equal(t, errs.StatusError, errs.StatusOf(err))
	assert.Equal(t, int32(0), calls)
}

func TestResolveUID(t *testing.T) {
	f := &fakeAuthService{}
	a, _ := newTestAuthenticator(t, f)

	_, err := a.ResolveUID(context.Background(), "https://example.test/someone")
	assert.ErrorIs(t, err, ErrNotProfileURL)
	assert.Equal(t, int32(0), atomic.LoadInt32(&f.uidCalls))

	uid, err := a.ResolveUID(context.Background(), "https://www.facebook.com/abc")
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprint(len("https://www.facebook.com/abc")), uid)
}

func TestResolveUIDsPreservesOrder(t *testing.T) {
	f := &fakeAuthService{}
	a, _ := newTestAuthenticator(t, f)

	urls := []string{
		"https://www.facebook.com/a",
		"ftp://nope",
		"https://www.facebook.com/abcdef",
		"https://www.facebook.com/abc",
		"https://www.facebook.com/ab",
		"https://www.facebook.com/abcde",
	}
	results := a.ResolveUIDs(context.Background(), urls)
	require.Len(t, results, len(urls))

	for i, r := range results {
		assert.Equal(t, urls[i], r.URL)
		if i == 1 {
			assert.ErrorIs(t, r.Err, ErrNotProfileURL)
			continue
		}
		require.NoError(t, r.Err)
		assert.Equal(t, fmt.Sprint(len(urls[i])), r.UID)
	}
	assert.Equal(t, int32(5), atomic.LoadInt32(&f.uidCalls))
}

func TestLogoutAndCurrent(t *testing.T) {
	f := &fakeAuthService{oauthToken: "EAAoauth"}
	a, _ := newTestAuthenticator(t, f)

	_, err := a.LoginWithCookie(context.Background(), "sb=1; c_user=2")
	require.NoError(t, err)

	creds, err := a.Current()
	require.NoError(t, err)
	assert.True(t, creds.LoggedIn())

	require.NoError(t, a.Logout())
	creds, err = a.Current()
	require.NoError(t, err)
	assert.False(t, creds.LoggedIn())
}
