package auth

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"frienddump/pkg/config"
	errs "frienddump/pkg/errors"
	"frienddump/pkg/graphapi"
	"frienddump/pkg/logger"
	"frienddump/pkg/models"
	"frienddump/pkg/retry"
	"frienddump/pkg/session"
)

// Authenticator turns a cookie or an identifier/secret pair into stored credentials
type Authenticator struct {
	client        *graphapi.Client
	store         session.Store
	maxAttempts   int
	proxyMarker   []byte
	profilePrefix string
	logger        logger.Logger

	// newSB produces the value of a synthesized sb cookie field
	newSB func() string
}

// New creates an Authenticator
func New(client *graphapi.Client, store session.Store, cfg *config.Config, log logger.Logger) *Authenticator {
	return &Authenticator{
		client:        client,
		store:         store,
		maxAttempts:   cfg.Auth.MaxLoginRetries,
		proxyMarker:   []byte(cfg.Auth.ProxyErrorMarker),
		profilePrefix: cfg.API.ProfileURLPrefix,
		logger:        logger.OrGlobal(log).WithField("component", "auth"),
		newSB:         fixedSB(cfg.Auth.SyntheticSB),
	}
}

// fixedSB returns a generator yielding value on every login
func fixedSB(value string) func() string {
	if value == "" {
		value = config.DefaultSyntheticSB
	}
	return func() string { return value }
}

// Current returns the stored credentials
func (a *Authenticator) Current() (models.Credentials, error) {
	s, err := a.store.Load()
	if err != nil {
		return models.Credentials{}, err
	}
	return s.Credentials(), nil
}

// EnsureSB prefixes the cookie with a synthesized sb field when it has none
func (a *Authenticator) EnsureSB(cookie string) string {
	if v, ok := models.CookieValue(cookie, "sb"); ok && v != "" {
		return cookie
	}
	return "sb=" + a.newSB() + ";" + cookie
}

// LoginWithCookie derives a token from cookie and stores both on success
func (a *Authenticator) LoginWithCookie(ctx context.Context, cookie string) (models.Credentials, error) {
	cookie = strings.TrimSpace(cookie)
	if cookie == "" {
		return models.Credentials{}, &errs.AuthError{Status: errs.StatusError, Message: "cookie is empty"}
	}
	cookie = a.EnsureSB(cookie)

	token, oauthErr := a.client.TokenFromOAuthStatus(ctx, cookie)
	if oauthErr != nil {
		a.logger.WithError(oauthErr).Debug("OAuth status probe yielded no token, trying token api")

		var apiErr error
		token, apiErr = a.client.TokenFromCookieAPI(ctx, cookie)
		if apiErr != nil {
			a.logger.WithError(apiErr).Debug("Token api yielded no token")

			status := errs.StatusTokenFailed
			if errs.StatusOf(oauthErr) == errs.StatusNotConfigured && errs.StatusOf(apiErr) == errs.StatusNotConfigured {
				status = errs.StatusNotConfigured
			}
			return models.Credentials{}, &errs.AuthError{Status: status, Err: errors.Join(oauthErr, apiErr)}
		}
	}

	creds := models.Credentials{Token: token, Cookie: cookie}
	if err := session.SaveCredentials(a.store, creds); err != nil {
		return models.Credentials{}, &errs.AuthError{Status: errs.StatusError, Message: err.Error(), Err: err}
	}

	a.logger.InfoWithFields("Logged in with cookie", map[string]interface{}{
		"token": models.Mask(token),
	})
	return creds, nil
}

// transientLoginError marks an attempt that may be retried
type transientLoginError struct {
	reason string
	err    error
}

func (e *transientLoginError) Error() string { return e.reason }
func (e *transientLoginError) Unwrap() error { return e.err }

func isTransientLogin(err error) bool {
	var t *transientLoginError
	return errors.As(err, &t)
}

// LoginWithCredentials logs in through the login service, retrying proxy
// failures and timeouts up to the configured attempt limit, then derives a
// token from the returned cookie.
func (a *Authenticator) LoginWithCredentials(ctx context.Context, identifier, secret string) (models.Credentials, error) {
	reply, err := retry.DoWithResult(func(attempt int) (*graphapi.LoginResponse, error) {
		if err := ctx.Err(); err != nil {
			return nil, &errs.AuthError{Status: errs.StatusError, Message: err.Error(), Err: err}
		}

		resp, err := a.client.Login(ctx, identifier, secret)
		if err != nil {
			if errs.StatusOf(err) != "" {
				return nil, err
			}
			if errs.IsTimeout(err) && ctx.Err() == nil {
				logger.LogLoginAttempt(a.logger, attempt, a.maxAttempts, true)
				return nil, &transientLoginError{reason: "login request timed out", err: err}
			}
			return nil, &errs.AuthError{Status: errs.StatusError, Message: err.Error(), Err: err}
		}

		if len(a.proxyMarker) > 0 && bytes.Contains(resp.Body, a.proxyMarker) {
			logger.LogLoginAttempt(a.logger, attempt, a.maxAttempts, true)
			return nil, &transientLoginError{reason: "login service proxy error"}
		}

		logger.LogLoginAttempt(a.logger, attempt, a.maxAttempts, false)
		var body graphapi.LoginResponse
		if err := resp.Decode(&body); err != nil {
			return nil, &errs.AuthError{Status: errs.StatusError, Message: err.Error(), Err: err}
		}
		return &body, nil
	}, &retry.Config{
		MaxAttempts: a.maxAttempts,
		Backoff:     retry.ConstantBackoff{},
		RetryIf:     isTransientLogin,
		Context:     ctx,
		Logger:      a.logger,
	})

	switch {
	case errors.Is(err, retry.ErrMaxAttempts):
		return models.Credentials{}, &errs.AuthError{Status: errs.StatusMaxRetries, Err: err}
	case err != nil && errs.StatusOf(err) != "":
		return models.Credentials{}, err
	case err != nil:
		return models.Credentials{}, &errs.AuthError{Status: errs.StatusError, Message: err.Error(), Err: err}
	}

	if reply.Succeeded() {
		return a.LoginWithCookie(ctx, reply.Data.Cookies)
	}
	return models.Credentials{}, classifyLoginFailure(reply.MessageText())
}

// classifyLoginFailure maps the login service's message onto an AuthError
func classifyLoginFailure(message string) *errs.AuthError {
	lower := strings.ToLower(message)

	switch {
	case strings.Contains(lower, "checkpoint"), strings.Contains(lower, "two-factor"):
		return errs.NewAuthError(errs.StatusCheckpoint, "")
	case strings.Contains(lower, "invalid"), strings.Contains(lower, "incorrect"), strings.Contains(lower, "wrong"):
		return errs.NewAuthError(errs.StatusInvalidCredentials, "")
	case message == "":
		return errs.NewAuthError(errs.StatusRemote, errs.LoginFailedMessage)
	default:
		return errs.NewAuthError(errs.StatusRemote, message)
	}
}

// Logout clears the stored session
func (a *Authenticator) Logout() error {
	if err := a.store.Clear(); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	a.logger.Info("Session cleared")
	return nil
}
