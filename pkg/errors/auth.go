package errors

import (
	stderrors "errors"
	"fmt"
)

// AuthStatus classifies a failed authentication
type AuthStatus string

const (
	StatusCheckpoint         AuthStatus = "CHECKPOINT"
	StatusInvalidCredentials AuthStatus = "INVALID_CREDENTIALS"
	StatusTokenFailed        AuthStatus = "TOKEN_FAILED"
	StatusMaxRetries         AuthStatus = "MAX_RETRIES_EXCEEDED"
	// StatusRemote carries the remote service's message verbatim
	StatusRemote        AuthStatus = "REMOTE"
	StatusError         AuthStatus = "ERROR"
	StatusNotConfigured AuthStatus = "NOT_CONFIGURED"
)

// LoginFailedMessage is used when the remote reports failure without a message
const LoginFailedMessage = "LOGIN_FAILED"

// AuthError is returned by the authenticator for every failed login
type AuthError struct {
	Status  AuthStatus
	Message string
	Err     error
}

func NewAuthError(status AuthStatus, message string) *AuthError {
	return &AuthError{Status: status, Message: message}
}

func (e *AuthError) Error() string {
	switch e.Status {
	case StatusRemote:
		return e.Message
	case StatusError:
		return "ERROR: " + e.Message
	}
	if e.Message == "" {
		return string(e.Status)
	}
	return fmt.Sprintf("%s: %s", e.Status, e.Message)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// StatusOf extracts the AuthStatus from err, or "" when err is not an AuthError
func StatusOf(err error) AuthStatus {
	var ae *AuthError
	if stderrors.As(err, &ae) {
		return ae.Status
	}
	return ""
}
