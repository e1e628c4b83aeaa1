// Package auth obtains and stores an access token.
//
// Two entry points exist: LoginWithCookie, which derives a token from an
// existing browser cookie, and LoginWithCredentials, which first exchanges
// an identifier and secret for a cookie. Failures are *errors.AuthError
// values; use errors.StatusOf to branch on them.
package auth
