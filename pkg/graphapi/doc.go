// Package graphapi is the HTTP client for the social graph API and the
// auxiliary services used to obtain a token.
//
// Every call returns a fully read Response so callers can inspect both the
// decoded body and the raw bytes; transport failures come back as
// *errors.Error with Type network or timeout.
package graphapi
