package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"
)

// ErrNotProfileURL is returned for URLs outside the configured profile prefix
var ErrNotProfileURL = errors.New("not a profile url")

// maxUIDLookups bounds concurrent UID resolutions in ResolveUIDs
const maxUIDLookups = 4

// UIDResult is the outcome of resolving one profile URL
type UIDResult struct {
	URL string
	UID string
	Err error
}

// ResolveUID resolves a profile URL to its numeric identifier
func (a *Authenticator) ResolveUID(ctx context.Context, profileURL string) (string, error) {
	profileURL = strings.TrimSpace(profileURL)
	if a.profilePrefix != "" && !strings.HasPrefix(profileURL, a.profilePrefix) {
		return "", fmt.Errorf("%w: %s", ErrNotProfileURL, profileURL)
	}

	uid, err := a.client.ResolveUID(ctx, profileURL)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", profileURL, err)
	}
	return uid, nil
}

// ResolveUIDs resolves every URL, keeping the input order in the result
func (a *Authenticator) ResolveUIDs(ctx context.Context, urls []string) []UIDResult {
	results := make([]UIDResult, len(urls))

	var g errgroup.Group
	g.SetLimit(maxUIDLookups)
	for i, u := range urls {
		g.Go(func() error {
			uid, err := a.ResolveUID(ctx, u)
			results[i] = UIDResult{URL: u, UID: uid, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	return results
}
