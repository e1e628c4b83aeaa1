package validator

import (
	"context"
	"strings"
	"time"

	"frienddump/internal/fetchpool"
	"frienddump/pkg/config"
	errs "frienddump/pkg/errors"
	"frienddump/pkg/logger"
	"frienddump/pkg/models"
	"frienddump/pkg/session"
	"frienddump/pkg/storage"
)

// Outcome summarises a validation run
type Outcome string

const (
	OutcomeLoggedOut Outcome = "logged_out"
	// OutcomeSkipped means no probe list was available; the session is assumed usable
	OutcomeSkipped Outcome = "skipped"
	OutcomeValid   Outcome = "valid"
	// OutcomeBlocked means every probe failed and at least one looked rate limited
	OutcomeBlocked Outcome = "blocked"
	OutcomeFailed  Outcome = "failed"
)

// ProbeState is the classification of a single probe
type ProbeState string

const (
	ProbeOK        ProbeState = "ok"
	ProbeBlocked   ProbeState = "blocked"
	ProbeNoFriends ProbeState = "no_friends"
	ProbeTimeout   ProbeState = "timeout"
	ProbeFailed    ProbeState = "failed"
)

// ProbeResult records what happened to one probe id
type ProbeResult struct {
	ID    string
	State ProbeState
	Err   error
}

// Result is the outcome of Validate
type Result struct {
	Usable    bool
	FriendIDs []string
	Outcome   Outcome
	Probes    []ProbeResult
}

// Validator checks that a session can still read friends lists
type Validator struct {
	fetcher    fetchpool.FriendsFetcher
	store      session.Store
	probeFiles []string
	timeout    time.Duration
	keywords   []string
	logger     logger.Logger
}

// New creates a Validator. store may be nil, in which case harvested ids are not persisted.
func New(fetcher fetchpool.FriendsFetcher, store session.Store, cfg *config.Config, log logger.Logger) *Validator {
	keywords := make([]string, 0, len(cfg.Validator.BlockKeywords))
	for _, k := range cfg.Validator.BlockKeywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			keywords = append(keywords, k)
		}
	}
	return &Validator{
		fetcher:    fetcher,
		store:      store,
		probeFiles: cfg.Validator.ProbeFiles,
		timeout:    cfg.Validator.ProbeTimeout,
		keywords:   keywords,
		logger:     logger.OrGlobal(log).WithField("component", "validator"),
	}
}

// Validate probes the configured ids in order and stops at the first one
// that returns friends. When every probe fails the stored session is
// cleared; a cancelled run leaves it untouched.
func (v *Validator) Validate(ctx context.Context, creds models.Credentials) Result {
	if !creds.LoggedIn() {
		return Result{Outcome: OutcomeLoggedOut}
	}

	probes := v.probeIDs()
	if len(probes) == 0 {
		v.logger.Info("No probe ids available, skipping validation")
		return Result{Usable: true, Outcome: OutcomeSkipped}
	}

	res := Result{Outcome: OutcomeFailed}
	for _, id := range probes {
		if ctx.Err() != nil {
			break
		}

		probe, friendIDs := v.probe(ctx, id, creds)
		res.Probes = append(res.Probes, probe)
		logger.LogProbe(v.logger, models.Mask(id), string(probe.State))

		switch probe.State {
		case ProbeOK:
			if v.store != nil {
				if err := session.SaveLoginCheck(v.store, friendIDs); err != nil {
					v.logger.WithError(err).Warn("Failed to persist login check")
				}
			}
			res.Usable = true
			res.Outcome = OutcomeValid
			res.FriendIDs = friendIDs
			return res
		case ProbeBlocked:
			res.Outcome = OutcomeBlocked
		}
	}

	if err := ctx.Err(); err != nil {
		return res
	}

	v.logger.WarnWithFields("Validation failed", map[string]interface{}{
		"probes":  len(res.Probes),
		"outcome": string(res.Outcome),
	})
	v.logout()
	return res
}

// logout clears the stored session after a failed validation
func (v *Validator) logout() {
	if v.store == nil {
		return
	}
	if err := v.store.Clear(); err != nil {
		v.logger.WithError(err).Warn("Failed to clear session")
	}
}

func (v *Validator) probeIDs() []string {
	path, ok := storage.FirstExisting(v.probeFiles)
	if !ok {
		return nil
	}
	ids, err := storage.ReadIdentifiers(path)
	if err != nil {
		v.logger.WithError(err).WarnWithFields("Cannot read probe file", map[string]interface{}{"path": path})
		return nil
	}
	return ids
}

func (v *Validator) probe(ctx context.Context, id string, creds models.Credentials) (ProbeResult, []string) {
	if v.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.timeout)
		defer cancel()
	}

	page, err := v.fetcher.FetchFriends(ctx, id, creds)
	if err != nil {
		state := ProbeFailed
		if errs.IsTimeout(err) {
			state = ProbeTimeout
		}
		return ProbeResult{ID: id, State: state, Err: err}, nil
	}
	if page == nil || page.Body == nil {
		return ProbeResult{ID: id, State: ProbeFailed}, nil
	}

	if page.Response != nil && v.blocked(page.Response.Body) {
		return ProbeResult{ID: id, State: ProbeBlocked}, nil
	}

	var ids []string
	for _, f := range page.Body.FriendRecords() {
		if f.ID != "" {
			ids = append(ids, string(f.ID))
		}
	}
	if len(ids) == 0 {
		return ProbeResult{ID: id, State: ProbeNoFriends}, nil
	}
	return ProbeResult{ID: id, State: ProbeOK}, ids
}

// blocked reports whether the raw body mentions any block keyword
func (v *Validator) blocked(body []byte) bool {
	text := strings.ToLower(string(body))
	for _, k := range v.keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}
