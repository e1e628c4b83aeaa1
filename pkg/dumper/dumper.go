package dumper

import (
	"context"
	"fmt"
	"sort"

	"frienddump/internal/fetchpool"
	"frienddump/pkg/config"
	"frienddump/pkg/graphapi"
	"frienddump/pkg/logger"
	"frienddump/pkg/models"
	"frienddump/pkg/storage"

	"github.com/google/uuid"
)

// Request describes one dump run
type Request struct {
	// Seeds are raw seed lines; "id|name" lines keep the id
	Seeds []string
	// Output receives matching lines, or every line when Prefixes is empty
	Output string
	// Unseparated receives non-matching lines; they are dropped when empty
	Unseparated string
	Prefixes    []string
	// Recursive crawls the seeds' friends instead of the seeds themselves
	Recursive  bool
	OnProgress func(Progress)
}

// Result holds the number of lines appended to each output
type Result struct {
	Main        int
	Unseparated int
}

// Dumper crawls friends lists and appends them to output files
type Dumper struct {
	fetcher          fetchpool.FriendsFetcher
	creds            models.Credentials
	maxConcurrency   int
	progressInterval int
	logger           logger.Logger
}

// New creates a Dumper fetching with creds
func New(fetcher fetchpool.FriendsFetcher, creds models.Credentials, cfg *config.Config, log logger.Logger) *Dumper {
	interval := cfg.Dump.ProgressInterval
	if interval <= 0 {
		interval = 10
	}
	return &Dumper{
		fetcher:          fetcher,
		creds:            creds,
		maxConcurrency:   cfg.Dump.MaxConcurrency,
		progressInterval: interval,
		logger:           logger.OrGlobal(log).WithField("component", "dumper"),
	}
}

// DumpSimple writes the friends of each seed to output
func (d *Dumper) DumpSimple(ctx context.Context, seeds []string, output string, onProgress func(Progress)) (int, error) {
	res, err := d.Dump(ctx, Request{
		Seeds:      seeds,
		Output:     output,
		OnProgress: onProgress,
	})
	return res.Main, err
}

// DumpUnlimited writes the friends of the seeds' friends, split by prefix
func (d *Dumper) DumpUnlimited(ctx context.Context, seeds []string, output, unseparated string, prefixes []string, onProgress func(Progress)) (Result, error) {
	return d.Dump(ctx, Request{
		Seeds:       seeds,
		Output:      output,
		Unseparated: unseparated,
		Prefixes:    prefixes,
		Recursive:   true,
		OnProgress:  onProgress,
	})
}

// Dump runs one crawl. Only file errors and cancellation are returned;
// failed or missing fetches are skipped.
func (d *Dumper) Dump(ctx context.Context, req Request) (Result, error) {
	seeds := models.ParseIdentifiers(req.Seeds)
	if len(seeds) == 0 || !d.creds.LoggedIn() {
		return Result{}, nil
	}

	log := d.logger.WithField("run_id", uuid.NewString())
	emit := func(p Progress) {
		if req.OnProgress != nil {
			req.OnProgress(p)
		}
	}

	targets := seeds
	if req.Recursive {
		candidates := d.collectCandidates(ctx, seeds, log)
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		if len(candidates) == 0 {
			log.InfoWithFields("No candidates found", map[string]interface{}{"seeds": len(seeds)})
			return Result{}, nil
		}
		emit(Progress{Stage: StageCandidates, Candidates: len(candidates)})
		targets = candidates
	}

	for i, id := range targets {
		if i%d.progressInterval == 0 {
			emit(Progress{Stage: StageRequest, Target: id, Index: i, Total: len(targets)})
		}
	}

	filter := NewPrefixFilter(req.Prefixes)
	log.InfoWithFields("Fetching targets", map[string]interface{}{
		"targets":   len(targets),
		"recursive": req.Recursive,
		"prefixes":  filter.Prefixes(),
	})
	results := fetchpool.FetchAll(ctx, d.fetcher, d.creds, targets, d.maxConcurrency, log)

	mainOut := storage.NewTarget(req.Output)
	var unsepOut *storage.Target
	if req.Unseparated != "" {
		unsepOut = storage.NewTarget(req.Unseparated)
	}
	seen := NewSeenSet()

	var res Result
	for i, r := range results {
		records, ok := friendRecords(r)
		if !ok {
			continue
		}

		var newMain, newUnsep []string
		for _, f := range records {
			if f.ID == "" {
				continue
			}
			id := string(f.ID)
			line := models.FriendEdge{OwnerID: r.Job.ID, FriendID: id, FriendName: f.Name}.Line()

			toMain := !filter.Active() || filter.Matches(id)
			if !toMain && unsepOut == nil {
				continue
			}
			if !seen.Add(line) {
				continue
			}
			if toMain {
				newMain = append(newMain, line)
			} else {
				newUnsep = append(newUnsep, line)
			}
		}

		if err := mainOut.Append(newMain); err != nil {
			return res, err
		}
		res.Main += len(newMain)

		if unsepOut != nil {
			if err := unsepOut.Append(newUnsep); err != nil {
				return res, err
			}
			res.Unseparated += len(newUnsep)
		}

		logger.LogDumpProgress(log, r.Job.ID, i, len(targets), res.Main, res.Unseparated)
		emit(Progress{Stage: StageExtracted, Target: r.Job.ID, Index: i, Total: len(targets), Main: res.Main, Unseparated: res.Unseparated})
	}

	log.InfoWithFields("Dump finished", map[string]interface{}{
		"main":         res.Main,
		"unseparated":  res.Unseparated,
		"unique_lines": seen.Len(),
	})

	if err := ctx.Err(); err != nil {
		return res, fmt.Errorf("dump interrupted: %w", err)
	}
	return res, nil
}

// collectCandidates unions the friend ids of every seed, sorted descending
func (d *Dumper) collectCandidates(ctx context.Context, seeds []string, log logger.Logger) []string {
	results := fetchpool.FetchAll(ctx, d.fetcher, d.creds, seeds, d.maxConcurrency, log)

	union := make(map[string]struct{})
	for _, r := range results {
		records, ok := friendRecords(r)
		if !ok || r.Page.Body.HasError() {
			continue
		}
		for _, f := range records {
			if f.ID != "" {
				union[string(f.ID)] = struct{}{}
			}
		}
	}

	candidates := make([]string, 0, len(union))
	for id := range union {
		candidates = append(candidates, id)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(candidates)))
	return candidates
}

// friendRecords returns the records of a settled fetch; ok is false for a
// missing response (transport failure or non-2xx status).
func friendRecords(r fetchpool.Result) ([]graphapi.Friend, bool) {
	if r.Err != nil || r.Page == nil || r.Page.Body == nil {
		return nil, false
	}
	if r.Page.Response != nil && !r.Page.Response.OK() {
		return nil, false
	}
	return r.Page.Body.FriendRecords(), true
}
