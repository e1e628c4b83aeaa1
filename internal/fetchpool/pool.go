package fetchpool

import (
	"context"
	"fmt"
	"sync"
	"time"

	"frienddump/pkg/graphapi"
	"frienddump/pkg/logger"
	"frienddump/pkg/models"
)

// FriendsFetcher fetches one friends list
type FriendsFetcher interface {
	FetchFriends(ctx context.Context, id string, creds models.Credentials) (*graphapi.FriendsPage, error)
}

// Job is one friends-list fetch; Index is the position in the phase's target list
type Job struct {
	Index int
	ID    string
}

// Result is the settled outcome of a Job
type Result struct {
	Job      Job
	Page     *graphapi.FriendsPage
	Err      error
	Duration time.Duration
}

// WorkerPool runs friends-list fetches concurrently
type WorkerPool struct {
	numWorkers  int
	jobQueue    chan Job
	resultQueue chan Result
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	fetcher     FriendsFetcher
	creds       models.Credentials
	logger      logger.Logger
}

// NewWorkerPool creates a pool of numWorkers workers fetching with creds.
// Cancelling ctx stops accepting jobs and aborts in-flight requests.
func NewWorkerPool(ctx context.Context, numWorkers int, fetcher FriendsFetcher, creds models.Credentials, log logger.Logger) *WorkerPool {
	if numWorkers < 1 {
		numWorkers = 1
	}
	ctx, cancel := context.WithCancel(ctx)

	return &WorkerPool{
		numWorkers:  numWorkers,
		jobQueue:    make(chan Job, numWorkers*2),
		resultQueue: make(chan Result, numWorkers),
		ctx:         ctx,
		cancel:      cancel,
		fetcher:     fetcher,
		creds:       creds,
		logger:      logger.OrGlobal(log),
	}
}

// Start launches the workers
func (wp *WorkerPool) Start() {
	wp.logger.DebugWithFields("Starting fetch pool", map[string]interface{}{
		"num_workers": wp.numWorkers,
	})

	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

// Stop closes the job queue, waits for the workers to drain it and closes Results
func (wp *WorkerPool) Stop() {
	close(wp.jobQueue)
	wp.wg.Wait()
	close(wp.resultQueue)
	wp.cancel()
}

// Submit queues a job
func (wp *WorkerPool) Submit(job Job) error {
	select {
	case wp.jobQueue <- job:
		return nil
	case <-wp.ctx.Done():
		return fmt.Errorf("fetch pool is shutting down: %w", wp.ctx.Err())
	}
}

// Results returns the result channel; it is closed by Stop
func (wp *WorkerPool) Results() <-chan Result {
	return wp.resultQueue
}

func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	for job := range wp.jobQueue {
		start := time.Now()
		page, err := wp.fetcher.FetchFriends(wp.ctx, job.ID, wp.creds)
		result := Result{Job: job, Page: page, Err: err, Duration: time.Since(start)}

		if err != nil {
			wp.logger.DebugWithFields("Friends fetch failed", map[string]interface{}{
				"worker_id": id,
				"target":    job.ID,
				"error":     err.Error(),
			})
		}

		wp.resultQueue <- result
	}
}

// FetchAll fetches every id and returns once all fetches have settled.
// results[i] belongs to ids[i]; jobs never submitted because ctx ended
// are left with a nil Page and ctx's error. workers <= 0 means one
// worker per id.
func FetchAll(ctx context.Context, fetcher FriendsFetcher, creds models.Credentials, ids []string, workers int, log logger.Logger) []Result {
	results := make([]Result, len(ids))
	if len(ids) == 0 {
		return results
	}
	for i, id := range ids {
		results[i].Job = Job{Index: i, ID: id}
	}

	if workers <= 0 || workers > len(ids) {
		workers = len(ids)
	}

	pool := NewWorkerPool(ctx, workers, fetcher, creds, log)
	pool.Start()

	go func() {
		defer pool.Stop()
		for i, id := range ids {
			if err := pool.Submit(Job{Index: i, ID: id}); err != nil {
				for j := i; j < len(ids); j++ {
					results[j].Err = err
				}
				return
			}
		}
	}()

	for r := range pool.Results() {
		results[r.Job.Index] = r
	}
	return results
}
