package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/nineaccord/salesboard/internal/domain"
)

var (
	ErrQueueFull     = errors.New("ingest queue is full")
	ErrJobNotFound   = errors.New("ingest job not found")
	ErrRunnerStopped = errors.New("ingest runner stopped")
)

const (
	defaultQueueSize  = 8
	defaultJobTimeout = 10 * time.Minute
	maxRetainedJobs   = 100
	recordRunTimeout  = 5 * time.Second
	invalidateTimeout = 30 * time.Second
)

// BrandIngester loads a single brand.
type BrandIngester interface {
	IngestBrand(ctx context.Context, brand domain.Brand) (int, error)
}

// Invalidator drops derived data once new rows are committed.
type Invalidator interface {
	InvalidateAll(ctx context.Context) error
}

// RunRecorder persists job snapshots so they outlive the process.
type RunRecorder interface {
	RecordRun(ctx context.Context, job domain.Job) error
	GetRun(ctx context.Context, id string) (*domain.Job, error)
}

type RunnerOptions struct {
	QueueSize int
	// Timeout bounds each brand of a job.
	Timeout  time.Duration
	Recorder RunRecorder
}

type jobState struct {
	job    domain.Job
	brands []domain.Brand
	done   chan struct{}
}

// Runner executes ingestion jobs one at a time on a single worker goroutine.
// Cache invalidation happens after the store commit and before the job is
// reported complete, so a caller that saw completion never reads stale
// reports.
type Runner struct {
	ingester    BrandIngester
	invalidator Invalidator
	recorder    RunRecorder
	timeout     time.Duration

	queue chan *jobState

	mu        sync.RWMutex
	jobs      map[string]*jobState
	finished  []string
	listeners []func(domain.Job)

	startOnce sync.Once
	stopOnce  sync.Once
	stop      chan struct{}
	wg        sync.WaitGroup
}

func NewRunner(ingester BrandIngester, invalidator Invalidator, opts RunnerOptions) *Runner {
	if opts.QueueSize <= 0 {
		opts.QueueSize = defaultQueueSize
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultJobTimeout
	}
	return &Runner{
		ingester:    ingester,
		invalidator: invalidator,
		recorder:    opts.Recorder,
		timeout:     opts.Timeout,
		queue:       make(chan *jobState, opts.QueueSize),
		jobs:        make(map[string]*jobState),
		stop:        make(chan struct{}),
	}
}

// Start launches the worker. Calling it more than once has no effect.
func (r *Runner) Start() {
	r.startOnce.Do(func() {
		r.wg.Add(1)
		go r.worker()
	})
}

// Stop lets the current job finish and stops the worker. Queued jobs that
// never started are marked failed.
func (r *Runner) Stop() {
	r.stopOnce.Do(func() {
		close(r.stop)
		r.wg.Wait()

		// Submit enqueues under r.mu, so nothing can land after this drain.
		r.mu.Lock()
		var pending []*jobState
		for drained := false; !drained; {
			select {
			case st := <-r.queue:
				pending = append(pending, st)
			default:
				drained = true
			}
		}
		r.mu.Unlock()

		for _, st := range pending {
			r.finish(st, ErrRunnerStopped.Error())
		}
	})
}

// OnComplete registers fn to be called with every finished job, after cache
// invalidation.
func (r *Runner) OnComplete(fn func(domain.Job)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, fn)
}

// Submit queues an ingestion of target, which is a brand code or "all".
func (r *Runner) Submit(target string) (domain.Job, error) {
	brands, err := domain.ParseBrandTarget(target)
	if err != nil {
		return domain.Job{}, err
	}

	st := &jobState{
		job: domain.Job{
			ID:        uuid.NewString(),
			Target:    strings.ToLower(strings.TrimSpace(target)),
			Status:    domain.JobQueued,
			Results:   []domain.BrandResult{},
			CreatedAt: time.Now().UTC(),
		},
		brands: brands,
		done:   make(chan struct{}),
	}

	queued := st.job
	queued.Results = []domain.BrandResult{}

	r.mu.Lock()
	select {
	case <-r.stop:
		r.mu.Unlock()
		return domain.Job{}, ErrRunnerStopped
	default:
	}
	select {
	case r.queue <- st:
		r.jobs[st.job.ID] = st
	default:
		r.mu.Unlock()
		return domain.Job{}, ErrQueueFull
	}
	r.mu.Unlock()

	log.Info().Str("job_id", queued.ID).Str("target", queued.Target).Msg("ingest job queued")
	return queued, nil
}

// Get returns the latest snapshot of a job, falling back to the recorder for
// jobs this process no longer tracks.
func (r *Runner) Get(ctx context.Context, id string) (domain.Job, error) {
	r.mu.RLock()
	st, ok := r.jobs[id]
	r.mu.RUnlock()
	if ok {
		return r.snapshot(st), nil
	}

	if r.recorder != nil {
		job, err := r.recorder.GetRun(ctx, id)
		if err != nil {
			return domain.Job{}, err
		}
		if job != nil {
			return *job, nil
		}
	}
	return domain.Job{}, ErrJobNotFound
}

// Wait blocks until the job finishes or ctx is done.
func (r *Runner) Wait(ctx context.Context, id string) (domain.Job, error) {
	r.mu.RLock()
	st, ok := r.jobs[id]
	r.mu.RUnlock()
	if !ok {
		return r.Get(ctx, id)
	}

	select {
	case <-st.done:
		return r.snapshot(st), nil
	case <-ctx.Done():
		return r.snapshot(st), ctx.Err()
	}
}

func (r *Runner) worker() {
	defer r.wg.Done()

	for {
		// a stop request wins over queued work
		select {
		case <-r.stop:
			return
		default:
		}

		select {
		case <-r.stop:
			return
		case st := <-r.queue:
			r.run(st)
		}
	}
}

func (r *Runner) run(st *jobState) {
	started := time.Now().UTC()
	r.mu.Lock()
	st.job.Status = domain.JobRunning
	st.job.StartedAt = &started
	r.mu.Unlock()
	r.record(r.snapshot(st))

	logger := log.With().Str("job_id", st.job.ID).Str("target", st.job.Target).Logger()
	logger.Info().Int("brands", len(st.brands)).Msg("ingest job started")

	var failures []string
	for _, brand := range st.brands {
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		n, err := r.ingester.IngestBrand(ctx, brand)
		cancel()

		result := domain.BrandResult{Brand: brand, Rows: n}
		if err != nil {
			result.Error = err.Error()
			failures = append(failures, fmt.Sprintf("%s: %v", brand, err))
			logger.Error().Err(err).Str("brand", brand.String()).Msg("brand ingestion failed")
		} else {
			logger.Info().Str("brand", brand.String()).Int("rows", n).Msg("brand ingested")
		}

		r.mu.Lock()
		st.job.Results = append(st.job.Results, result)
		if err != nil {
			st.job.Failed++
		} else {
			st.job.Succeeded++
		}
		r.mu.Unlock()
	}

	r.mu.RLock()
	succeeded := st.job.Succeeded
	r.mu.RUnlock()

	if succeeded > 0 && r.invalidator != nil {
		ctx, cancel := context.WithTimeout(context.Background(), invalidateTimeout)
		if err := r.invalidator.InvalidateAll(ctx); err != nil {
			failures = append(failures, fmt.Sprintf("cache invalidation: %v", err))
			logger.Error().Err(err).Msg("cache invalidation after ingest failed")
		}
		cancel()
	}

	var detail string
	if len(failures) > 0 {
		detail = fmt.Sprintf("%d succeeded, %d failed: %s", succeeded, len(st.brands)-succeeded, strings.Join(failures, "; "))
	}
	r.finish(st, detail)
}

// finish publishes the terminal state. A non-empty detail marks the job failed.
func (r *Runner) finish(st *jobState, detail string) {
	finished := time.Now().UTC()

	r.mu.Lock()
	st.job.FinishedAt = &finished
	if detail != "" {
		st.job.Status = domain.JobFailed
		st.job.Error = detail
	} else {
		st.job.Status = domain.JobCompleted
	}
	r.finished = append(r.finished, st.job.ID)
	r.pruneLocked()
	listeners := append([]func(domain.Job){}, r.listeners...)
	r.mu.Unlock()

	job := r.snapshot(st)
	r.record(job)
	close(st.done)

	log.Info().
		Str("job_id", job.ID).
		Str("status", string(job.Status)).
		Int("succeeded", job.Succeeded).
		Int("failed", job.Failed).
		Int("rows", job.TotalRows()).
		Msg("ingest job finished")

	for _, fn := range listeners {
		fn(job)
	}
}

// pruneLocked forgets the oldest finished jobs beyond maxRetainedJobs.
func (r *Runner) pruneLocked() {
	for len(r.finished) > maxRetainedJobs {
		delete(r.jobs, r.finished[0])
		r.finished = r.finished[1:]
	}
}

func (r *Runner) snapshot(st *jobState) domain.Job {
	r.mu.RLock()
	defer r.mu.RUnlock()

	job := st.job
	job.Results = append([]domain.BrandResult{}, st.job.Results...)
	return job
}

func (r *Runner) record(job domain.Job) {
	if r.recorder == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), recordRunTimeout)
	defer cancel()
	if err := r.recorder.RecordRun(ctx, job); err != nil {
		log.Warn().Err(err).Str("job_id", job.ID).Msg("failed to record ingest run")
	}
}
