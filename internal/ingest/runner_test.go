package ingest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nineaccord/salesboard/internal/domain"
)

type stubTabSource struct {
	tabs map[string]*Table
}

func (s *stubTabSource) Name() string { return "stub" }

func (s *stubTabSource) ReadTab(_ context.Context, tab string) (*Table, error) {
	t, ok := s.tabs[tab]
	if !ok {
		return nil, ErrTabNotFound
	}
	return t, nil
}

type recordingReplacer struct {
	mu   sync.Mutex
	rows map[domain.Brand][]domain.SalesRow
	err  error
}

func (r *recordingReplacer) ReplaceRows(_ context.Context, brand domain.Brand, rows []domain.SalesRow) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return 0, r.err
	}
	if r.rows == nil {
		r.rows = make(map[domain.Brand][]domain.SalesRow)
	}
	r.rows[brand] = rows
	return len(rows), nil
}

func TestIngesterIngestBrand(t *testing.T) {
	src := &stubTabSource{tabs: map[string]*Table{
		domain.BrandNine.SheetTab(): {
			Header: salesHeader,
			Rows:   [][]string{{"면세", "안경테", "24/01", "A-01", "3", "A", "10"}},
		},
		"미송": {Header: []string{"품목별", "미송"}, Rows: [][]string{{"A-01", "2"}}},
	}}
	store := &recordingReplacer{}

	n, err := NewIngester(src, store, "미송").IngestBrand(context.Background(), domain.BrandNine)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 2, store.rows[domain.BrandNine][0].Backorder)
}

func TestIngesterMissingBackorderTabIsTolerated(t *testing.T) {
	src := &stubTabSource{tabs: map[string]*Table{
		domain.BrandNine.SheetTab(): {Header: salesHeader, Rows: [][]string{{"면세", "안경테", "24/01", "A-01", "3", "A", "10"}}},
	}}
	store := &recordingReplacer{}

	_, err := NewIngester(src, store, "미송").IngestBrand(context.Background(), domain.BrandNine)
	require.NoError(t, err)
	assert.Zero(t, store.rows[domain.BrandNine][0].Backorder)
}

func TestIngesterWritesNothingOnReadFailure(t *testing.T) {
	store := &recordingReplacer{}
	_, err := NewIngester(&stubTabSource{}, store, "").IngestBrand(context.Background(), domain.BrandCuru)
	assert.ErrorIs(t, err, ErrTabNotFound)
	assert.Empty(t, store.rows)
}

type fakeIngester struct {
	mu      sync.Mutex
	fail    map[domain.Brand]error
	calls   []domain.Brand
	release chan struct{}
}

func (f *fakeIngester) IngestBrand(ctx context.Context, brand domain.Brand) (int, error) {
	if f.release != nil {
		<-f.release
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, brand)
	if err := f.fail[brand]; err != nil {
		return 0, err
	}
	return 10, nil
}

type countingInvalidator struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (c *countingInvalidator) InvalidateAll(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return c.err
}

func (c *countingInvalidator) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

type memoryRecorder struct {
	mu   sync.Mutex
	runs map[string]domain.Job
}

func (m *memoryRecorder) RecordRun(_ context.Context, job domain.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.runs == nil {
		m.runs = make(map[string]domain.Job)
	}
	m.runs[job.ID] = job
	return nil
}

func (m *memoryRecorder) GetRun(_ context.Context, id string) (*domain.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.runs[id]
	if !ok {
		return nil, nil
	}
	return &job, nil
}

func newTestRunner(t *testing.T, ing BrandIngester, inv Invalidator, opts RunnerOptions) *Runner {
	t.Helper()
	r := NewRunner(ing, inv, opts)
	r.Start()
	t.Cleanup(r.Stop)
	return r
}

func waitJob(t *testing.T, r *Runner, id string) domain.Job {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	job, err := r.Wait(ctx, id)
	require.NoError(t, err)
	return job
}

func TestRunnerCompletesAllBrands(t *testing.T) {
	ing := &fakeIngester{}
	inv := &countingInvalidator{}
	rec := &memoryRecorder{}
	r := newTestRunner(t, ing, inv, RunnerOptions{Recorder: rec})

	var notified domain.Job
	done := make(chan struct{})
	r.OnComplete(func(job domain.Job) {
		notified = job
		close(done)
	})

	queued, err := r.Submit("ALL")
	require.NoError(t, err)
	assert.Equal(t, domain.JobQueued, queued.Status)
	assert.Equal(t, "all", queued.Target)

	job := waitJob(t, r, queued.ID)
	assert.Equal(t, domain.JobCompleted, job.Status)
	assert.Equal(t, 2, job.Succeeded)
	assert.Equal(t, 20, job.TotalRows())
	assert.Empty(t, job.Error)
	assert.NotNil(t, job.FinishedAt)
	assert.Equal(t, 1, inv.count())
	assert.Equal(t, []domain.Brand{domain.BrandNine, domain.BrandCuru}, ing.calls)

	<-done
	assert.Equal(t, job.ID, notified.ID)

	stored, err := rec.GetRun(context.Background(), job.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, domain.JobCompleted, stored.Status)
}

func TestRunnerPartialFailureStillInvalidates(t *testing.T) {
	ing := &fakeIngester{fail: map[domain.Brand]error{domain.BrandCuru: errors.New("tab missing")}}
	inv := &countingInvalidator{}
	r := newTestRunner(t, ing, inv, RunnerOptions{})

	queued, err := r.Submit("all")
	require.NoError(t, err)

	job := waitJob(t, r, queued.ID)
	assert.Equal(t, domain.JobFailed, job.Status)
	assert.Equal(t, 1, job.Succeeded)
	assert.Equal(t, 1, job.Failed)
	assert.Contains(t, job.Error, "curu: tab missing")
	assert.Equal(t, 1, inv.count())
}

func TestRunnerSkipsInvalidationWhenNothingSucceeded(t *testing.T) {
	ing := &fakeIngester{fail: map[domain.Brand]error{domain.BrandNine: errors.New("boom")}}
	inv := &countingInvalidator{}
	r := newTestRunner(t, ing, inv, RunnerOptions{})

	queued, err := r.Submit("nine")
	require.NoError(t, err)

	job := waitJob(t, r, queued.ID)
	assert.Equal(t, domain.JobFailed, job.Status)
	assert.Zero(t, inv.count())
}

func TestRunnerInvalidationFailureFailsJob(t *testing.T) {
	inv := &countingInvalidator{err: errors.New("redis down")}
	r := newTestRunner(t, &fakeIngester{}, inv, RunnerOptions{})

	queued, err := r.Submit("curu")
	require.NoError(t, err)

	job := waitJob(t, r, queued.ID)
	assert.Equal(t, domain.JobFailed, job.Status)
	assert.Contains(t, job.Error, "cache invalidation")
}

func TestRunnerRejectsUnknownTarget(t *testing.T) {
	r := newTestRunner(t, &fakeIngester{}, nil, RunnerOptions{})
	_, err := r.Submit("acme")
	assert.ErrorIs(t, err, domain.ErrUnknownBrand)
}

func TestRunnerQueueFull(t *testing.T) {
	ing := &fakeIngester{release: make(chan struct{})}
	r := newTestRunner(t, ing, nil, RunnerOptions{QueueSize: 1})
	t.Cleanup(func() { close(ing.release) })

	first, err := r.Submit("nine")
	require.NoError(t, err)

	// wait until the worker has taken the first job off the queue
	require.Eventually(t, func() bool {
		job, err := r.Get(context.Background(), first.ID)
		return err == nil && job.Status == domain.JobRunning
	}, 2*time.Second, 5*time.Millisecond)

	_, err = r.Submit("nine")
	require.NoError(t, err)
	_, err = r.Submit("nine")
	assert.ErrorIs(t, err, ErrQueueFull)
}

func TestRunnerGetFallsBackToRecorder(t *testing.T) {
	rec := &memoryRecorder{}
	require.NoError(t, rec.RecordRun(context.Background(), domain.Job{ID: "old", Status: domain.JobCompleted}))
	r := newTestRunner(t, &fakeIngester{}, nil, RunnerOptions{Recorder: rec})

	job, err := r.Get(context.Background(), "old")
	require.NoError(t, err)
	assert.Equal(t, domain.JobCompleted, job.Status)

	_, err = r.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestRunnerStopFailsQueuedJobs(t *testing.T) {
	ing := &fakeIngester{release: make(chan struct{})}
	r := NewRunner(ing, nil, RunnerOptions{QueueSize: 4})
	r.Start()

	first, err := r.Submit("nine")
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		job, _ := r.Get(context.Background(), first.ID)
		return job.Status == domain.JobRunning
	}, 2*time.Second, 5*time.Millisecond)

	second, err := r.Submit("curu")
	require.NoError(t, err)

	stopped := make(chan struct{})
	go func() {
		r.Stop()
		close(stopped)
	}()
	<-r.stop
	close(ing.release)
	<-stopped

	job, err := r.Get(context.Background(), second.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobFailed, job.Status)
	assert.Equal(t, ErrRunnerStopped.Error(), job.Error)

	_, err = r.Submit("nine")
	assert.ErrorIs(t, err, ErrRunnerStopped)
}

func TestRunnerAcceptedJobsFinishAcrossStop(t *testing.T) {
	for round := 0; round < 20; round++ {
		r := NewRunner(&fakeIngester{}, nil, RunnerOptions{QueueSize: 64})
		r.Start()

		var (
			mu       sync.Mutex
			accepted []string
			wg       sync.WaitGroup
		)
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 4; j++ {
					job, err := r.Submit("nine")
					if err != nil {
						continue
					}
					mu.Lock()
					accepted = append(accepted, job.ID)
					mu.Unlock()
				}
			}()
		}
		r.Stop()
		wg.Wait()

		for _, id := range accepted {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			job, err := r.Wait(ctx, id)
			cancel()
			require.NoError(t, err, "job %s accepted but never finished", id)
			assert.True(t, job.Status.Done())
		}

		_, err := r.Submit("nine")
		assert.ErrorIs(t, err, ErrRunnerStopped)
	}
}
