package query

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"campusjobs/common/cache"
	"campusjobs/common/telemetry"
	"campusjobs/services/jobboard/internal/api"
	"campusjobs/services/jobboard/internal/config"
	"campusjobs/services/jobboard/internal/errors"
	"campusjobs/services/jobboard/internal/models"
	"campusjobs/services/jobboard/internal/retry"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

var tracer = telemetry.GetTracer("campusjobs/jobboard/query")

type Status string

const (
	StatusIdle         Status = "idle"
	StatusLoading      Status = "loading"
	StatusRefreshing   Status = "refreshing"
	StatusSuccess      Status = "success"
	StatusTimeoutError Status = "timeout-error"
	StatusAPIError     Status = "api-error"
	StatusNetworkError Status = "network-error"
)

// Pending reports whether a request is in flight.
func (s Status) Pending() bool {
	return s == StatusLoading || s == StatusRefreshing
}

func (s Status) Failed() bool {
	return s == StatusTimeoutError || s == StatusAPIError || s == StatusNetworkError
}

// Result is the state of one list query. While refreshing, Page still holds
// the last accepted jobs.
type Result struct {
	Seq        uint64
	Filters    models.FilterCriteria
	Sort       models.SortSpec
	Status     Status
	Page       *models.JobsPage
	Err        error
	Attempts   int
	FromCache  bool
	Superseded bool
	UpdatedAt  time.Time
}

type Listener func(Result)

// Adapter runs list queries for the current filters and sort. Only the most
// recently dispatched query may change the current result.
type Adapter struct {
	client     api.JobsClient
	cache      cache.Cache
	cacheTTL   time.Duration
	policy     retry.Policy
	newBackOff func() backoff.BackOff
	logger     *zap.Logger
	now        func() time.Time

	seq atomic.Uint64

	mu        sync.Mutex
	current   Result
	listeners map[int]Listener
	nextID    int
}

func NewAdapter(client api.JobsClient, c cache.Cache, logger *zap.Logger, cfg *config.Config) *Adapter {
	initial, max := cfg.RetryInitialDelay, cfg.RetryMaxDelay
	return &Adapter{
		client:     client,
		cache:      c,
		cacheTTL:   cfg.CacheTTL,
		policy:     retry.ClassifiedPolicy{MaxRetries: cfg.MaxRetries},
		newBackOff: func() backoff.BackOff { return retry.NewBackOff(initial, max) },
		logger:     logger,
		now:        time.Now,
		current:    Result{Status: StatusIdle},
		listeners:  make(map[int]Listener),
	}
}

func (a *Adapter) Current() Result {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current
}

// Subscribe registers fn for accepted status changes. fn runs on the goroutine
// that produced the change and must not call back into Subscribe.
func (a *Adapter) Subscribe(fn Listener) func() {
	a.mu.Lock()
	id := a.nextID
	a.nextID++
	a.listeners[id] = fn
	a.mu.Unlock()

	return func() {
		a.mu.Lock()
		delete(a.listeners, id)
		a.mu.Unlock()
	}
}

// Fetch returns the jobs for filters and sort, from cache when a result for the
// same parameters is still fresh.
func (a *Adapter) Fetch(ctx context.Context, filters models.FilterCriteria, sort models.SortSpec) Result {
	return a.Run(ctx, a.Begin(), filters, sort, false)
}

// Refresh always asks the backend and reports StatusRefreshing meanwhile.
func (a *Adapter) Refresh(ctx context.Context, filters models.FilterCriteria, sort models.SortSpec) Result {
	return a.Run(ctx, a.Begin(), filters, sort, true)
}

// Begin reserves the sequence number of the next query. Callers that run
// queries on other goroutines take it before starting them, so the order of
// Begin calls decides which result wins.
func (a *Adapter) Begin() uint64 {
	return a.seq.Add(1)
}

// Run executes the query reserved by seq. Only the newest reservation may
// change the current result; refresh bypasses the cache.
func (a *Adapter) Run(ctx context.Context, seq uint64, filters models.FilterCriteria, sort models.SortSpec, refresh bool) Result {
	params := models.QueryParams(filters, sort)
	key := CacheKey(filters, sort)

	ctx, span := tracer.Start(ctx, "Adapter.Run")
	defer span.End()
	span.SetAttributes(
		telemetry.Int("query.seq", int(seq)),
		telemetry.String("query.params", params.Encode()),
		telemetry.Bool("query.refresh", refresh),
	)

	if !refresh {
		var cached models.JobsPage
		err := a.cache.Get(ctx, key, &cached)
		if err == nil {
			span.SetAttributes(telemetry.String("cache.result", "hit"))
			a.logger.Debug("cache hit for job list", zap.String("key", key))
			return a.accept(Result{
				Seq:       seq,
				Filters:   filters,
				Sort:      sort,
				Status:    StatusSuccess,
				Page:      &cached,
				FromCache: true,
				UpdatedAt: a.now(),
			})
		} else if err != cache.ErrNotFound {
			span.SetAttributes(telemetry.String("cache.result", "error"))
			a.logger.Warn("cache error for job list", zap.Error(err))
		} else {
			span.SetAttributes(telemetry.String("cache.result", "miss"))
		}
	}

	pending := Result{Seq: seq, Filters: filters, Sort: sort, Status: StatusLoading, UpdatedAt: a.now()}
	if refresh {
		pending.Status = StatusRefreshing
		pending.Page = a.Current().Page
	}
	a.accept(pending)

	page, attempts, err := retry.Do(ctx, a.policy, a.newBackOff(),
		func(ctx context.Context, attempt int) (*models.JobsPage, error) {
			if attempt > 1 {
				a.logger.Info("retrying job list query",
					zap.Uint64("seq", seq),
					zap.Int("attempt", attempt))
			}
			return a.client.ListJobs(ctx, params)
		})
	span.SetAttributes(telemetry.Int("query.attempts", attempts))

	if err != nil {
		span.RecordError(err)
		a.logger.Warn("job list query failed",
			zap.Uint64("seq", seq),
			zap.Int("attempts", attempts),
			zap.Error(err))
		return a.accept(Result{
			Seq:       seq,
			Filters:   filters,
			Sort:      sort,
			Status:    statusFor(err),
			Page:      pending.Page,
			Err:       err,
			Attempts:  attempts,
			UpdatedAt: a.now(),
		})
	}

	if err := a.cache.Set(ctx, key, page, a.cacheTTL); err != nil {
		a.logger.Warn("failed to cache job list", zap.String("key", key), zap.Error(err))
	}

	return a.accept(Result{
		Seq:       seq,
		Filters:   filters,
		Sort:      sort,
		Status:    StatusSuccess,
		Page:      page,
		Attempts:  attempts,
		UpdatedAt: a.now(),
	})
}

// Job loads a single posting with the same retry policy as list queries. It
// is not cached and does not touch the current result.
func (a *Adapter) Job(ctx context.Context, id models.JobID) (*models.JobRecord, error) {
	ctx, span := tracer.Start(ctx, "Adapter.Job")
	defer span.End()
	span.SetAttributes(telemetry.String("job.id", string(id)))

	job, attempts, err := retry.Do(ctx, a.policy, a.newBackOff(),
		func(ctx context.Context, _ int) (*models.JobRecord, error) {
			return a.client.GetJob(ctx, id)
		})
	span.SetAttributes(telemetry.Int("query.attempts", attempts))
	if err != nil {
		span.RecordError(err)
		a.logger.Warn("job detail query failed",
			zap.String("job_id", string(id)),
			zap.Int("attempts", attempts),
			zap.Error(err))
		return nil, err
	}
	return job, nil
}

// accept installs r as the current result when r belongs to the newest
// dispatch. Results of superseded dispatches are returned flagged and dropped.
func (a *Adapter) accept(r Result) Result {
	a.mu.Lock()
	if r.Seq != a.seq.Load() {
		a.mu.Unlock()
		a.logger.Debug("discarding superseded job list result",
			zap.Uint64("seq", r.Seq),
			zap.String("status", string(r.Status)))
		r.Superseded = true
		return r
	}
	a.current = r
	listeners := make([]Listener, 0, len(a.listeners))
	for _, l := range a.listeners {
		listeners = append(listeners, l)
	}
	a.mu.Unlock()

	for _, l := range listeners {
		l(r)
	}
	return r
}

func statusFor(err error) Status {
	switch errors.TypeOf(err) {
	case errors.ErrTypeTimeout:
		return StatusTimeoutError
	case errors.ErrTypeAPI:
		return StatusAPIError
	default:
		return StatusNetworkError
	}
}

// CacheKey identifies a (filters, sort) pair. url.Values.Encode sorts keys, so
// equal parameters always produce the same key.
func CacheKey(filters models.FilterCriteria, sort models.SortSpec) string {
	return "jobs:list:" + models.QueryParams(filters, sort).Encode()
}
