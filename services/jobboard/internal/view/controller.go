package view

import (
	"context"
	"sync"
	"time"

	"campusjobs/services/jobboard/internal/config"
	"campusjobs/services/jobboard/internal/errors"
	"campusjobs/services/jobboard/internal/models"
	"campusjobs/services/jobboard/internal/query"
	"campusjobs/services/jobboard/internal/store"

	"go.uber.org/zap"
)

// Renderer draws a model. Render may be called from any goroutine.
type Renderer interface {
	Render(m Model)
}

type RenderFunc func(m Model)

func (f RenderFunc) Render(m Model) { f(m) }

type queryKey struct {
	filters models.FilterCriteria
	sort    models.SortSpec
}

// Controller keeps the view model in step with the store and the query
// adapter. Filter or sort changes dispatch a new query; every accepted change
// redraws.
type Controller struct {
	store    *store.Store
	adapter  *query.Adapter
	logger   *zap.Logger
	pageSize int
	now      func() time.Time

	mu       sync.Mutex
	ctx      context.Context
	renderer Renderer
	started  bool
	lastKey  *queryKey
	page     int
	notice   string
	unsubs   []func()
	inflight sync.WaitGroup
}

func NewController(s *store.Store, adapter *query.Adapter, logger *zap.Logger, cfg *config.Config) *Controller {
	return &Controller{
		store:    s,
		adapter:  adapter,
		logger:   logger,
		pageSize: cfg.PageSize,
		now:      time.Now,
		page:     1,
		renderer: RenderFunc(func(Model) {}),
	}
}

// Start subscribes to the store and adapter and issues the first query.
func (c *Controller) Start(ctx context.Context, renderer Renderer) {
	c.mu.Lock()
	c.ctx = ctx
	c.started = true
	if renderer != nil {
		c.renderer = renderer
	}
	c.unsubs = append(c.unsubs,
		c.store.Subscribe(c.onStoreChange),
		c.adapter.Subscribe(func(query.Result) { c.redraw() }),
	)
	c.mu.Unlock()

	c.onStoreChange(c.store.State())
}

// Stop unsubscribes and waits for in-flight queries.
func (c *Controller) Stop() {
	c.mu.Lock()
	unsubs := c.unsubs
	c.unsubs = nil
	c.started = false
	c.mu.Unlock()

	for _, unsub := range unsubs {
		unsub()
	}
	c.inflight.Wait()
}

func (c *Controller) onStoreChange(st store.State) {
	key := queryKey{filters: st.Filters, sort: st.Sort}

	c.mu.Lock()
	changed := c.lastKey == nil || *c.lastKey != key
	var seq uint64
	if changed {
		c.lastKey = &key
		c.page = 1
		seq = c.adapter.Begin()
	}
	c.mu.Unlock()

	if changed {
		c.dispatch(seq, key, false)
		return
	}
	c.redraw()
}

// Refresh re-runs the current query, bypassing the result cache.
func (c *Controller) Refresh() {
	st := c.store.State()
	c.dispatch(c.adapter.Begin(), queryKey{filters: st.Filters, sort: st.Sort}, true)
}

// dispatch runs a query reserved with seq on its own goroutine.
func (c *Controller) dispatch(seq uint64, key queryKey, refresh bool) {
	c.mu.Lock()
	ctx := c.ctx
	c.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}

	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()
		res := c.adapter.Run(ctx, seq, key.filters, key.sort, refresh)
		if res.Superseded {
			c.logger.Debug("query superseded", zap.Uint64("seq", seq))
			return
		}
		if res.Status.Failed() {
			c.logger.Warn("job list unavailable",
				zap.Uint64("seq", seq),
				zap.String("status", string(res.Status)),
				zap.Int("attempts", res.Attempts),
				zap.Error(res.Err))
		}
	}()
}

// SetPage moves to a client-side page. Out-of-range pages are clamped when the
// model is built.
func (c *Controller) SetPage(page int) error {
	if page < 1 {
		return errors.Validation("page numbers start at 1")
	}
	c.mu.Lock()
	c.page = page
	c.mu.Unlock()
	c.redraw()
	return nil
}

// Notify shows a transient notice with the next redraw. Before Start the
// notice is held for the first one.
func (c *Controller) Notify(msg string) {
	c.mu.Lock()
	c.notice = msg
	c.mu.Unlock()
	c.redraw()
}

// Model returns the current view model without consuming the notice.
func (c *Controller) Model() Model {
	c.mu.Lock()
	page, notice := c.page, c.notice
	c.mu.Unlock()

	m := Build(c.store.State(), c.adapter.Current(), page, c.pageSize, c.now())
	m.Notice = notice
	return m
}

func (c *Controller) redraw() {
	m := c.Model()

	c.mu.Lock()
	if !c.started {
		c.mu.Unlock()
		return
	}
	c.notice = ""
	renderer := c.renderer
	c.mu.Unlock()

	renderer.Render(m)
}
