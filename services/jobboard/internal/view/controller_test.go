package view

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"campusjobs/common/cache"
	"campusjobs/common/cache/memory"
	"campusjobs/services/jobboard/internal/api"
	"campusjobs/services/jobboard/internal/config"
	"campusjobs/services/jobboard/internal/models"
	"campusjobs/services/jobboard/internal/query"
	"campusjobs/services/jobboard/internal/store"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type nopRepository struct{}

func (nopRepository) Load(context.Context) ([]models.SavedFilter, error) { return nil, nil }
func (nopRepository) Save(context.Context, []models.SavedFilter) error   { return nil }

type recorder struct {
	mu     sync.Mutex
	models []Model
	ch     chan Model
}

func (r *recorder) Render(m Model) {
	r.mu.Lock()
	r.models = append(r.models, m)
	r.mu.Unlock()
	if m.Status == query.StatusSuccess {
		select {
		case r.ch <- m:
		default:
		}
	}
}

func (r *recorder) waitSuccess(t *testing.T) Model {
	t.Helper()
	select {
	case m := <-r.ch:
		return m
	case <-time.After(2 * time.Second):
		t.Fatalf("no successful render")
		return Model{}
	}
}

func TestControllerFetchesOnFilterChange(t *testing.T) {
	queries := make(chan string, 10)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		queries <- r.URL.RawQuery
		_, _ = io.WriteString(w, `{"jobs":[{"id":1,"title":"Engineer"}],"total":1}`)
	}))
	defer server.Close()

	cfg := &config.Config{APIBaseURL: server.URL, RequestTimeout: time.Second, CacheTTL: time.Minute, PageSize: 10}
	c := memory.New(cache.Options{})
	defer c.Close()
	s := store.New(nopRepository{}, zap.NewNop())
	adapter := query.NewAdapter(api.NewJobsClient(zap.NewNop(), cfg), c, zap.NewNop(), cfg)
	controller := NewController(s, adapter, zap.NewNop(), cfg)

	rec := &recorder{ch: make(chan Model, 10)}
	controller.Notify("saved filters unavailable")
	controller.Start(context.Background(), rec)
	defer controller.Stop()

	rec.waitSuccess(t)
	rec.mu.Lock()
	first := rec.models[0]
	rec.mu.Unlock()
	if first.Notice != "saved filters unavailable" {
		t.Fatalf("expected held notice on first render, got %q", first.Notice)
	}
	if q := <-queries; q != "sort_field=posted_at&sort_order=descend" {
		t.Fatalf("unexpected initial query %q", q)
	}

	_ = s.SetFilter(models.Keyword, "backend")
	m := rec.waitSuccess(t)
	if q := <-queries; q != "keyword=backend&sort_field=posted_at&sort_order=descend" {
		t.Fatalf("unexpected query %q", q)
	}
	if m.Total != 1 || len(m.Rows) != 1 {
		t.Fatalf("unexpected model %+v", m)
	}

	s.SelectRows([]models.JobID{"1"})
	select {
	case q := <-queries:
		t.Fatalf("selection must not trigger a query, got %q", q)
	case <-time.After(50 * time.Millisecond):
	}
	if got := controller.Model(); len(got.Selection) != 1 || !got.Rows[0].Selected {
		t.Fatalf("selection not in model %+v", got)
	}
}

func newTestController(t *testing.T, handler http.HandlerFunc) (*Controller, *store.Store, *query.Adapter) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := &config.Config{APIBaseURL: server.URL, RequestTimeout: time.Second, CacheTTL: time.Minute, PageSize: 10}
	c := memory.New(cache.Options{})
	t.Cleanup(func() { c.Close() })
	s := store.New(nopRepository{}, zap.NewNop())
	adapter := query.NewAdapter(api.NewJobsClient(zap.NewNop(), cfg), c, zap.NewNop(), cfg)
	return NewController(s, adapter, zap.NewNop(), cfg), s, adapter
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestLatestFilterChangeWins(t *testing.T) {
	for round := 0; round < 20; round++ {
		controller, s, adapter := newTestController(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{"jobs":[],"total":0}`)
		})
		controller.Start(context.Background(), RenderFunc(func(Model) {}))

		_ = s.SetFilter(models.Keyword, "old")
		_ = s.SetFilter(models.Keyword, "new")
		controller.Stop()

		res := adapter.Current()
		if res.Filters.Keyword != "new" || res.Status != query.StatusSuccess {
			t.Fatalf("round %d: expected success for keyword new, got %q (%s)", round, res.Filters.Keyword, res.Status)
		}
	}
}

func TestFilterChangeResetsPage(t *testing.T) {
	controller, s, adapter := newTestController(t, func(w http.ResponseWriter, r *http.Request) {
		jobs := make([]string, 25)
		for i := range jobs {
			jobs[i] = fmt.Sprintf(`{"id":%d}`, i+1)
		}
		_, _ = io.WriteString(w, `{"jobs":[`+strings.Join(jobs, ",")+`],"total":25}`)
	})
	controller.Start(context.Background(), RenderFunc(func(Model) {}))
	defer controller.Stop()

	waitFor(t, func() bool { return adapter.Current().Status == query.StatusSuccess })
	if err := controller.SetPage(3); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if m := controller.Model(); m.Page != 3 || m.PageCount != 3 || len(m.Rows) != 5 {
		t.Fatalf("expected last page of 5 rows, got page %d/%d with %d rows", m.Page, m.PageCount, len(m.Rows))
	}

	_ = s.SetFilter(models.JobType, "intern")
	if m := controller.Model(); m.Page != 1 {
		t.Fatalf("expected page 1 after filter change, got %d", m.Page)
	}
}

func TestFailedQueryIsLogged(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"message":"db down"}`)
	}))
	defer server.Close()

	core, logs := observer.New(zap.DebugLevel)
	cfg := &config.Config{APIBaseURL: server.URL, RequestTimeout: time.Second, CacheTTL: time.Minute, PageSize: 10}
	c := memory.New(cache.Options{})
	defer c.Close()
	s := store.New(nopRepository{}, zap.NewNop())
	adapter := query.NewAdapter(api.NewJobsClient(zap.NewNop(), cfg), c, zap.NewNop(), cfg)
	controller := NewController(s, adapter, zap.New(core), cfg)

	controller.Start(context.Background(), RenderFunc(func(Model) {}))
	controller.Stop()

	entries := logs.FilterMessage("job list unavailable").All()
	if len(entries) != 1 {
		t.Fatalf("expected one failure log, got %d", len(entries))
	}
	if got := entries[0].ContextMap()["status"]; got != string(query.StatusAPIError) {
		t.Fatalf("expected api-error status field, got %v", got)
	}
}
