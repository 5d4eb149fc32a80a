package store

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"campusjobs/services/jobboard/internal/errors"
	"campusjobs/services/jobboard/internal/models"

	"go.uber.org/zap"
)

// SavedFilterRepository persists the saved-filter list as a whole.
type SavedFilterRepository interface {
	Load(ctx context.Context) ([]models.SavedFilter, error)
	Save(ctx context.Context, list []models.SavedFilter) error
}

// State is an immutable snapshot of the store. Version grows with every
// mutation.
type State struct {
	Filters      models.FilterCriteria
	Sort         models.SortSpec
	Selection    []models.JobID
	SavedFilters []models.SavedFilter
	Version      uint64
}

type Listener func(State)

// Store holds the filter, sort and selection state driving the job list.
// Mutations are synchronous; listeners run after the change, outside the lock.
type Store struct {
	mu        sync.Mutex
	state     State
	listeners map[int]Listener
	nextID    int

	saved  SavedFilterRepository
	logger *zap.Logger
}

func New(saved SavedFilterRepository, logger *zap.Logger) *Store {
	return &Store{
		state: State{
			Sort:         models.DefaultSort,
			SavedFilters: []models.SavedFilter{},
		},
		listeners: make(map[int]Listener),
		saved:     saved,
		logger:    logger,
	}
}

func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

func (s *Store) snapshot() State {
	st := s.state
	st.Selection = append([]models.JobID(nil), s.state.Selection...)
	st.SavedFilters = append([]models.SavedFilter{}, s.state.SavedFilters...)
	return st
}

func (s *Store) Subscribe(fn Listener) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// update applies fn under the lock and notifies listeners when fn reports a
// change.
func (s *Store) update(fn func(st *State) bool) {
	s.mu.Lock()
	if !fn(&s.state) {
		s.mu.Unlock()
		return
	}
	s.state.Version++
	snap := s.snapshot()
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.Unlock()

	for _, l := range listeners {
		l(snap)
	}
}

// SetFilter sets one dimension. Any string is accepted; empty clears it.
func (s *Store) SetFilter(d models.Dimension, value string) error {
	var err error
	s.update(func(st *State) bool {
		var next models.FilterCriteria
		next, err = st.Filters.With(d, value)
		if err != nil || next == st.Filters {
			return false
		}
		st.Filters = next
		return true
	})
	if err != nil {
		return errors.Validation(err.Error())
	}
	return nil
}

// SetLocation takes a province/city path. An empty path or "all" clears the
// location, otherwise the most specific element wins.
func (s *Store) SetLocation(path []string) error {
	value := ""
	switch {
	case len(path) == 0 || path[0] == "all":
	case len(path) == 1:
		value = path[0]
	default:
		value = path[1]
	}
	return s.SetFilter(models.Location, value)
}

// SetSort replaces the active sort.
func (s *Store) SetSort(field string, order models.SortOrder) error {
	if _, ok := models.ParseSortOrder(string(order)); !ok {
		return errors.Validation(fmt.Sprintf("unknown sort order %q", order))
	}
	next := models.SortSpec{Field: field, Order: order}
	if field == "" {
		next = models.SortSpec{}
	}
	s.update(func(st *State) bool {
		if st.Sort == next {
			return false
		}
		st.Sort = next
		return true
	})
	return nil
}

// ResetFilters clears every filter and restores the default sort.
func (s *Store) ResetFilters() {
	s.update(func(st *State) bool {
		st.Filters = models.FilterCriteria{}
		st.Sort = models.DefaultSort
		return true
	})
}

// SelectRows replaces the selection. Duplicates are dropped, order is kept.
func (s *Store) SelectRows(ids []models.JobID) {
	seen := make(map[models.JobID]struct{}, len(ids))
	selection := make([]models.JobID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		selection = append(selection, id)
	}
	s.update(func(st *State) bool {
		st.Selection = selection
		return true
	})
}

func (s *Store) ClearSelection() {
	s.update(func(st *State) bool {
		if len(st.Selection) == 0 {
			return false
		}
		st.Selection = nil
		return true
	})
}

// SaveCurrentFilters appends a snapshot of the current filters under name and
// persists the whole list. Nothing changes when the write fails.
func (s *Store) SaveCurrentFilters(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.Validation("enter a name for the filter")
	}

	s.mu.Lock()
	next := append(append([]models.SavedFilter{}, s.state.SavedFilters...), models.SavedFilter{
		Name:    name,
		Filters: s.state.Filters,
	})
	s.mu.Unlock()

	if err := s.saved.Save(ctx, next); err != nil {
		return err
	}

	s.update(func(st *State) bool {
		st.SavedFilters = next
		return true
	})
	s.logger.Info("saved filter", zap.String("name", name), zap.Int("count", len(next)))
	return nil
}

// LoadSavedFilters replaces the in-memory list with the persisted one. On a
// missing or unreadable list the store keeps an empty list; the error is
// returned only so the caller can show a notice.
func (s *Store) LoadSavedFilters(ctx context.Context) error {
	list, err := s.saved.Load(ctx)
	if list == nil {
		list = []models.SavedFilter{}
	}
	s.update(func(st *State) bool {
		st.SavedFilters = list
		return true
	})
	return err
}

// ApplySavedFilter replaces the filters with snapshot. Sort and selection are
// left alone.
func (s *Store) ApplySavedFilter(snapshot models.FilterCriteria) {
	s.update(func(st *State) bool {
		if st.Filters == snapshot {
			return false
		}
		st.Filters = snapshot
		return true
	})
}
