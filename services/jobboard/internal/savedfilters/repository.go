package savedfilters

import (
	"context"
	"errors"
	"sync"

	apperrors "campusjobs/services/jobboard/internal/errors"
	"campusjobs/services/jobboard/internal/models"

	"go.uber.org/zap"
)

// Repository reads and writes the saved-filter list as one value.
type Repository struct {
	backend     Backend
	logger      *zap.Logger
	corruptOnce sync.Once
}

func NewRepository(backend Backend, logger *zap.Logger) *Repository {
	return &Repository{backend: backend, logger: logger}
}

// Load returns the stored list. A missing key is an empty list. Corrupt data
// also yields an empty list, together with a PersistenceError; the corruption
// is logged only the first time.
func (r *Repository) Load(ctx context.Context) ([]models.SavedFilter, error) {
	data, err := r.backend.Get(ctx, StorageKey)
	if errors.Is(err, ErrNotFound) {
		return []models.SavedFilter{}, nil
	}
	if err != nil {
		r.logger.Warn("failed to read saved filters", zap.Error(err))
		return []models.SavedFilter{}, apperrors.Persistence("failed to load saved filters", err)
	}

	list, err := Decode(data)
	if err != nil {
		r.corruptOnce.Do(func() {
			r.logger.Warn("saved filters are malformed, starting with an empty list",
				zap.Int("bytes", len(data)),
				zap.Error(err))
		})
		return []models.SavedFilter{}, apperrors.Persistence("failed to load saved filters", err)
	}

	r.logger.Debug("loaded saved filters", zap.Int("count", len(list)))
	return list, nil
}

// Save overwrites the stored list.
func (r *Repository) Save(ctx context.Context, list []models.SavedFilter) error {
	data, err := Encode(list)
	if err != nil {
		return apperrors.Persistence("failed to encode saved filters", err)
	}
	if err := r.backend.Put(ctx, StorageKey, data); err != nil {
		r.logger.Error("failed to write saved filters", zap.Error(err))
		return apperrors.Persistence("failed to save filters, try again later", err)
	}
	return nil
}
