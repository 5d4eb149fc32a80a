package batch

import (
	"context"
	"time"

	"campusjobs/services/jobboard/internal/api"
	"campusjobs/services/jobboard/internal/errors"
	"campusjobs/services/jobboard/internal/messaging"
	"campusjobs/services/jobboard/internal/models"
	"campusjobs/services/jobboard/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Confirmer asks the user to approve a batch action on count jobs.
type Confirmer interface {
	Confirm(ctx context.Context, action models.BatchAction, count int) (bool, error)
}

type ConfirmFunc func(ctx context.Context, action models.BatchAction, count int) (bool, error)

func (f ConfirmFunc) Confirm(ctx context.Context, action models.BatchAction, count int) (bool, error) {
	return f(ctx, action, count)
}

// AlwaysConfirm approves every action.
var AlwaysConfirm = ConfirmFunc(func(context.Context, models.BatchAction, int) (bool, error) {
	return true, nil
})

type Result struct {
	Action    models.BatchAction
	Count     int
	Confirmed bool
}

// Dispatcher applies a batch action to the current selection. The backend call
// is all-or-nothing and is not retried.
type Dispatcher struct {
	client    api.JobsClient
	store     *store.Store
	publisher messaging.Publisher
	logger    *zap.Logger
	now       func() time.Time
}

func NewDispatcher(client api.JobsClient, s *store.Store, publisher messaging.Publisher, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		client:    client,
		store:     s,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

func (d *Dispatcher) Run(ctx context.Context, action models.BatchAction, confirmer Confirmer) (Result, error) {
	if _, ok := models.ParseBatchAction(string(action)); !ok {
		return Result{Action: action}, errors.Validation("unknown batch action " + string(action))
	}

	ids := d.store.State().Selection
	if len(ids) == 0 {
		return Result{Action: action}, errors.Validation("select jobs first")
	}

	ok, err := confirmer.Confirm(ctx, action, len(ids))
	if err != nil {
		return Result{Action: action}, err
	}
	if !ok {
		d.logger.Debug("batch action declined", zap.String("action", string(action)))
		return Result{Action: action}, nil
	}

	if err := d.client.BatchAction(ctx, action, ids); err != nil {
		d.logger.Warn("batch action failed",
			zap.String("action", string(action)),
			zap.Int("count", len(ids)),
			zap.Error(err))
		return Result{Action: action, Confirmed: true}, err
	}

	d.store.ClearSelection()
	d.logger.Info("batch action completed",
		zap.String("action", string(action)),
		zap.Int("count", len(ids)))

	event := &models.BatchCompletedEvent{
		ID:          uuid.NewString(),
		Action:      action,
		JobIDs:      ids,
		Count:       len(ids),
		CompletedAt: d.now().UTC(),
	}
	if err := d.publisher.PublishBatchCompleted(ctx, event); err != nil {
		d.logger.Warn("failed to publish batch event", zap.Error(err))
	}

	return Result{Action: action, Count: len(ids), Confirmed: true}, nil
}
