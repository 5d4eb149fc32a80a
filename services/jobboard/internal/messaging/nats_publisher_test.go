package messaging

import (
	"context"
	"testing"
	"time"

	"campusjobs/services/jobboard/internal/config"
	"campusjobs/services/jobboard/internal/errors"
	"campusjobs/services/jobboard/internal/models"

	"go.uber.org/zap"
)

func TestNewPublisherWithoutURLIsNop(t *testing.T) {
	publisher, err := NewPublisher(zap.NewNop(), &config.Config{})
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if _, ok := publisher.(NopPublisher); !ok {
		t.Fatalf("expected NopPublisher, got %T", publisher)
	}
	event := &models.BatchCompletedEvent{ID: "e1", Action: models.BatchApply, Count: 1, CompletedAt: time.Now()}
	if err := publisher.PublishBatchCompleted(context.Background(), event); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	publisher.Close()
}

func TestNewPublisherUnreachableServer(t *testing.T) {
	_, err := NewPublisher(zap.NewNop(), &config.Config{NATSURL: "nats://127.0.0.1:1", NATSConnTimeout: 100 * time.Millisecond})
	if !errors.Is(err, errors.ErrTypeInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}
}
