package messaging

import (
	"context"
	"encoding/json"
	"time"

	"campusjobs/common/telemetry"
	"campusjobs/services/jobboard/internal/config"
	"campusjobs/services/jobboard/internal/errors"
	"campusjobs/services/jobboard/internal/models"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

var tracer = telemetry.GetTracer("campusjobs/jobboard/messaging")

const (
	BatchCompletedSubject = "jobs.batch.completed"
)

type Publisher interface {
	PublishBatchCompleted(ctx context.Context, event *models.BatchCompletedEvent) error
	Close()
}

type natsPublisher struct {
	conn   *nats.Conn
	logger *zap.Logger
}

// NewPublisher connects to NATS, or returns a no-op publisher when no URL is
// configured.
func NewPublisher(logger *zap.Logger, config *config.Config) (Publisher, error) {
	if config.NATSURL == "" {
		logger.Debug("NATS not configured, batch events are not published")
		return NopPublisher{}, nil
	}

	opts := []nats.Option{
		nats.Name("jobboard"),
		nats.Timeout(config.NATSConnTimeout),
		nats.ReconnectWait(time.Second),
		nats.MaxReconnects(-1),
	}

	conn, err := nats.Connect(config.NATSURL, opts...)
	if err != nil {
		return nil, errors.Internal("connecting to NATS", err)
	}

	return &natsPublisher{
		conn:   conn,
		logger: logger,
	}, nil
}

func (p *natsPublisher) PublishBatchCompleted(ctx context.Context, event *models.BatchCompletedEvent) error {
	_, span := tracer.Start(ctx, "PublishBatchCompleted")
	defer span.End()

	data, err := json.Marshal(event)
	if err != nil {
		span.RecordError(err)
		return errors.Internal("marshaling batch event", err)
	}

	span.SetAttributes(
		telemetry.String("nats.subject", BatchCompletedSubject),
		telemetry.Int("message.size", len(data)),
	)

	if err := p.conn.Publish(BatchCompletedSubject, data); err != nil {
		span.RecordError(err)
		p.logger.Error("failed to publish batch event",
			zap.String("id", event.ID),
			zap.Error(err))
		return errors.Internal("publishing to NATS", err)
	}

	p.logger.Debug("published batch event",
		zap.String("id", event.ID),
		zap.String("action", string(event.Action)),
		zap.Int("count", event.Count))
	return nil
}

func (p *natsPublisher) Close() {
	if p.conn != nil {
		if err := p.conn.Drain(); err != nil {
			p.conn.Close()
		}
	}
}

type NopPublisher struct{}

func (NopPublisher) PublishBatchCompleted(context.Context, *models.BatchCompletedEvent) error {
	return nil
}

func (NopPublisher) Close() {}
