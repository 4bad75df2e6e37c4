package publisher

import (
	"context"
	"encoding/json"

	"github.com/fekuna/omnipos-product-picker/internal/editor"
	"github.com/fekuna/omnipos-product-picker/internal/editor/dto"
	"github.com/fekuna/omnipos-product-picker/internal/pkg/logger"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Producer is satisfied by *broker.Producer.
type Producer interface {
	Publish(ctx context.Context, key, value []byte) error
	Close() error
}

type kafkaPublisher struct {
	producer Producer
	logger   logger.ZapLogger
}

// NewKafkaPublisher writes each event as JSON keyed by list id, so the
// changes of one list stay ordered within a partition.
func NewKafkaPublisher(p Producer, log logger.ZapLogger) editor.Publisher {
	return &kafkaPublisher{producer: p, logger: log}
}

func (p *kafkaPublisher) PublishListChanged(ctx context.Context, event *dto.ListChangedEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "marshal list changed event")
	}
	if err := p.producer.Publish(ctx, []byte(event.ListID), value); err != nil {
		return errors.Wrapf(err, "publish event %s", event.EventID)
	}
	p.logger.Debug("list change published", zap.String("list_id", event.ListID), zap.String("event_id", event.EventID))
	return nil
}

func (p *kafkaPublisher) Close() error {
	return p.producer.Close()
}

type nopPublisher struct {
	logger logger.ZapLogger
}

// NewNopPublisher drops events. Used when no brokers are configured.
func NewNopPublisher(log logger.ZapLogger) editor.Publisher {
	return &nopPublisher{logger: log}
}

func (p *nopPublisher) PublishListChanged(ctx context.Context, event *dto.ListChangedEvent) error {
	p.logger.Debug("list change dropped, no broker configured", zap.String("list_id", event.ListID))
	return nil
}

func (p *nopPublisher) Close() error { return nil }
