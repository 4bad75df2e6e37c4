package listener

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fekuna/omnipos-product-picker/internal/catalog"
	"github.com/fekuna/omnipos-product-picker/internal/pkg/logger"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageReader is satisfied by *broker.Consumer.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

// CatalogListener flushes cached search pages whenever the catalog reports
// a product change, so pickers never page through stale results.
type CatalogListener struct {
	reader     MessageReader
	cache      catalog.Invalidator
	logger     logger.ZapLogger
	retryDelay time.Duration
}

func NewCatalogListener(reader MessageReader, cache catalog.Invalidator, logger logger.ZapLogger) *CatalogListener {
	return &CatalogListener{
		reader:     reader,
		cache:      cache,
		logger:     logger,
		retryDelay: time.Second,
	}
}

func (l *CatalogListener) Start(ctx context.Context) {
	l.logger.Info("Starting Catalog Kafka Listener")
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Stopping Catalog Kafka Listener")
			return
		default:
			msg, err := l.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				l.logger.Error("Failed to read kafka message", zap.Error(err))
				time.Sleep(l.retryDelay)
				continue
			}
			l.processMessage(ctx, msg.Value)
		}
	}
}

type ProductChangedEvent struct {
	EventID   string         `json:"event_id"`
	EventType string         `json:"event_type"`
	Payload   ProductPayload `json:"payload"`
	Timestamp time.Time      `json:"timestamp"`
}

type ProductPayload struct {
	ProductID int `json:"product_id"`
}

func isProductChange(eventType string) bool {
	switch eventType {
	case "ProductCreated", "ProductUpdated", "ProductDeleted", "VariantUpdated":
		return true
	}
	return false
}

func (l *CatalogListener) processMessage(ctx context.Context, value []byte) {
	var event ProductChangedEvent
	if err := json.Unmarshal(value, &event); err != nil {
		l.logger.Error("Failed to unmarshal event", zap.Error(err))
		return
	}
	if !isProductChange(event.EventType) {
		return
	}

	n, err := l.cache.DeletePrefix(ctx, catalog.CacheKeyPrefix)
	if err != nil {
		l.logger.Error("Failed to invalidate catalog cache",
			zap.String("event_id", event.EventID),
			zap.Error(err),
		)
		return
	}
	l.logger.Info("Catalog cache invalidated",
		zap.String("event_type", event.EventType),
		zap.Int("product_id", event.Payload.ProductID),
		zap.Int("keys", n),
	)
}
