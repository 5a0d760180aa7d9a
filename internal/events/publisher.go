// Package events provides NATS event publishing for stock-service
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/sirupsen/logrus"
)

const (
	StreamStock             = "STOCK_EVENTS"
	SubjectStockInvalidated = "inventory.stock.invalidated"
)

// StockInvalidatedEvent tells readers of estoque_geral / estoque_pronta to drop
// whatever they cached. It carries no stock data.
type StockInvalidatedEvent struct {
	EventType string    `json:"eventType"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
}

// StockEventPublisher handles publishing stock cache events to NATS
type StockEventPublisher struct {
	nc     *nats.Conn
	js     jetstream.JetStream
	logger *logrus.Entry
}

// NewStockEventPublisher connects to NATS and makes sure the stock stream exists
func NewStockEventPublisher(natsURL string, logger *logrus.Logger) (*StockEventPublisher, error) {
	if natsURL == "" {
		return nil, fmt.Errorf("NATS URL is required")
	}

	log := logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	entry := log.WithField("component", "stock-events")

	nc, err := nats.Connect(natsURL,
		nats.Name("stock-service-publisher"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			entry.WithField("url", nc.ConnectedUrl()).Info("Reconnected to NATS")
		}),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			entry.WithError(err).Warn("Disconnected from NATS")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      StreamStock,
		Subjects:  []string{"inventory.stock.>"},
		Retention: jetstream.LimitsPolicy,
		MaxAge:    24 * time.Hour,
		Storage:   jetstream.FileStorage,
		Replicas:  1,
	})
	if err != nil {
		entry.WithError(err).Warn("Failed to ensure stock stream exists")
	}

	return &StockEventPublisher{
		nc:     nc,
		js:     js,
		logger: entry,
	}, nil
}

// InvalidateStockCache publishes an inventory.stock.invalidated event
func (p *StockEventPublisher) InvalidateStockCache(ctx context.Context) error {
	event := StockInvalidatedEvent{
		EventType: SubjectStockInvalidated,
		Source:    "stock-service",
		Timestamp: time.Now().UTC(),
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	if _, err := p.js.Publish(ctx, SubjectStockInvalidated, data); err != nil {
		p.logger.WithError(err).Error("Failed to publish inventory.stock.invalidated event")
		return err
	}

	p.logger.Info("Published inventory.stock.invalidated event")
	return nil
}

// IsConnected returns true if connected to NATS
func (p *StockEventPublisher) IsConnected() bool {
	return p.nc.IsConnected()
}

// Close drains and closes the NATS connection
func (p *StockEventPublisher) Close() {
	if err := p.nc.Drain(); err != nil {
		p.nc.Close()
	}
}
