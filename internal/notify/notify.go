// Package notify publishes committed stock-out events to a Redis stream so
// downstream consumers can react without polling the API.
package notify

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/agentstation/stocksync/pkg/constants"
	"github.com/agentstation/stocksync/pkg/errors"
	"github.com/agentstation/stocksync/pkg/inventory"
	"github.com/agentstation/stocksync/pkg/logging"
	"github.com/agentstation/stocksync/pkg/reconcile"
)

// Publisher appends stock-out events to a Redis stream.
type Publisher struct {
	client *redis.Client
	stream string
	logger *zerolog.Logger
}

// NewPublisher wraps an existing client.
func NewPublisher(client *redis.Client, stream string, logger *zerolog.Logger) *Publisher {
	if logger == nil {
		logger = logging.Default()
	}
	return &Publisher{client: client, stream: stream, logger: logger}
}

// Dial connects to addr and verifies the connection.
func Dial(ctx context.Context, addr, stream string, logger *zerolog.Logger) (*Publisher, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.NewConfigError("notify", "cannot reach redis at "+addr, err)
	}
	return NewPublisher(client, stream, logger), nil
}

// Stream returns the target stream key.
func (p *Publisher) Stream() string { return p.stream }

// Publish appends ev and returns the stream entry id.
func (p *Publisher) Publish(ctx context.Context, ev inventory.StockOutEvent) (string, error) {
	id, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]any{
			"id":               ev.ID.String(),
			"sku":              ev.SKU,
			"vendor":           ev.Vendor,
			"previousQuantity": strconv.Itoa(ev.PreviousQuantity),
			"occurredAt":       ev.OccurredAt.UTC().Format(time.RFC3339Nano),
		},
	}).Result()
	if err != nil {
		return "", errors.WrapIO("publish", p.stream, err)
	}
	return id, nil
}

// Hook returns a stock-out hook that publishes each event. Failures are
// logged; the event is already committed.
func (p *Publisher) Hook() reconcile.StockOutHook {
	return func(ev inventory.StockOutEvent) {
		ctx, cancel := context.WithTimeout(context.Background(), constants.DefaultHTTPTimeout)
		defer cancel()
		if _, err := p.Publish(ctx, ev); err != nil {
			p.logger.Warn().Err(err).
				Str("vendor", ev.Vendor).
				Str("sku", ev.SKU).
				Msg("Failed to publish stock-out event")
		}
	}
}

// Close closes the client.
func (p *Publisher) Close() error {
	return p.client.Close()
}
