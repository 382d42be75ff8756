// Package events streams per-user change notifications over Redis pub/sub.
// It is the backend for the SSE endpoint that keeps dashboards live, the
// replacement for the store-level snapshot listeners: subscribers get a
// channel of event kinds and are torn down when their context ends.
package events

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// Event kinds published on a user's channel.
const (
	KindBalanceChanged  = "balance_changed"
	KindProductsChanged = "products_changed"
	KindRequestsChanged = "requests_changed"
)

type Publisher struct {
	rdb *redis.Client
}

func NewPublisher(rdb *redis.Client) *Publisher {
	return &Publisher{rdb: rdb}
}

func channelFor(userID uint) string {
	return fmt.Sprintf("saldoya:user:%d", userID)
}

// Publish is fire-and-forget; a missed notification only delays a UI
// refresh, the store stays authoritative.
func (p *Publisher) Publish(ctx context.Context, userID uint, kind string) {
	if p == nil || p.rdb == nil {
		return
	}
	if err := p.rdb.Publish(ctx, channelFor(userID), kind).Err(); err != nil {
		slog.Warn("Failed to publish user event", "user_id", userID, "kind", kind, "error", err)
	}
}

// Subscribe returns a channel of event kinds for one user. The subscription
// closes when ctx is canceled; the returned channel is then closed too.
func (p *Publisher) Subscribe(ctx context.Context, userID uint) <-chan string {
	out := make(chan string, 8)
	if p == nil || p.rdb == nil {
		close(out)
		return out
	}

	sub := p.rdb.Subscribe(ctx, channelFor(userID))

	go func() {
		defer close(out)
		defer sub.Close()

		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				select {
				case out <- msg.Payload:
				default:
					// Slow consumer; drop rather than block the reader loop.
				}
			}
		}
	}()

	return out
}
