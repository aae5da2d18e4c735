package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/lifelink/coordination-api/internal/core/domain"
	"github.com/lifelink/coordination-api/internal/core/ports"
)

const channelPrefix = "lifelink:notifications:"

// Notifier publishes workflow events on a per-principal Redis channel so
// connected clients can subscribe to their own feed.
type Notifier struct {
	client *redis.Client
}

var _ ports.Notifier = (*Notifier)(nil)

func NewNotifier(client *redis.Client) *Notifier {
	return &Notifier{client: client}
}

// Channel returns the pub/sub channel for a principal.
func Channel(audienceID string) string { return channelPrefix + audienceID }

func (n *Notifier) Notify(ctx context.Context, ev domain.WorkflowEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	if err := n.client.Publish(ctx, Channel(ev.AudienceID), payload).Err(); err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	return nil
}
