package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// Notification is one owner-facing message handed to the delivery collaborator.
type Notification struct {
	Type        string                 `json:"type"`
	RecipientID int64                  `json:"recipient_id"`
	Subject     string                 `json:"subject"`
	Message     string                 `json:"message"`
	Payload     map[string]interface{} `json:"payload,omitempty"`
	EnqueuedAt  time.Time              `json:"enqueued_at"`
}

// Queue pushes notifications onto a redis list consumed by the delivery
// service. Enqueue failures are the caller's to log and swallow.
type Queue struct {
	client *redis.Client
	key    string
}

// NewQueue returns a redis-backed queue.
func NewQueue(client *redis.Client, key string) *Queue {
	if key == "" {
		key = "notifications:outbox"
	}
	return &Queue{client: client, key: key}
}

// Enqueue appends one notification.
func (q *Queue) Enqueue(ctx context.Context, n Notification) error {
	if n.EnqueuedAt.IsZero() {
		n.EnqueuedAt = time.Now().UTC()
	}
	data, err := json.Marshal(n)
	if err != nil {
		return err
	}
	return q.client.LPush(ctx, q.key, data).Err()
}
