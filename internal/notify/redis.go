package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-redis/redis/v8"

	"procura.io/internal/award"
)

const DefaultStream = "procura:notifications"

// RedisStream appends notifications to a Redis stream with XADD. Delivery to
// suppliers is the job of whatever consumer group reads the stream.
type RedisStream struct {
	client *redis.Client
	stream string
	maxLen int64
}

func NewRedisStream(client *redis.Client, stream string, maxLen int64) *RedisStream {
	stream = strings.TrimSpace(stream)
	if stream == "" {
		stream = DefaultStream
	}
	return &RedisStream{client: client, stream: stream, maxLen: maxLen}
}

func (r *RedisStream) Notify(ctx context.Context, n award.Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	args := &redis.XAddArgs{
		Stream: r.stream,
		Values: map[string]interface{}{
			"type":       string(n.Type),
			"company_id": n.CompanyID,
			"rfq_id":     n.RFQID,
			"data":       string(payload),
		},
	}
	if r.maxLen > 0 {
		args.MaxLen = r.maxLen
		args.Approx = true
	}
	if err := r.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("xadd %s: %w", r.stream, err)
	}
	return nil
}

// Ping checks connectivity for readiness probes.
func (r *RedisStream) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
