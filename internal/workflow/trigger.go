package workflow

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/grjus/youtube-news/internal/domain"
	"github.com/grjus/youtube-news/internal/logger"
)

// Trigger publishes enriched notifications to a Redis stream consumed by the
// downstream processing workflow. Each message carries a generated execution
// id so consumers can correlate their logs with ours.
type Trigger struct {
	client *redis.Client
	stream string
	logger logger.Logger
}

func NewTrigger(client *redis.Client, stream string, log logger.Logger) *Trigger {
	return &Trigger{client: client, stream: stream, logger: log}
}

// Trigger appends one notification to the workflow stream.
func (t *Trigger) Trigger(ctx context.Context, n domain.EnrichedNotification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal workflow payload: %w", err)
	}

	executionID := uuid.NewString()
	if err := t.client.XAdd(ctx, &redis.XAddArgs{
		Stream: t.stream,
		Values: map[string]any{
			"execution_id": executionID,
			"payload":      payload,
		},
	}).Err(); err != nil {
		return fmt.Errorf("publish to workflow stream %s: %w", t.stream, err)
	}

	t.logger.Info("workflow triggered",
		logger.String("execution_id", executionID),
		logger.String("video_id", n.VideoID),
		logger.String("channel_id", n.ChannelID))
	return nil
}
