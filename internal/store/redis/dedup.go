package redis

import (
	"context"
	"fmt"
	"time"
)

// DefaultDedupTTL bounds how long an admission marker blocks redelivery.
// Re-delivery beyond this window is considered improbable enough not to
// warrant indefinite storage.
const DefaultDedupTTL = 24 * time.Hour

// Admit claims the (channel, video) pair with a single SET NX write.
// It returns true exactly once per pair within the marker TTL; every other
// concurrent or later attempt sees false. This is the sole primitive
// guaranteeing at-most-once downstream triggering under redelivery.
func (s *Store) Admit(ctx context.Context, channelID, videoID string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		ttl = DefaultDedupTTL
	}
	admitted, err := s.client.SetNX(ctx, DedupKey(channelID, videoID), time.Now().UnixMilli(), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to write admission marker: %w", err)
	}
	return admitted, nil
}
