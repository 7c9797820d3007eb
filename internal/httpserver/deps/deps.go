package deps

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/grjus/youtube-news/internal/domain"
	"github.com/grjus/youtube-news/internal/ingest"
	"github.com/grjus/youtube-news/internal/logger"
	"github.com/grjus/youtube-news/internal/registry"
)

// NotificationProcessor runs the admission pipeline for one raw payload.
type NotificationProcessor interface {
	Process(ctx context.Context, body []byte) (ingest.Outcome, error)
}

// SubscriptionStore persists channel subscription state.
type SubscriptionStore interface {
	SetChannelActive(ctx context.Context, id string, active bool, leaseSeconds int, now time.Time) (*domain.Channel, error)
}

type Deps struct {
	Logger       logger.Logger
	StartTime    time.Time
	Version      string
	Commit       string
	BuildDate    string
	GoVersion    string
	TimeNow      func() time.Time // for testing, defaults to time.Now
	WebSubSecret string           // HMAC key shared with the hub
	Processor    NotificationProcessor
	Store        SubscriptionStore
	Registry     *registry.Memory
	RedisClient  *redis.Client
}

// Now returns the injected clock, falling back to time.Now.
func (d Deps) Now() time.Time {
	if d.TimeNow != nil {
		return d.TimeNow()
	}
	return time.Now()
}
