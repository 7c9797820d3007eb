package scheduler

import (
	"context"

	"github.com/grjus/youtube-news/internal/logger"
	"github.com/grjus/youtube-news/internal/registry"
	redisstore "github.com/grjus/youtube-news/internal/store/redis"
)

// ChannelSyncer restores channel state from Redis into the registry on
// startup, so subscription leases survive restarts. It runs before the
// first catalogue load, which then merges the restored state.
type ChannelSyncer struct {
	store    *redisstore.Store
	registry *registry.Memory
	logger   logger.Logger
}

// NewChannelSyncer creates a new channel syncer.
func NewChannelSyncer(
	store *redisstore.Store,
	reg *registry.Memory,
	log logger.Logger,
) *ChannelSyncer {
	return &ChannelSyncer{
		store:    store,
		registry: reg,
		logger:   log,
	}
}

// Sync loads channels from Redis and updates the registry.
func (cs *ChannelSyncer) Sync(ctx context.Context) error {
	cs.logger.Info("restoring channel state from redis")

	channels, err := cs.store.GetAllChannels(ctx)
	if err != nil {
		return err
	}

	if len(channels) == 0 {
		cs.logger.Info("no channel state found in redis")
		return nil
	}

	cs.registry.Update(channels)

	cs.logger.Info("restored channel state from redis",
		logger.Int("count", len(channels)))

	return nil
}
