package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/grjus/youtube-news/internal/domain"
	"github.com/grjus/youtube-news/internal/logger"
	"github.com/grjus/youtube-news/internal/registry"
	"github.com/grjus/youtube-news/internal/sources/channels"
	redisstore "github.com/grjus/youtube-news/internal/store/redis"
)

// ChannelReloader periodically reloads the channel catalogue from disk and
// reconciles it with the in-memory registry. Subscription state (active
// flag, lease, renewal deadline) lives outside the catalogue file, so the
// reloader carries it over from the existing entry.
type ChannelReloader struct {
	loader   *channels.Loader
	store    *redisstore.Store
	registry *registry.Memory
	logger   logger.Logger
	interval time.Duration
	stopCh   chan struct{}
}

// NewChannelReloader creates a new channel reloader.
func NewChannelReloader(
	catalogueFile string,
	store *redisstore.Store,
	reg *registry.Memory,
	log logger.Logger,
	interval time.Duration,
) *ChannelReloader {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &ChannelReloader{
		loader:   channels.NewLoader(catalogueFile),
		store:    store,
		registry: reg,
		logger:   log,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start loads the catalogue once, then begins the periodic reload.
func (cr *ChannelReloader) Start(ctx context.Context) error {
	if err := cr.Reload(ctx); err != nil {
		return fmt.Errorf("initial catalogue load failed: %w", err)
	}

	ticker := time.NewTicker(cr.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := cr.Reload(ctx); err != nil {
					cr.logger.Error("failed to reload channel catalogue",
						logger.Error(err))
				}
			case <-cr.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the reloader.
func (cr *ChannelReloader) Stop() {
	close(cr.stopCh)
}

// Reload parses the catalogue file and updates registry + store.
func (cr *ChannelReloader) Reload(ctx context.Context) error {
	cr.logger.Info("reloading channel catalogue")

	catalogue, err := cr.loader.Load()
	if err != nil {
		return fmt.Errorf("failed to load catalogue: %w", err)
	}

	loaded, err := channels.MapChannels(catalogue)
	if err != nil {
		return fmt.Errorf("failed to map catalogue channels: %w", err)
	}

	now := time.Now()
	loadedIDs := make(map[string]bool, len(loaded))
	for _, ch := range loaded {
		loadedIDs[ch.ID] = true
		if existing, ok := cr.registry.Get(ch.ID); ok {
			ch.Active = existing.Active
			ch.LeaseSeconds = existing.LeaseSeconds
			ch.NextRenewalAt = existing.NextRenewalAt
		}
		ch.UpdatedAt = now
	}

	// Channels dropped from the catalogue keep their record but stop
	// accepting notifications.
	var retired []*domain.Channel
	for _, existing := range cr.registry.All() {
		if !loadedIDs[existing.ID] {
			existing.Active = false
			existing.UpdatedAt = now
			retired = append(retired, existing)
		}
	}
	if len(retired) > 0 {
		cr.logger.Info("deactivating channels removed from catalogue",
			logger.Int("count", len(retired)))
	}

	all := append(loaded, retired...)
	cr.registry.Update(all)

	if cr.store != nil {
		if err := cr.store.SaveChannelsMany(ctx, all); err != nil {
			// Memory registry is the primary source, keep going.
			cr.logger.Warn("failed to save channels to redis",
				logger.Error(err))
		}
	}

	cr.logger.Info("channel catalogue reloaded",
		logger.Int("count", len(loaded)))

	return nil
}
