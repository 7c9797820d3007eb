package scheduler

import (
	"context"
	"time"

	"github.com/grjus/youtube-news/internal/domain"
	"github.com/grjus/youtube-news/internal/logger"
)

const (
	// DefaultPromoteCutoff is how long a scheduled notification must sit
	// before the promoter re-evaluates it.
	DefaultPromoteCutoff = time.Hour

	// DefaultPromoteBatch caps how many notifications one sweep handles.
	DefaultPromoteBatch = 25

	// DefaultPromoteInterval is the sweep cadence when none is configured.
	DefaultPromoteInterval = time.Hour
)

// NotificationSource is the slice of the store the promoter needs.
type NotificationSource interface {
	ScheduledBefore(ctx context.Context, cutoff time.Time, limit int) ([]*domain.NotificationRecord, error)
	TransitionMode(ctx context.Context, channelID, videoID string, mode domain.ProcessingMode, now time.Time) (bool, error)
}

// MetadataProvider returns a fresh video metadata snapshot.
type MetadataProvider interface {
	VideoMetadata(ctx context.Context, videoID string) (*domain.VideoMetadata, error)
}

// WorkflowTrigger starts the downstream processing pipeline.
type WorkflowTrigger interface {
	Trigger(ctx context.Context, n domain.EnrichedNotification) error
}

// Promoter periodically re-evaluates scheduled notifications: livestreams
// and premieres that have since ended (or were taken private) get moved to
// their final mode. The trigger fires before the mode is finalized, so a
// workflow outage leaves the record scheduled and the next sweep retries;
// downstream consumers dedupe on (channel, video) and tolerate the rare
// duplicate this produces.
type Promoter struct {
	store    NotificationSource
	metadata MetadataProvider
	trigger  WorkflowTrigger
	logger   logger.Logger
	interval time.Duration
	cutoff   time.Duration
	batch    int
	now      func() time.Time
	stopCh   chan struct{}
}

// NewPromoter creates a new promoter.
func NewPromoter(
	store NotificationSource,
	metadata MetadataProvider,
	trigger WorkflowTrigger,
	log logger.Logger,
	interval time.Duration,
	cutoff time.Duration,
	batch int,
) *Promoter {
	if interval <= 0 {
		interval = DefaultPromoteInterval
	}
	if cutoff <= 0 {
		cutoff = DefaultPromoteCutoff
	}
	if batch <= 0 {
		batch = DefaultPromoteBatch
	}

	return &Promoter{
		store:    store,
		metadata: metadata,
		trigger:  trigger,
		logger:   log,
		interval: interval,
		cutoff:   cutoff,
		batch:    batch,
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the periodic promotion sweep.
func (p *Promoter) Start(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := p.Promote(ctx); err != nil {
					p.logger.Error("promotion sweep failed",
						logger.Error(err))
				}
			case <-p.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the promoter.
func (p *Promoter) Stop() {
	close(p.stopCh)
}

// Promote re-evaluates one batch of scheduled notifications. A failure on
// one notification never blocks the rest of the batch; the item stays
// scheduled and gets retried on the next sweep.
func (p *Promoter) Promote(ctx context.Context) error {
	now := p.now()

	records, err := p.store.ScheduledBefore(ctx, now.Add(-p.cutoff), p.batch)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		p.logger.Debug("no scheduled notifications due for re-evaluation")
		return nil
	}

	promoted, skipped := 0, 0
	for _, rec := range records {
		mode, err := p.promoteOne(ctx, rec, now)
		if err != nil {
			p.logger.Warn("failed to re-evaluate notification",
				logger.String("channel_id", rec.ChannelID),
				logger.String("video_id", rec.VideoID),
				logger.Error(err))
			continue
		}
		switch mode {
		case domain.ModeImmediate:
			promoted++
		case domain.ModeSkip:
			skipped++
		}
	}

	p.logger.Info("promotion sweep completed",
		logger.Int("evaluated", len(records)),
		logger.Int("promoted", promoted),
		logger.Int("skipped", skipped))

	return nil
}

// promoteOne re-classifies a single notification against fresh metadata and
// applies the resulting mode. Returns the mode the record ended up in.
func (p *Promoter) promoteOne(ctx context.Context, rec *domain.NotificationRecord, now time.Time) (domain.ProcessingMode, error) {
	md, err := p.metadata.VideoMetadata(ctx, rec.VideoID)
	if err != nil {
		return rec.Mode, err
	}

	videoType, err := domain.Classify(*md)
	if err != nil {
		return rec.Mode, err
	}
	mode, err := domain.Route(*md, videoType, now)
	if err != nil {
		return rec.Mode, err
	}

	if mode == domain.ModeScheduled {
		// Still live or still waiting; check again next sweep.
		return mode, nil
	}

	if mode == domain.ModeImmediate {
		rec.VideoType = videoType
		rec.Captions = md.Captions
		rec.Mode = mode
		rec.UpdatedAt = now
		// Trigger before finalizing the mode: a failed trigger keeps the
		// record scheduled, so the next sweep retries it instead of the
		// video dropping out of the index untriggered.
		if err := p.trigger.Trigger(ctx, rec.Enriched()); err != nil {
			return domain.ModeScheduled, err
		}
	}

	applied, err := p.store.TransitionMode(ctx, rec.ChannelID, rec.VideoID, mode, now)
	if err != nil {
		return rec.Mode, err
	}
	if !applied {
		// Another instance got there first.
		p.logger.Debug("notification already transitioned elsewhere",
			logger.String("channel_id", rec.ChannelID),
			logger.String("video_id", rec.VideoID))
		return rec.Mode, nil
	}

	p.logger.Info("scheduled notification re-evaluated",
		logger.String("channel_id", rec.ChannelID),
		logger.String("video_id", rec.VideoID),
		logger.String("video_type", string(videoType)),
		logger.String("mode", string(mode)))

	return mode, nil
}
