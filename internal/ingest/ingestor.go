package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/grjus/youtube-news/internal/domain"
	"github.com/grjus/youtube-news/internal/logger"
	redisstore "github.com/grjus/youtube-news/internal/store/redis"
	"github.com/grjus/youtube-news/internal/youtube"
)

// Outcome describes what happened to one inbound notification. Everything
// except OutcomeAdmitted is a no-op for downstream processing.
type Outcome string

const (
	OutcomeAdmitted  Outcome = "ADMITTED"
	OutcomeDuplicate Outcome = "DUPLICATE"
	OutcomeStale     Outcome = "STALE"
	OutcomeIgnored   Outcome = "IGNORED"
)

// MetadataProvider returns a fresh video metadata snapshot.
type MetadataProvider interface {
	VideoMetadata(ctx context.Context, videoID string) (*domain.VideoMetadata, error)
}

// AdmissionGate claims a (channel, video) pair exactly once per TTL window.
type AdmissionGate interface {
	Admit(ctx context.Context, channelID, videoID string, ttl time.Duration) (bool, error)
}

// NotificationStore persists admission outcomes.
type NotificationStore interface {
	CreateNotification(ctx context.Context, rec *domain.NotificationRecord) error
}

// ChannelRegistry resolves subscribed channels.
type ChannelRegistry interface {
	Get(id string) (*domain.Channel, bool)
}

// WorkflowTrigger starts the downstream processing pipeline.
type WorkflowTrigger interface {
	Trigger(ctx context.Context, n domain.EnrichedNotification) error
}

// Ingestor runs the admission pipeline for inbound WebSub notifications:
// parse, staleness policy, registry check, dedup gate, classify, route,
// persist, and trigger. The gate write strictly precedes the trigger, so
// the trigger fires at most once per (channel, video) under redelivery.
type Ingestor struct {
	metadata  MetadataProvider
	gate      AdmissionGate
	store     NotificationStore
	registry  ChannelRegistry
	trigger   WorkflowTrigger
	logger    logger.Logger
	staleness time.Duration
	dedupTTL  time.Duration
	now       func() time.Time
}

// Options tunes the admission policy.
type Options struct {
	Staleness time.Duration // drop notifications older than this (default 24h)
	DedupTTL  time.Duration // admission marker lifetime (default 24h)
	Now       func() time.Time
}

// New creates an ingestor.
func New(
	metadata MetadataProvider,
	gate AdmissionGate,
	store NotificationStore,
	registry ChannelRegistry,
	trigger WorkflowTrigger,
	log logger.Logger,
	opts Options,
) *Ingestor {
	if opts.Staleness <= 0 {
		opts.Staleness = 24 * time.Hour
	}
	if opts.DedupTTL <= 0 {
		opts.DedupTTL = redisstore.DefaultDedupTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Ingestor{
		metadata:  metadata,
		gate:      gate,
		store:     store,
		registry:  registry,
		trigger:   trigger,
		logger:    log,
		staleness: opts.Staleness,
		dedupTTL:  opts.DedupTTL,
		now:       opts.Now,
	}
}

// Process handles one verified notification payload. A nil error means the
// notification was fully handled (including the deliberate no-op cases);
// an error means the transport may retry, which the gate makes harmless.
func (in *Ingestor) Process(ctx context.Context, body []byte) (Outcome, error) {
	now := in.now()

	notification, err := youtube.ParseNotification(body)
	if err != nil {
		// Malformed payloads are acknowledged, never retried: redelivery
		// would produce the same garbage.
		in.logger.Warn("unparseable notification payload", logger.Error(err))
		return OutcomeIgnored, nil
	}
	if notification == nil {
		in.logger.Debug("notification without video entry, ignoring")
		return OutcomeIgnored, nil
	}

	channel, ok := in.registry.Get(notification.ChannelID)
	if !ok {
		in.logger.Warn("notification for unregistered channel",
			logger.String("channel_id", notification.ChannelID),
			logger.String("video_id", notification.VideoID))
		return OutcomeIgnored, nil
	}
	if !channel.Active {
		in.logger.Warn("notification for channel without active subscription",
			logger.String("channel_id", notification.ChannelID),
			logger.String("video_id", notification.VideoID))
		return OutcomeIgnored, nil
	}

	// Staleness is checked before admission so stale redeliveries never
	// burn the dedup marker. Upcoming broadcasts are exempt: their
	// published-at stays fixed while the premiere may be far in the future.
	var md *domain.VideoMetadata
	if now.Sub(notification.PublishedAt) > in.staleness {
		md, err = in.metadata.VideoMetadata(ctx, notification.VideoID)
		if err != nil {
			return OutcomeIgnored, fmt.Errorf("metadata fetch for staleness check: %w", err)
		}
		if md.LiveBroadcastContent != domain.BroadcastUpcoming {
			in.logger.Warn("dropping stale notification",
				logger.String("video_id", notification.VideoID),
				logger.Time("published_at", notification.PublishedAt))
			return OutcomeStale, nil
		}
	}

	admitted, err := in.gate.Admit(ctx, notification.ChannelID, notification.VideoID, in.dedupTTL)
	if err != nil {
		return OutcomeIgnored, fmt.Errorf("admission gate: %w", err)
	}
	if !admitted {
		in.logger.Info("duplicate notification suppressed",
			logger.String("channel_id", notification.ChannelID),
			logger.String("video_id", notification.VideoID))
		return OutcomeDuplicate, nil
	}

	if md == nil {
		md, err = in.metadata.VideoMetadata(ctx, notification.VideoID)
		if err != nil {
			return OutcomeIgnored, fmt.Errorf("metadata fetch: %w", err)
		}
	}

	videoType, err := domain.Classify(*md)
	if err != nil {
		in.logger.Warn("classification failed, skipping video",
			logger.String("video_id", notification.VideoID),
			logger.Error(err))
		return OutcomeIgnored, nil
	}
	mode, err := domain.Route(*md, videoType, now)
	if err != nil {
		in.logger.Warn("routing failed, skipping video",
			logger.String("video_id", notification.VideoID),
			logger.Error(err))
		return OutcomeIgnored, nil
	}

	rec := &domain.NotificationRecord{
		ChannelID:    notification.ChannelID,
		VideoID:      notification.VideoID,
		VideoTitle:   notification.Title,
		ChannelTitle: md.ChannelTitle,
		ChannelURI:   md.ChannelURI,
		PublishedAt:  notification.PublishedAt,
		VideoType:    videoType,
		Captions:     md.Captions,
		Genre:        channel.Genre,
		Mode:         mode,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := in.store.CreateNotification(ctx, rec); err != nil {
		if errors.Is(err, redisstore.ErrAlreadyExists) {
			// A record can outlive its dedup marker; treat this like a
			// duplicate, not a failure.
			in.logger.Warn("record already exists, suppressing",
				logger.String("channel_id", rec.ChannelID),
				logger.String("video_id", rec.VideoID))
			return OutcomeDuplicate, nil
		}
		return OutcomeIgnored, fmt.Errorf("persist notification record: %w", err)
	}

	in.logger.Info("notification admitted",
		logger.String("channel_id", rec.ChannelID),
		logger.String("video_id", rec.VideoID),
		logger.String("video_type", string(videoType)),
		logger.String("mode", string(mode)))

	if mode == domain.ModeImmediate {
		if err := in.trigger.Trigger(ctx, rec.Enriched()); err != nil {
			return OutcomeAdmitted, fmt.Errorf("workflow trigger: %w", err)
		}
	}
	return OutcomeAdmitted, nil
}
