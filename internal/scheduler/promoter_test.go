package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grjus/youtube-news/internal/domain"
	"github.com/grjus/youtube-news/internal/logger"
)

type fakeSource struct {
	mu          sync.Mutex
	records     []*domain.NotificationRecord
	transitions map[string]domain.ProcessingMode
	casDenied   bool
}

func newFakeSource(records ...*domain.NotificationRecord) *fakeSource {
	return &fakeSource{
		records:     records,
		transitions: make(map[string]domain.ProcessingMode),
	}
}

func (f *fakeSource) ScheduledBefore(_ context.Context, _ time.Time, _ int) ([]*domain.NotificationRecord, error) {
	return f.records, nil
}

func (f *fakeSource) TransitionMode(_ context.Context, channelID, videoID string, mode domain.ProcessingMode, _ time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.casDenied {
		return false, nil
	}
	f.transitions[channelID+":"+videoID] = mode
	return true, nil
}

type fakeVideos struct {
	byID map[string]*domain.VideoMetadata
	errs map[string]error
}

func (f *fakeVideos) VideoMetadata(_ context.Context, videoID string) (*domain.VideoMetadata, error) {
	if err := f.errs[videoID]; err != nil {
		return nil, err
	}
	md, ok := f.byID[videoID]
	if !ok {
		return nil, errors.New("video not found")
	}
	snapshot := *md
	return &snapshot, nil
}

type recordingTrigger struct {
	mu       sync.Mutex
	err      error
	payloads []domain.EnrichedNotification
}

func (r *recordingTrigger) Trigger(_ context.Context, n domain.EnrichedNotification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.payloads = append(r.payloads, n)
	return nil
}

func (r *recordingTrigger) fail(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

func scheduledRecord(videoID string) *domain.NotificationRecord {
	now := time.Now()
	return &domain.NotificationRecord{
		ChannelID:   "UCuAXFkgsw1L7xaCfnd5JJOw",
		VideoID:     videoID,
		VideoTitle:  "Stream",
		PublishedAt: now.Add(-3 * time.Hour),
		VideoType:   domain.TypeLive,
		Genre:       domain.GenreScience,
		Mode:        domain.ModeScheduled,
		CreatedAt:   now.Add(-2 * time.Hour),
		UpdatedAt:   now.Add(-2 * time.Hour),
	}
}

func endedStreamMetadata(videoID string) *domain.VideoMetadata {
	now := time.Now()
	return &domain.VideoMetadata{
		VideoID:              videoID,
		ChannelID:            "UCuAXFkgsw1L7xaCfnd5JJOw",
		Title:                "Stream",
		Duration:             "PT30M",
		LiveBroadcastContent: domain.BroadcastNone,
		PrivacyStatus:        domain.PrivacyPublic,
		LiveStreamingDetails: &domain.LiveStreamingDetails{
			ActualStartTime: now.Add(-90 * time.Minute),
			ActualEndTime:   now.Add(-time.Hour),
		},
	}
}

func newTestPromoter(src *fakeSource, videos *fakeVideos, trigger *recordingTrigger) *Promoter {
	return NewPromoter(src, videos, trigger, logger.New("error", false), time.Hour, DefaultPromoteCutoff, DefaultPromoteBatch)
}

func TestPromoteEndedStream(t *testing.T) {
	rec := scheduledRecord("vid-ended")
	src := newFakeSource(rec)
	videos := &fakeVideos{byID: map[string]*domain.VideoMetadata{
		"vid-ended": endedStreamMetadata("vid-ended"),
	}}
	trigger := &recordingTrigger{}

	require.NoError(t, newTestPromoter(src, videos, trigger).Promote(context.Background()))

	assert.Equal(t, domain.ModeImmediate, src.transitions[rec.ChannelID+":"+rec.VideoID])
	require.Len(t, trigger.payloads, 1)
	assert.Equal(t, "vid-ended", trigger.payloads[0].VideoID)
	assert.Equal(t, domain.TypeStandard, trigger.payloads[0].VideoType)
}

func TestPromoteStillLiveUntouched(t *testing.T) {
	rec := scheduledRecord("vid-live")
	md := endedStreamMetadata("vid-live")
	md.LiveBroadcastContent = domain.BroadcastLive
	md.LiveStreamingDetails.ActualEndTime = time.Time{}
	src := newFakeSource(rec)
	videos := &fakeVideos{byID: map[string]*domain.VideoMetadata{"vid-live": md}}
	trigger := &recordingTrigger{}

	require.NoError(t, newTestPromoter(src, videos, trigger).Promote(context.Background()))

	assert.Empty(t, src.transitions)
	assert.Empty(t, trigger.payloads)
}

func TestPromotePrivateStreamSkipped(t *testing.T) {
	rec := scheduledRecord("vid-private")
	md := endedStreamMetadata("vid-private")
	md.PrivacyStatus = domain.PrivacyPrivate
	src := newFakeSource(rec)
	videos := &fakeVideos{byID: map[string]*domain.VideoMetadata{"vid-private": md}}
	trigger := &recordingTrigger{}

	require.NoError(t, newTestPromoter(src, videos, trigger).Promote(context.Background()))

	assert.Equal(t, domain.ModeSkip, src.transitions[rec.ChannelID+":"+rec.VideoID])
	assert.Empty(t, trigger.payloads)
}

func TestPromoteTriggerFailureKeepsRecordScheduled(t *testing.T) {
	rec := scheduledRecord("vid-retried")
	src := newFakeSource(rec)
	videos := &fakeVideos{byID: map[string]*domain.VideoMetadata{
		"vid-retried": endedStreamMetadata("vid-retried"),
	}}
	trigger := &recordingTrigger{}
	trigger.fail(errors.New("workflow stream unavailable"))
	promoter := newTestPromoter(src, videos, trigger)

	// Failed trigger: the record must not leave the scheduled index.
	require.NoError(t, promoter.Promote(context.Background()))
	assert.Empty(t, src.transitions)
	assert.Empty(t, trigger.payloads)

	// Next sweep, workflow back up: triggered and finalized.
	trigger.fail(nil)
	require.NoError(t, promoter.Promote(context.Background()))
	assert.Equal(t, domain.ModeImmediate, src.transitions[rec.ChannelID+":"+rec.VideoID])
	require.Len(t, trigger.payloads, 1)
	assert.Equal(t, "vid-retried", trigger.payloads[0].VideoID)
}

func TestPromoteLostRaceLeavesRecordUntouched(t *testing.T) {
	rec := scheduledRecord("vid-raced")
	src := newFakeSource(rec)
	src.casDenied = true
	videos := &fakeVideos{byID: map[string]*domain.VideoMetadata{
		"vid-raced": endedStreamMetadata("vid-raced"),
	}}
	trigger := &recordingTrigger{}

	require.NoError(t, newTestPromoter(src, videos, trigger).Promote(context.Background()))

	// The trigger fires before the conditional transition, so losing the
	// race yields a duplicate delivery rather than a lost one.
	assert.Empty(t, src.transitions)
	assert.Len(t, trigger.payloads, 1)
}

func TestNewPromoterDefaultsIntervals(t *testing.T) {
	p := NewPromoter(newFakeSource(), &fakeVideos{}, &recordingTrigger{}, logger.New("error", false), 0, 0, 0)

	assert.Equal(t, DefaultPromoteInterval, p.interval)
	assert.Equal(t, DefaultPromoteCutoff, p.cutoff)
	assert.Equal(t, DefaultPromoteBatch, p.batch)
}

func TestPromoteIsolatesFailures(t *testing.T) {
	broken := scheduledRecord("vid-broken")
	healthy := scheduledRecord("vid-healthy")
	src := newFakeSource(broken, healthy)
	videos := &fakeVideos{
		byID: map[string]*domain.VideoMetadata{
			"vid-healthy": endedStreamMetadata("vid-healthy"),
		},
		errs: map[string]error{
			"vid-broken": errors.New("quota exceeded"),
		},
	}
	trigger := &recordingTrigger{}

	require.NoError(t, newTestPromoter(src, videos, trigger).Promote(context.Background()))

	require.Len(t, trigger.payloads, 1)
	assert.Equal(t, "vid-healthy", trigger.payloads[0].VideoID)
}
