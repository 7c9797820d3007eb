package ingest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grjus/youtube-news/internal/domain"
	"github.com/grjus/youtube-news/internal/logger"
	redisstore "github.com/grjus/youtube-news/internal/store/redis"
)

const (
	testChannelID = "UCuAXFkgsw1L7xaCfnd5JJOw"
	testVideoID   = "dQw4w9WgXcQ"
)

type fakeMetadata struct {
	mu  sync.Mutex
	md  *domain.VideoMetadata
	err error
}

func (f *fakeMetadata) VideoMetadata(_ context.Context, _ string) (*domain.VideoMetadata, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	snapshot := *f.md
	return &snapshot, nil
}

// fakeGate mimics the store's SET NX semantics in memory.
type fakeGate struct {
	mu      sync.Mutex
	markers map[string]bool
}

func newFakeGate() *fakeGate {
	return &fakeGate{markers: make(map[string]bool)}
}

func (f *fakeGate) Admit(_ context.Context, channelID, videoID string, _ time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := channelID + ":" + videoID
	if f.markers[key] {
		return false, nil
	}
	f.markers[key] = true
	return true, nil
}

type fakeStore struct {
	mu      sync.Mutex
	records map[string]*domain.NotificationRecord
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: make(map[string]*domain.NotificationRecord)}
}

func (f *fakeStore) CreateNotification(_ context.Context, rec *domain.NotificationRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := rec.ChannelID + ":" + rec.VideoID
	if _, ok := f.records[key]; ok {
		return redisstore.ErrAlreadyExists
	}
	f.records[key] = rec
	return nil
}

func (f *fakeStore) get(channelID, videoID string) *domain.NotificationRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.records[channelID+":"+videoID]
}

type fakeRegistry struct {
	channels map[string]*domain.Channel
}

func (f *fakeRegistry) Get(id string) (*domain.Channel, bool) {
	ch, ok := f.channels[id]
	return ch, ok
}

type fakeTrigger struct {
	mu       sync.Mutex
	payloads []domain.EnrichedNotification
}

func (f *fakeTrigger) Trigger(_ context.Context, n domain.EnrichedNotification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payloads = append(f.payloads, n)
	return nil
}

func (f *fakeTrigger) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.payloads)
}

type fixture struct {
	ingestor *Ingestor
	metadata *fakeMetadata
	store    *fakeStore
	trigger  *fakeTrigger
}

func newFixture(t *testing.T, md *domain.VideoMetadata) *fixture {
	t.Helper()
	metadata := &fakeMetadata{md: md}
	store := newFakeStore()
	trigger := &fakeTrigger{}
	reg := &fakeRegistry{channels: map[string]*domain.Channel{
		testChannelID: {
			ID:     testChannelID,
			Title:  "Test Channel",
			Genre:  domain.GenreScience,
			Active: true,
		},
	}}
	ingestor := New(metadata, newFakeGate(), store, reg, trigger, logger.New("error", false), Options{})
	return &fixture{ingestor: ingestor, metadata: metadata, store: store, trigger: trigger}
}

func feedBody(publishedAt time.Time) []byte {
	return []byte(fmt.Sprintf(`<?xml version="1.0"?>
<feed xmlns:yt="http://www.youtube.com/xml/schemas/2015" xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <yt:videoId>%s</yt:videoId>
    <yt:channelId>%s</yt:channelId>
    <title>Test Upload</title>
    <published>%s</published>
  </entry>
</feed>`, testVideoID, testChannelID, publishedAt.Format(time.RFC3339)))
}

func standardMetadata() *domain.VideoMetadata {
	return &domain.VideoMetadata{
		VideoID:              testVideoID,
		ChannelID:            testChannelID,
		Title:                "Test Upload",
		ChannelTitle:         "Test Channel",
		ChannelURI:           domain.ChannelURI(testChannelID),
		PublishedAt:          time.Now().Add(-10 * time.Minute),
		Duration:             "PT2H58M59S", // 10739s, under the 3h cap
		LiveBroadcastContent: domain.BroadcastNone,
		PrivacyStatus:        domain.PrivacyPublic,
		Captions:             domain.CaptionAutoGenerated,
	}
}

func TestProcessImmediate(t *testing.T) {
	f := newFixture(t, standardMetadata())

	outcome, err := f.ingestor.Process(context.Background(), feedBody(time.Now().Add(-10*time.Minute)))
	require.NoError(t, err)
	assert.Equal(t, OutcomeAdmitted, outcome)

	rec := f.store.get(testChannelID, testVideoID)
	require.NotNil(t, rec)
	assert.Equal(t, domain.TypeStandard, rec.VideoType)
	assert.Equal(t, domain.ModeImmediate, rec.Mode)
	assert.Equal(t, domain.GenreScience, rec.Genre)

	require.Equal(t, 1, f.trigger.count())
	assert.Equal(t, testVideoID, f.trigger.payloads[0].VideoID)
}

func TestProcessScheduledNotTriggered(t *testing.T) {
	md := standardMetadata()
	md.LiveBroadcastContent = domain.BroadcastLive
	f := newFixture(t, md)

	outcome, err := f.ingestor.Process(context.Background(), feedBody(time.Now()))
	require.NoError(t, err)
	assert.Equal(t, OutcomeAdmitted, outcome)

	rec := f.store.get(testChannelID, testVideoID)
	require.NotNil(t, rec)
	assert.Equal(t, domain.ModeScheduled, rec.Mode)
	assert.Zero(t, f.trigger.count())
}

func TestProcessShortSkipped(t *testing.T) {
	md := standardMetadata()
	md.Duration = "PT1M32S"
	f := newFixture(t, md)

	outcome, err := f.ingestor.Process(context.Background(), feedBody(time.Now()))
	require.NoError(t, err)
	assert.Equal(t, OutcomeAdmitted, outcome)

	rec := f.store.get(testChannelID, testVideoID)
	require.NotNil(t, rec)
	assert.Equal(t, domain.TypeShort, rec.VideoType)
	assert.Equal(t, domain.ModeSkip, rec.Mode)
	assert.Zero(t, f.trigger.count())
}

func TestProcessDuplicateSuppressed(t *testing.T) {
	f := newFixture(t, standardMetadata())
	body := feedBody(time.Now().Add(-10 * time.Minute))

	outcome, err := f.ingestor.Process(context.Background(), body)
	require.NoError(t, err)
	assert.Equal(t, OutcomeAdmitted, outcome)

	outcome, err = f.ingestor.Process(context.Background(), body)
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, outcome)

	assert.Equal(t, 1, f.trigger.count())
}

func TestProcessConcurrentExactlyOnce(t *testing.T) {
	f := newFixture(t, standardMetadata())
	body := feedBody(time.Now().Add(-10 * time.Minute))

	const n = 32
	outcomes := make(chan Outcome, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcome, err := f.ingestor.Process(context.Background(), body)
			assert.NoError(t, err)
			outcomes <- outcome
		}()
	}
	wg.Wait()
	close(outcomes)

	var admitted, duplicate int
	for outcome := range outcomes {
		switch outcome {
		case OutcomeAdmitted:
			admitted++
		case OutcomeDuplicate:
			duplicate++
		default:
			t.Fatalf("unexpected outcome: %s", outcome)
		}
	}
	assert.Equal(t, 1, admitted)
	assert.Equal(t, n-1, duplicate)
	assert.Equal(t, 1, f.trigger.count())
}

func TestProcessStaleDropped(t *testing.T) {
	f := newFixture(t, standardMetadata())

	outcome, err := f.ingestor.Process(context.Background(), feedBody(time.Now().Add(-48*time.Hour)))
	require.NoError(t, err)
	assert.Equal(t, OutcomeStale, outcome)
	assert.Nil(t, f.store.get(testChannelID, testVideoID))
	assert.Zero(t, f.trigger.count())
}

func TestProcessStaleUpcomingStillAdmitted(t *testing.T) {
	md := standardMetadata()
	md.LiveBroadcastContent = domain.BroadcastUpcoming
	f := newFixture(t, md)

	outcome, err := f.ingestor.Process(context.Background(), feedBody(time.Now().Add(-48*time.Hour)))
	require.NoError(t, err)
	assert.Equal(t, OutcomeAdmitted, outcome)

	rec := f.store.get(testChannelID, testVideoID)
	require.NotNil(t, rec)
	assert.Equal(t, domain.ModeScheduled, rec.Mode)
}

func TestProcessUnregisteredChannelIgnored(t *testing.T) {
	f := newFixture(t, standardMetadata())
	body := []byte(fmt.Sprintf(`<?xml version="1.0"?>
<feed xmlns:yt="http://www.youtube.com/xml/schemas/2015" xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <yt:videoId>%s</yt:videoId>
    <yt:channelId>UCunknownunknownunknowns</yt:channelId>
    <title>From a stranger</title>
    <published>%s</published>
  </entry>
</feed>`, testVideoID, time.Now().Format(time.RFC3339)))

	outcome, err := f.ingestor.Process(context.Background(), body)
	require.NoError(t, err)
	assert.Equal(t, OutcomeIgnored, outcome)
	assert.Zero(t, f.trigger.count())
}

func TestProcessInactiveChannelIgnored(t *testing.T) {
	f := newFixture(t, standardMetadata())
	reg := &fakeRegistry{channels: map[string]*domain.Channel{
		testChannelID: {ID: testChannelID, Genre: domain.GenreScience, Active: false},
	}}
	f.ingestor.registry = reg

	outcome, err := f.ingestor.Process(context.Background(), feedBody(time.Now()))
	require.NoError(t, err)
	assert.Equal(t, OutcomeIgnored, outcome)
}

func TestProcessMalformedPayloadAcknowledged(t *testing.T) {
	f := newFixture(t, standardMetadata())

	outcome, err := f.ingestor.Process(context.Background(), []byte("not xml at all"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeIgnored, outcome)
}

func TestProcessPrivateVideoSkipped(t *testing.T) {
	md := standardMetadata()
	md.PrivacyStatus = domain.PrivacyPrivate
	f := newFixture(t, md)

	outcome, err := f.ingestor.Process(context.Background(), feedBody(time.Now()))
	require.NoError(t, err)
	assert.Equal(t, OutcomeAdmitted, outcome)

	rec := f.store.get(testChannelID, testVideoID)
	require.NotNil(t, rec)
	assert.Equal(t, domain.ModeSkip, rec.Mode)
	assert.Zero(t, f.trigger.count())
}
