package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/grjus/youtube-news/internal/domain"
)

var (
	// ErrAlreadyExists signals that a record for this (channel, video) pair
	// was created by an earlier admission.
	ErrAlreadyExists = errors.New("notification record already exists")
	// ErrNotFound signals a missing record.
	ErrNotFound = errors.New("notification record not found")
)

// Store handles Redis operations for notification records, admission
// markers and the channel registry.
type Store struct {
	client *redis.Client
}

// NewStore creates a new Redis store
func NewStore(client *redis.Client) *Store {
	return &Store{
		client: client,
	}
}

// createRecord writes the record hash only if the key is absent, and adds
// SCHEDULED records to the poller index, all in one atomic step.
// KEYS[1] = record key, KEYS[2] = scheduled index
// ARGV[1] = index member, ARGV[2] = index score (admission time, unix ms)
// ARGV[3..] = field/value pairs
var createRecord = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 1 then
  return 0
end
for i = 3, #ARGV, 2 do
  redis.call("HSET", KEYS[1], ARGV[i], ARGV[i+1])
end
if redis.call("HGET", KEYS[1], "mode") == "SCHEDULED" then
  redis.call("ZADD", KEYS[2], ARGV[2], ARGV[1])
end
return 1
`)

// transitionMode flips a record from SCHEDULED to a terminal mode, guarded
// by the stored mode still being SCHEDULED. Losing the race returns 0.
// KEYS[1] = record key, KEYS[2] = scheduled index
// ARGV[1] = new mode, ARGV[2] = updated_at (unix ms), ARGV[3] = index member
var transitionMode = redis.NewScript(`
if redis.call("HGET", KEYS[1], "mode") ~= "SCHEDULED" then
  return 0
end
redis.call("HSET", KEYS[1], "mode", ARGV[1], "updated_at", ARGV[2])
redis.call("ZREM", KEYS[2], ARGV[3])
return 1
`)

// CreateNotification persists a new record. Returns ErrAlreadyExists when a
// record for the same (channel, video) pair is already present; the record
// is never overwritten.
func (s *Store) CreateNotification(ctx context.Context, rec *domain.NotificationRecord) error {
	key := VideoKey(rec.ChannelID, rec.VideoID)
	member := rec.ChannelID + ":" + rec.VideoID

	args := []interface{}{member, rec.CreatedAt.UnixMilli()}
	for field, value := range recordFields(rec) {
		args = append(args, field, value)
	}

	created, err := createRecord.Run(ctx, s.client, []string{key, KeyScheduledIndex}, args...).Int()
	if err != nil {
		return fmt.Errorf("failed to create notification record: %w", err)
	}
	if created == 0 {
		return ErrAlreadyExists
	}
	return nil
}

// GetNotification retrieves a record by (channel, video) pair.
func (s *Store) GetNotification(ctx context.Context, channelID, videoID string) (*domain.NotificationRecord, error) {
	fields, err := s.client.HGetAll(ctx, VideoKey(channelID, videoID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get notification record: %w", err)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, channelID, videoID)
	}
	return recordFromFields(fields)
}

// ScheduledBefore returns up to limit SCHEDULED records admitted before the
// cutoff, oldest first. This is the poller's range scan.
func (s *Store) ScheduledBefore(ctx context.Context, cutoff time.Time, limit int) ([]*domain.NotificationRecord, error) {
	members, err := s.client.ZRangeByScore(ctx, KeyScheduledIndex, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(cutoff.UnixMilli(), 10),
		Count: int64(limit),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to scan scheduled index: %w", err)
	}

	records := make([]*domain.NotificationRecord, 0, len(members))
	for _, member := range members {
		fields, err := s.client.HGetAll(ctx, KeyPrefixVideo+member).Result()
		if err != nil || len(fields) == 0 {
			// Index entry without a record; drop it so it stops coming back.
			s.client.ZRem(ctx, KeyScheduledIndex, member)
			continue
		}
		rec, err := recordFromFields(fields)
		if err != nil {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// TransitionMode moves a SCHEDULED record to IMMEDIATE or SKIP. The update
// is conditional on the stored mode still being SCHEDULED; a lost race
// returns false with no error, which callers treat as already-handled.
func (s *Store) TransitionMode(ctx context.Context, channelID, videoID string, mode domain.ProcessingMode, now time.Time) (bool, error) {
	if mode != domain.ModeImmediate && mode != domain.ModeSkip {
		return false, fmt.Errorf("invalid transition target: %s", mode)
	}
	key := VideoKey(channelID, videoID)
	member := channelID + ":" + videoID

	moved, err := transitionMode.Run(ctx, s.client,
		[]string{key, KeyScheduledIndex},
		string(mode), now.UnixMilli(), member,
	).Int()
	if err != nil {
		return false, fmt.Errorf("failed to transition notification mode: %w", err)
	}
	return moved == 1, nil
}

func recordFields(rec *domain.NotificationRecord) map[string]interface{} {
	return map[string]interface{}{
		"channel_id":    rec.ChannelID,
		"video_id":      rec.VideoID,
		"video_title":   rec.VideoTitle,
		"channel_title": rec.ChannelTitle,
		"channel_uri":   rec.ChannelURI,
		"published_at":  rec.PublishedAt.UnixMilli(),
		"video_type":    string(rec.VideoType),
		"captions":      string(rec.Captions),
		"genre":         string(rec.Genre),
		"mode":          string(rec.Mode),
		"created_at":    rec.CreatedAt.UnixMilli(),
		"updated_at":    rec.UpdatedAt.UnixMilli(),
	}
}

func recordFromFields(fields map[string]string) (*domain.NotificationRecord, error) {
	if fields["channel_id"] == "" || fields["video_id"] == "" {
		return nil, fmt.Errorf("corrupt notification record: missing identity")
	}
	return &domain.NotificationRecord{
		ChannelID:    fields["channel_id"],
		VideoID:      fields["video_id"],
		VideoTitle:   fields["video_title"],
		ChannelTitle: fields["channel_title"],
		ChannelURI:   fields["channel_uri"],
		PublishedAt:  msField(fields, "published_at"),
		VideoType:    domain.VideoType(fields["video_type"]),
		Captions:     domain.CaptionType(fields["captions"]),
		Genre:        domain.Genre(fields["genre"]),
		Mode:         domain.ProcessingMode(fields["mode"]),
		CreatedAt:    msField(fields, "created_at"),
		UpdatedAt:    msField(fields, "updated_at"),
	}, nil
}

func msField(fields map[string]string, name string) time.Time {
	ms, err := strconv.ParseInt(fields[name], 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}
