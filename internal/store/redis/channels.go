package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/grjus/youtube-news/internal/domain"
)

// SaveChannel stores a channel registry entry
func (s *Store) SaveChannel(ctx context.Context, ch *domain.Channel) error {
	data, err := json.Marshal(ch)
	if err != nil {
		return fmt.Errorf("failed to marshal channel: %w", err)
	}

	key := ChannelKey(ch.ID)

	if err := s.client.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save channel: %w", err)
	}
	if err := s.client.SAdd(ctx, KeyAllChannels, ch.ID).Err(); err != nil {
		return fmt.Errorf("failed to add channel to set: %w", err)
	}

	return nil
}

// GetChannel retrieves a channel registry entry by ID
func (s *Store) GetChannel(ctx context.Context, id string) (*domain.Channel, error) {
	data, err := s.client.Get(ctx, ChannelKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: channel %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get channel: %w", err)
	}

	var ch domain.Channel
	if err := json.Unmarshal(data, &ch); err != nil {
		return nil, fmt.Errorf("failed to unmarshal channel: %w", err)
	}
	return &ch, nil
}

// GetAllChannels retrieves every registered channel
func (s *Store) GetAllChannels(ctx context.Context) ([]*domain.Channel, error) {
	ids, err := s.client.SMembers(ctx, KeyAllChannels).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get channel IDs: %w", err)
	}

	channels := make([]*domain.Channel, 0, len(ids))
	for _, id := range ids {
		ch, err := s.GetChannel(ctx, id)
		if err != nil {
			// Skip channels that couldn't be retrieved
			continue
		}
		channels = append(channels, ch)
	}
	return channels, nil
}

// SetChannelActive flips the subscription state of a channel, as confirmed
// by the hub's verification request.
func (s *Store) SetChannelActive(ctx context.Context, id string, active bool, leaseSeconds int, now time.Time) (*domain.Channel, error) {
	ch, err := s.GetChannel(ctx, id)
	if err != nil {
		return nil, err
	}

	ch.Active = active
	ch.UpdatedAt = now
	if active && leaseSeconds > 0 {
		ch.LeaseSeconds = leaseSeconds
		ch.NextRenewalAt = now.Add(time.Duration(leaseSeconds) * time.Second)
	}

	if err := s.SaveChannel(ctx, ch); err != nil {
		return nil, err
	}
	return ch, nil
}

// SaveChannelsMany stores multiple channels (bulk operation)
func (s *Store) SaveChannelsMany(ctx context.Context, channels []*domain.Channel) error {
	pipe := s.client.Pipeline()

	for _, ch := range channels {
		data, err := json.Marshal(ch)
		if err != nil {
			return fmt.Errorf("failed to marshal channel %s: %w", ch.ID, err)
		}
		pipe.Set(ctx, ChannelKey(ch.ID), data, 0)
		pipe.SAdd(ctx, KeyAllChannels, ch.ID)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save channels: %w", err)
	}
	return nil
}
