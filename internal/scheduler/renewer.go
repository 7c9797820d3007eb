package scheduler

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/grjus/youtube-news/internal/domain"
	"github.com/grjus/youtube-news/internal/logger"
	"github.com/grjus/youtube-news/internal/registry"
	redisstore "github.com/grjus/youtube-news/internal/store/redis"
)

// SubscriptionRenewer keeps WebSub leases alive. Each sweep re-subscribes
// every catalogue channel whose renewal deadline has passed (or that was
// never subscribed). The hub confirms asynchronously through the callback
// verification, which is what flips the channel active.
type SubscriptionRenewer struct {
	client      *http.Client
	store       *redisstore.Store
	registry    *registry.Memory
	logger      logger.Logger
	hubURL      string
	callbackURL string
	secret      string
	lease       time.Duration
	interval    time.Duration
	stopCh      chan struct{}
}

// NewSubscriptionRenewer creates a new renewer.
func NewSubscriptionRenewer(
	store *redisstore.Store,
	reg *registry.Memory,
	log logger.Logger,
	hubURL string,
	callbackURL string,
	secret string,
	lease time.Duration,
	interval time.Duration,
) *SubscriptionRenewer {
	if interval <= 0 {
		interval = time.Hour
	}
	return &SubscriptionRenewer{
		client:      &http.Client{Timeout: 15 * time.Second},
		store:       store,
		registry:    reg,
		logger:      log,
		hubURL:      hubURL,
		callbackURL: callbackURL,
		secret:      secret,
		lease:       lease,
		interval:    interval,
		stopCh:      make(chan struct{}),
	}
}

// Start runs one sweep immediately, then renews on the interval.
func (sr *SubscriptionRenewer) Start(ctx context.Context) error {
	if err := sr.Renew(ctx); err != nil {
		sr.logger.Warn("initial subscription sweep failed",
			logger.Error(err))
	}

	ticker := time.NewTicker(sr.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := sr.Renew(ctx); err != nil {
					sr.logger.Error("subscription sweep failed",
						logger.Error(err))
				}
			case <-sr.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the renewer.
func (sr *SubscriptionRenewer) Stop() {
	close(sr.stopCh)
}

// Renew posts a subscribe request for every channel due for renewal.
func (sr *SubscriptionRenewer) Renew(ctx context.Context) error {
	now := time.Now()
	renewed := 0

	for _, ch := range sr.registry.All() {
		if !ch.NextRenewalAt.IsZero() && now.Before(ch.NextRenewalAt) {
			continue
		}

		if err := sr.subscribe(ctx, ch.ID); err != nil {
			sr.logger.Warn("subscribe request failed",
				logger.String("channel_id", ch.ID),
				logger.Error(err))
			continue
		}

		// Re-request at three quarters of the lease so a flaky hub still
		// has a few sweeps to confirm before the old lease expires.
		ch.NextRenewalAt = now.Add(sr.lease * 3 / 4)
		ch.UpdatedAt = now
		sr.registry.Put(ch)
		if sr.store != nil {
			if err := sr.store.SaveChannel(ctx, ch); err != nil {
				sr.logger.Warn("failed to persist renewal deadline",
					logger.String("channel_id", ch.ID),
					logger.Error(err))
			}
		}
		renewed++
	}

	if renewed > 0 {
		sr.logger.Info("subscription sweep completed",
			logger.Int("renewed", renewed))
	} else {
		sr.logger.Debug("no subscriptions due for renewal")
	}

	return nil
}

// subscribe sends one form-encoded subscribe request to the hub.
func (sr *SubscriptionRenewer) subscribe(ctx context.Context, channelID string) error {
	form := url.Values{}
	form.Set("hub.callback", sr.callbackURL)
	form.Set("hub.mode", "subscribe")
	form.Set("hub.topic", domain.TopicURL(channelID))
	form.Set("hub.verify", "async")
	form.Set("hub.secret", sr.secret)
	form.Set("hub.lease_seconds", strconv.Itoa(int(sr.lease.Seconds())))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, sr.hubURL, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := sr.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("hub returned %s", resp.Status)
	}

	sr.logger.Debug("subscribe request accepted",
		logger.String("channel_id", channelID),
		logger.String("status", resp.Status))
	return nil
}
