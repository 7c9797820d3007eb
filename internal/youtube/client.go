package youtube

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"github.com/grjus/youtube-news/internal/domain"
	"github.com/grjus/youtube-news/internal/logger"
)

// ErrVideoNotFound signals that the Data API has no item for a video id,
// typically because the video was deleted between notification and fetch.
var ErrVideoNotFound = errors.New("video not found")

// Client fetches video and channel metadata from the YouTube Data API v3.
// Every call returns a fresh snapshot; nothing is cached, because live
// status and duration change while a broadcast is running.
type Client struct {
	svc    *youtube.Service
	web    *http.Client
	logger logger.Logger
}

// New builds a metadata client using an API key.
func New(ctx context.Context, apiKey string, timeout time.Duration, log logger.Logger) (*Client, error) {
	svc, err := youtube.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create youtube service: %w", err)
	}
	return &Client{
		svc:    svc,
		web:    &http.Client{Timeout: timeout},
		logger: log,
	}, nil
}

// VideoMetadata fetches the metadata snapshot for one video.
func (c *Client) VideoMetadata(ctx context.Context, videoID string) (*domain.VideoMetadata, error) {
	resp, err := c.svc.Videos.
		List([]string{"snippet", "contentDetails", "liveStreamingDetails", "status"}).
		Id(videoID).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch video %s: %w", videoID, err)
	}
	if len(resp.Items) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrVideoNotFound, videoID)
	}
	item := resp.Items[0]

	md := &domain.VideoMetadata{
		VideoID:              item.Id,
		ChannelID:            item.Snippet.ChannelId,
		Title:                item.Snippet.Title,
		ChannelTitle:         item.Snippet.ChannelTitle,
		ChannelURI:           domain.ChannelURI(item.Snippet.ChannelId),
		PublishedAt:          parseAPITime(item.Snippet.PublishedAt),
		LiveBroadcastContent: domain.LiveBroadcastStatus(item.Snippet.LiveBroadcastContent),
	}
	if item.ContentDetails != nil {
		md.Duration = item.ContentDetails.Duration
	}
	if item.Status != nil {
		md.PrivacyStatus = domain.PrivacyStatus(item.Status.PrivacyStatus)
	}
	if lsd := item.LiveStreamingDetails; lsd != nil {
		md.LiveStreamingDetails = &domain.LiveStreamingDetails{
			ActualStartTime:    parseAPITime(lsd.ActualStartTime),
			ActualEndTime:      parseAPITime(lsd.ActualEndTime),
			ScheduledStartTime: parseAPITime(lsd.ScheduledStartTime),
			ScheduledEndTime:   parseAPITime(lsd.ScheduledEndTime),
		}
	}

	md.Captions = c.captionType(ctx, videoID)
	md.MembersOnly = c.isMembersOnly(ctx, videoID)

	return md, nil
}

// ChannelExists reports whether a channel id is known to the Data API.
func (c *Client) ChannelExists(ctx context.Context, channelID string) (bool, error) {
	resp, err := c.svc.Channels.
		List([]string{"id"}).
		Id(channelID).
		Context(ctx).
		Do()
	if err != nil {
		return false, fmt.Errorf("failed to fetch channel %s: %w", channelID, err)
	}
	return len(resp.Items) > 0, nil
}

// captionType inspects the first caption track of a video. Videos without
// a listed track default to AUTO_GENERATED, matching what the transcript
// provider will most likely find.
func (c *Client) captionType(ctx context.Context, videoID string) domain.CaptionType {
	resp, err := c.svc.Captions.
		List([]string{"snippet"}, videoID).
		Context(ctx).
		Do()
	if err != nil || len(resp.Items) == 0 {
		c.logger.Debug("no caption track listed, defaulting to auto-generated",
			logger.String("video_id", videoID))
		return domain.CaptionAutoGenerated
	}
	if strings.EqualFold(resp.Items[0].Snippet.TrackKind, "asr") {
		return domain.CaptionAutoGenerated
	}
	return domain.CaptionUserGenerated
}

// isMembersOnly probes the public watch page: the Data API does not expose
// membership gating, but the player response advertises the sponsors-only
// offer for gated videos. Best effort; any failure reads as not gated.
func (c *Client) isMembersOnly(ctx context.Context, videoID string) bool {
	watchURL := "https://www.youtube.com/watch?v=" + url.QueryEscape(videoID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, watchURL, http.NoBody)
	if err != nil {
		return false
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := c.web.Do(req)
	if err != nil {
		c.logger.Debug("members-only probe failed",
			logger.String("video_id", videoID),
			logger.Error(err))
		return false
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return false
	}
	return strings.Contains(string(body), `"offerId":"sponsors_only_video"`)
}

func parseAPITime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
