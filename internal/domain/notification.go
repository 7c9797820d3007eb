package domain

import "time"

// Notification is the minimal shell parsed from a WebSub feed payload.
type Notification struct {
	VideoID     string
	ChannelID   string
	Title       string
	PublishedAt time.Time
}

// NotificationRecord is the persisted outcome of an admitted notification,
// keyed by (channel id, video id). It is created exactly once and mutated
// only to transition SCHEDULED to IMMEDIATE or SKIP.
type NotificationRecord struct {
	ChannelID    string         `json:"channel_id" redis:"channel_id"`
	VideoID      string         `json:"video_id" redis:"video_id"`
	VideoTitle   string         `json:"video_title" redis:"video_title"`
	ChannelTitle string         `json:"channel_title" redis:"channel_title"`
	ChannelURI   string         `json:"channel_uri" redis:"channel_uri"`
	PublishedAt  time.Time      `json:"published_at" redis:"published_at"`
	VideoType    VideoType      `json:"video_type" redis:"video_type"`
	Captions     CaptionType    `json:"captions" redis:"captions"`
	Genre        Genre          `json:"genre" redis:"genre"`
	Mode         ProcessingMode `json:"mode" redis:"mode"`
	CreatedAt    time.Time      `json:"created_at" redis:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at" redis:"updated_at"`
}

// EnrichedNotification is the payload handed to the downstream processing
// workflow (transcript fetch, summarization, delivery).
type EnrichedNotification struct {
	VideoID      string         `json:"videoId"`
	ChannelID    string         `json:"channelId"`
	VideoTitle   string         `json:"videoTitle"`
	ChannelTitle string         `json:"channelTitle"`
	ChannelURI   string         `json:"channelUri"`
	PublishedAt  time.Time      `json:"publishedAt"`
	VideoType    VideoType      `json:"videoType"`
	Captions     CaptionType    `json:"captions"`
	Genre        Genre          `json:"genre"`
	Mode         ProcessingMode `json:"processingMode"`
}

// Enriched builds the workflow payload from a record.
func (r *NotificationRecord) Enriched() EnrichedNotification {
	return EnrichedNotification{
		VideoID:      r.VideoID,
		ChannelID:    r.ChannelID,
		VideoTitle:   r.VideoTitle,
		ChannelTitle: r.ChannelTitle,
		ChannelURI:   r.ChannelURI,
		PublishedAt:  r.PublishedAt,
		VideoType:    r.VideoType,
		Captions:     r.Captions,
		Genre:        r.Genre,
		Mode:         r.Mode,
	}
}
