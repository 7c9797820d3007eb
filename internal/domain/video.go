package domain

import "time"

// LiveBroadcastStatus mirrors the liveBroadcastContent field of the YouTube
// Data API video snippet.
type LiveBroadcastStatus string

const (
	BroadcastNone     LiveBroadcastStatus = "none"
	BroadcastLive     LiveBroadcastStatus = "live"
	BroadcastUpcoming LiveBroadcastStatus = "upcoming"
)

// PrivacyStatus is the video privacy setting as reported by the API.
type PrivacyStatus string

const (
	PrivacyPublic   PrivacyStatus = "public"
	PrivacyPrivate  PrivacyStatus = "private"
	PrivacyUnlisted PrivacyStatus = "unlisted"
)

// CaptionType describes which kind of caption track a video carries.
type CaptionType string

const (
	CaptionAutoGenerated CaptionType = "AUTO_GENERATED"
	CaptionUserGenerated CaptionType = "USER_GENERATED"
	CaptionNone          CaptionType = "NONE"
)

// VideoType is the category derived from a metadata snapshot. It is
// recomputed on every evaluation and never treated as a stored fact,
// because live status changes over time.
type VideoType string

const (
	TypeLive     VideoType = "LIVE"
	TypeUpcoming VideoType = "UPCOMING"
	TypeShort    VideoType = "SHORT"
	TypeLong     VideoType = "LONG"
	TypeStandard VideoType = "STANDARD"
	TypeUnknown  VideoType = "UNKNOWN"
)

// ProcessingMode is the disposition for an admitted notification.
// SCHEDULED is terminal-pending: the poller must eventually move it to
// IMMEDIATE or SKIP. The other two are terminal.
type ProcessingMode string

const (
	ModeImmediate ProcessingMode = "IMMEDIATE"
	ModeScheduled ProcessingMode = "SCHEDULED"
	ModeSkip      ProcessingMode = "SKIP"
)

// LiveStreamingDetails is the optional live-streaming block of a video.
// A video that never was a livestream has no block at all.
type LiveStreamingDetails struct {
	ActualStartTime    time.Time
	ActualEndTime      time.Time
	ScheduledStartTime time.Time
	ScheduledEndTime   time.Time
}

// VideoMetadata is a fresh snapshot fetched from the metadata provider.
// It must not be cached across evaluations.
type VideoMetadata struct {
	VideoID              string
	ChannelID            string
	Title                string
	ChannelTitle         string
	ChannelURI           string
	PublishedAt          time.Time
	Duration             string // ISO-8601, e.g. "PT1H15M52S"
	LiveBroadcastContent LiveBroadcastStatus
	LiveStreamingDetails *LiveStreamingDetails
	PrivacyStatus        PrivacyStatus
	MembersOnly          bool
	Captions             CaptionType
}
