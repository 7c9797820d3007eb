package domain

import "time"

// Route decides the processing disposition for a video given its type and
// the current time.
//
// STANDARD videos that used to be livestreams need time for the final
// on-demand version (with correct duration and captions) to stabilize.
// A stream that ended more than half the video's own duration ago is
// treated as stable; anything more recent is deferred for re-check.
// Members-only and private videos are never deferred: polling cannot
// change their accessibility.
func Route(md VideoMetadata, videoType VideoType, now time.Time) (ProcessingMode, error) {
	switch videoType {
	case TypeLive, TypeUpcoming:
		return ModeScheduled, nil
	case TypeShort, TypeLong, TypeUnknown:
		return ModeSkip, nil
	case TypeStandard:
		if md.MembersOnly || md.PrivacyStatus == PrivacyPrivate {
			return ModeSkip, nil
		}
		lsd := md.LiveStreamingDetails
		if lsd == nil || lsd.ActualEndTime.IsZero() {
			// Never a livestream, or one that has not ended yet.
			return ModeImmediate, nil
		}
		seconds, err := ParseISO8601Duration(md.Duration)
		if err != nil {
			return ModeSkip, err
		}
		sinceEnd := now.Sub(lsd.ActualEndTime)
		if sinceEnd > time.Duration(seconds)*time.Second/2 {
			return ModeImmediate, nil
		}
		return ModeScheduled, nil
	}
	return ModeSkip, nil
}
