package domain

const (
	// ShortMaxDurationSeconds is the inclusive upper bound for SHORT videos.
	ShortMaxDurationSeconds = 180
	// LongMinDurationSeconds is the exclusive lower bound for LONG videos (3 hours).
	LongMinDurationSeconds = 3 * 60 * 60
)

// Classify derives the video type from a metadata snapshot.
//
// The live checks come first on purpose: a currently-live video may report a
// provisional or zero duration, so live status must win over any
// duration-based category.
func Classify(md VideoMetadata) (VideoType, error) {
	switch md.LiveBroadcastContent {
	case BroadcastLive:
		return TypeLive, nil
	case BroadcastUpcoming:
		return TypeUpcoming, nil
	case BroadcastNone:
		dur := md.Duration
		if dur == "" {
			dur = "PT0S"
		}
		seconds, err := ParseISO8601Duration(dur)
		if err != nil {
			return TypeUnknown, err
		}
		if seconds <= ShortMaxDurationSeconds {
			return TypeShort, nil
		}
		if seconds > LongMinDurationSeconds {
			return TypeLong, nil
		}
		return TypeStandard, nil
	default:
		return TypeUnknown, nil
	}
}
