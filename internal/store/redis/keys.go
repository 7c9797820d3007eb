package redis

const (
	// KeyPrefixVideo is the prefix for notification record hashes
	KeyPrefixVideo = "ytnews:video:"
	// KeyPrefixDedup is the prefix for admission markers
	KeyPrefixDedup = "ytnews:dedup:"
	// KeyPrefixChannel is the prefix for channel registry entries
	KeyPrefixChannel = "ytnews:channel:"
	// KeyAllChannels is the key for the set of all channel IDs
	KeyAllChannels = "ytnews:channels:all"
	// KeyScheduledIndex is the sorted set indexing SCHEDULED records by admission time
	KeyScheduledIndex = "ytnews:scheduled"
)

// VideoKey returns the record key for a (channel, video) pair
func VideoKey(channelID, videoID string) string {
	return KeyPrefixVideo + channelID + ":" + videoID
}

// DedupKey returns the admission marker key for a (channel, video) pair
func DedupKey(channelID, videoID string) string {
	return KeyPrefixDedup + channelID + ":" + videoID
}

// ChannelKey returns the registry key for a channel ID
func ChannelKey(channelID string) string {
	return KeyPrefixChannel + channelID
}
