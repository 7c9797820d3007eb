package youtube

import (
	"encoding/xml"
	"fmt"
	"time"

	"github.com/grjus/youtube-news/internal/domain"
)

// AtomFeed represents the structure of a YouTube Atom feed notification
type AtomFeed struct {
	XMLName xml.Name `xml:"feed"`
	Entry   *Entry   `xml:"entry"`
}

// Entry represents a single video entry in the YouTube Atom feed
type Entry struct {
	VideoID   string `xml:"http://www.youtube.com/xml/schemas/2015 videoId"`
	ChannelID string `xml:"http://www.youtube.com/xml/schemas/2015 channelId"`
	Title     string `xml:"title"`
	Published string `xml:"published"`
	Updated   string `xml:"updated"`
}

// ParseNotification extracts the minimal notification shell from a WebSub
// feed payload. A feed without an entry (e.g. a deleted-video notice) is
// not an error; it returns (nil, nil) and the caller acknowledges it.
func ParseNotification(body []byte) (*domain.Notification, error) {
	var feed AtomFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("invalid feed payload: %w", err)
	}
	if feed.Entry == nil {
		return nil, nil
	}

	entry := feed.Entry
	if entry.VideoID == "" || entry.ChannelID == "" {
		return nil, fmt.Errorf("feed entry missing video or channel id")
	}

	publishedAt, err := time.Parse(time.RFC3339, entry.Published)
	if err != nil {
		return nil, fmt.Errorf("feed entry has invalid published timestamp %q: %w", entry.Published, err)
	}

	return &domain.Notification{
		VideoID:     entry.VideoID,
		ChannelID:   entry.ChannelID,
		Title:       entry.Title,
		PublishedAt: publishedAt,
	}, nil
}
