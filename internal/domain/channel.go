package domain

import (
	"fmt"
	"time"
)

// Genre determines which summarization prompt and delivery channel a video
// ends up with downstream.
type Genre string

const (
	GenreTinfoil             Genre = "TINFOIL"
	GenreSoftwareEngineering Genre = "SOFTWARE_ENGINEERING"
	GenrePolitics            Genre = "POLITICS"
	GenreScience             Genre = "SCIENCE"
)

// ParseGenre validates a genre string from config.
func ParseGenre(s string) (Genre, error) {
	switch g := Genre(s); g {
	case GenreTinfoil, GenreSoftwareEngineering, GenrePolitics, GenreScience:
		return g, nil
	default:
		return "", fmt.Errorf("unknown genre: %q", s)
	}
}

// Channel is a subscribed YouTube channel. The catalogue (id, title, genre)
// comes from the channels file; Active and the renewal timestamps are
// mutated at runtime by the WebSub challenge handler and the renewal loop.
type Channel struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	URI           string    `json:"uri"`
	Genre         Genre     `json:"genre"`
	Active        bool      `json:"active"`
	LeaseSeconds  int       `json:"lease_seconds"`
	NextRenewalAt time.Time `json:"next_renewal_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ChannelURI returns the canonical channel page URL for an id.
func ChannelURI(channelID string) string {
	return "https://www.youtube.com/channel/" + channelID
}

// TopicURL returns the WebSub topic a channel subscription covers.
func TopicURL(channelID string) string {
	return "https://www.youtube.com/xml/feeds/videos.xml?channel_id=" + channelID
}
