package channels

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/grjus/youtube-news/internal/domain"
)

// channelIDRe matches YouTube channel IDs
var channelIDRe = regexp.MustCompile(`^UC[a-zA-Z0-9_-]{22}$`)

// Loader handles loading and parsing of the channels.yaml catalogue
type Loader struct {
	filePath string
}

// NewLoader creates a new catalogue loader
func NewLoader(filePath string) *Loader {
	return &Loader{
		filePath: filePath,
	}
}

// Load reads and parses the channels file
func (l *Loader) Load() (*Catalogue, error) {
	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read channels file: %w", err)
	}

	var cat Catalogue
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("failed to parse channels yaml: %w", err)
	}

	return &cat, nil
}

// MapChannels converts the catalogue into domain channels, dropping entries
// with a malformed ID or an unknown genre.
func MapChannels(cat *Catalogue) ([]*domain.Channel, error) {
	now := time.Now()
	var out []*domain.Channel

	for _, props := range cat.Channels {
		if !channelIDRe.MatchString(props.ID) {
			return nil, fmt.Errorf("invalid channel id: %q", props.ID)
		}
		genre, err := domain.ParseGenre(props.Genre)
		if err != nil {
			return nil, fmt.Errorf("channel %s: %w", props.ID, err)
		}

		out = append(out, &domain.Channel{
			ID:        props.ID,
			Title:     props.Title,
			URI:       domain.ChannelURI(props.ID),
			Genre:     genre,
			UpdatedAt: now,
		})
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("no channels found in catalogue")
	}
	return out, nil
}
