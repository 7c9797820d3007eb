package youtube

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns:yt="http://www.youtube.com/xml/schemas/2015" xmlns="http://www.w3.org/2005/Atom">
  <title>YouTube video feed</title>
  <entry>
    <id>yt:video:dQw4w9WgXcQ</id>
    <yt:videoId>dQw4w9WgXcQ</yt:videoId>
    <yt:channelId>UCuAXFkgsw1L7xaCfnd5JJOw</yt:channelId>
    <title>Never Gonna Give You Up</title>
    <published>2024-05-01T10:00:00+00:00</published>
    <updated>2024-05-01T10:00:05+00:00</updated>
  </entry>
</feed>`

func TestParseNotification(t *testing.T) {
	n, err := ParseNotification([]byte(sampleFeed))
	require.NoError(t, err)
	require.NotNil(t, n)

	assert.Equal(t, "dQw4w9WgXcQ", n.VideoID)
	assert.Equal(t, "UCuAXFkgsw1L7xaCfnd5JJOw", n.ChannelID)
	assert.Equal(t, "Never Gonna Give You Up", n.Title)
	assert.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), n.PublishedAt.UTC())
}

func TestParseNotificationNoEntry(t *testing.T) {
	body := `<?xml version="1.0"?><feed xmlns="http://www.w3.org/2005/Atom"><title>empty</title></feed>`

	n, err := ParseNotification([]byte(body))
	require.NoError(t, err)
	assert.Nil(t, n)
}

func TestParseNotificationInvalidXML(t *testing.T) {
	_, err := ParseNotification([]byte("this is not xml"))
	assert.Error(t, err)
}

func TestParseNotificationMissingIDs(t *testing.T) {
	body := `<?xml version="1.0"?>
<feed xmlns:yt="http://www.youtube.com/xml/schemas/2015" xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <title>no ids</title>
    <published>2024-05-01T10:00:00+00:00</published>
  </entry>
</feed>`

	_, err := ParseNotification([]byte(body))
	assert.ErrorContains(t, err, "missing video or channel id")
}

func TestParseNotificationBadTimestamp(t *testing.T) {
	body := `<?xml version="1.0"?>
<feed xmlns:yt="http://www.youtube.com/xml/schemas/2015" xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <yt:videoId>dQw4w9WgXcQ</yt:videoId>
    <yt:channelId>UCuAXFkgsw1L7xaCfnd5JJOw</yt:channelId>
    <title>bad time</title>
    <published>yesterday</published>
  </entry>
</feed>`

	_, err := ParseNotification([]byte(body))
	assert.ErrorContains(t, err, "invalid published timestamp")
}
