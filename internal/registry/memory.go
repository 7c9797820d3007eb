package registry

import (
	"sync"
	"time"

	"github.com/grjus/youtube-news/internal/domain"
)

// Memory is the in-process view of the subscribed-channel registry. It is
// the read path for the hot ingestion loop; Redis remains the durable copy.
type Memory struct {
	mu         sync.RWMutex
	channels   map[string]*domain.Channel // channel ID -> Channel
	lastReload time.Time
}

// NewMemory creates an empty channel registry
func NewMemory() *Memory {
	return &Memory{
		channels: make(map[string]*domain.Channel),
	}
}

// Update replaces all channels in the registry
func (m *Memory) Update(channels []*domain.Channel) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.channels = make(map[string]*domain.Channel, len(channels))
	for _, ch := range channels {
		m.channels[ch.ID] = ch
	}
	m.lastReload = time.Now()
}

// Get retrieves a channel by ID
func (m *Memory) Get(id string) (*domain.Channel, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ch, ok := m.channels[id]
	return ch, ok
}

// All returns every channel in the registry
func (m *Memory) All() []*domain.Channel {
	m.mu.RLock()
	defer m.mu.RUnlock()

	channels := make([]*domain.Channel, 0, len(m.channels))
	for _, ch := range m.channels {
		channels = append(channels, ch)
	}
	return channels
}

// Put adds or updates a single channel
func (m *Memory) Put(ch *domain.Channel) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.channels[ch.ID] = ch
}

// SetActive updates the subscription state of a channel if present
func (m *Memory) SetActive(id string, active bool, now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if ch, ok := m.channels[id]; ok {
		ch.Active = active
		ch.UpdatedAt = now
	}
}

// Count returns the number of channels in the registry
func (m *Memory) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.channels)
}

// LastReload returns the timestamp of the last catalogue reload
func (m *Memory) LastReload() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.lastReload
}
