package bridge

import (
	"sync"

	"github.com/airnode/airtrack-backend/internal/core/domain"
	"github.com/airnode/airtrack-backend/internal/core/ports"
)

// History is a fixed-capacity ring buffer of consumed notifications.
// The oldest entry is overwritten once capacity is reached; nothing is
// persisted across restarts.
type History struct {
	mu      sync.RWMutex
	entries []domain.HistoryEntry
	next    int
	full    bool
}

var _ ports.NotificationHistory = (*History)(nil)

// NewHistory creates a ring buffer holding at most size entries.
func NewHistory(size int) *History {
	if size <= 0 {
		size = 256
	}
	return &History{entries: make([]domain.HistoryEntry, size)}
}

// Append records an entry, evicting the oldest when full.
func (h *History) Append(entry domain.HistoryEntry) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries[h.next] = entry
	h.next++
	if h.next == len(h.entries) {
		h.next = 0
		h.full = true
	}
}

// ListRecent returns up to limit entries, newest first. limit <= 0 or
// above the retained count returns everything retained.
func (h *History) ListRecent(limit int) []domain.HistoryEntry {
	h.mu.RLock()
	defer h.mu.RUnlock()

	count := h.next
	if h.full {
		count = len(h.entries)
	}
	if limit <= 0 || limit > count {
		limit = count
	}

	out := make([]domain.HistoryEntry, 0, limit)
	for i := 0; i < limit; i++ {
		idx := h.next - 1 - i
		if idx < 0 {
			idx += len(h.entries)
		}
		out = append(out, h.entries[idx])
	}
	return out
}
