// Package projection builds local read models from observed events.
// It does not emit events or interact with transports directly.
package projection

import (
	"context"
	"sync"
	"time"

	"board-chat/domain"
	"board-chat/domain/event"
)

const defaultActivitySize = 20

// Entry is one line of the recent-activity feed.
type Entry struct {
	MessageID   string         `json:"messageId"`
	Board       domain.BoardID `json:"boardId"`
	DisplayName string         `json:"displayName"`
	At          time.Time      `json:"at"`
}

// Activity keeps a bounded feed of the latest posted messages, oldest
// first, for the stats endpoint.
type Activity struct {
	mu      sync.Mutex
	size    int
	entries []Entry
}

func NewActivity(size int) *Activity {
	if size <= 0 {
		size = defaultActivitySize
	}
	return &Activity{size: size}
}

func (a *Activity) Consume(_ context.Context, e event.DomainEvent) error {
	posted, ok := e.(event.MessagePosted)
	if !ok {
		return nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.entries = append(a.entries, Entry{
		MessageID:   posted.ID,
		Board:       posted.BoardID,
		DisplayName: posted.DisplayName,
		At:          posted.CreatedAt,
	})
	if len(a.entries) > a.size {
		a.entries = a.entries[len(a.entries)-a.size:]
	}
	return nil
}

// Recent returns a copy of the current feed.
func (a *Activity) Recent() []Entry {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Entry{}, a.entries...)
}
