// This file defines Message events and related rules.
// Messages are immutable once stored.
package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Message represents an immutable chat event. Author fields are
// denormalized at creation time so stored history renders without a
// directory lookup.
type Message struct {
	ID          string    `json:"id"`
	BoardID     BoardID   `json:"boardId"`
	AuthorID    string    `json:"authorId"`
	DisplayName string    `json:"displayName"`
	AvatarTag   string    `json:"avatarTag"`
	Text        string    `json:"text"`
	CreatedAt   time.Time `json:"createdAt"`
}

// NewMessageID builds an id that sorts chronologically: a zero-padded
// nanosecond timestamp followed by a random tiebreaker for messages
// landing on the same nanosecond.
func NewMessageID(at time.Time) string {
	return fmt.Sprintf("%019d-%s", at.UnixNano(), uuid.NewString()[:8])
}
