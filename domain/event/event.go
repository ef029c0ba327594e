// Package event defines the outbound events delivered to connected
// clients. Each event is wrapped by the transport in a {type, data}
// envelope keyed by Kind.
package event

import "board-chat/domain"

type DomainEvent interface {
	Kind() string
}

// RosterMember is one entry of a board's live roster.
type RosterMember struct {
	IdentityID  string `json:"identityId"`
	DisplayName string `json:"displayName"`
	AvatarTag   string `json:"avatarTag"`
}

// RosterUpdated is broadcast after every membership change of a board.
type RosterUpdated struct {
	Board domain.BoardID `json:"boardId"`
	Users []RosterMember `json:"users"`
	Count int            `json:"count"`
}

func (RosterUpdated) Kind() string { return "online_users_update" }

// UserCountUpdated is the legacy companion of RosterUpdated; always
// emitted in the same breath, never on its own.
type UserCountUpdated struct {
	Board domain.BoardID `json:"boardId"`
	Count int            `json:"count"`
}

func (UserCountUpdated) Kind() string { return "user_count_update" }

// MessagePosted carries a stored message to every board member.
type MessagePosted struct {
	domain.Message
}

func (MessagePosted) Kind() string { return "new_message" }

// ConfettiTriggered fires when a posted message contains the trigger word.
type ConfettiTriggered struct {
	MessageID string `json:"messageId"`
}

func (ConfettiTriggered) Kind() string { return "confetti_trigger" }

// ReactionsUpdated carries the full reaction snapshot of one message.
type ReactionsUpdated struct {
	MessageID string                  `json:"messageId"`
	Reactions domain.ReactionSnapshot `json:"reactions"`
}

func (ReactionsUpdated) Kind() string { return "message_reactions_update" }

// Notice is a private acknowledgement to a single connection.
type Notice struct {
	Message string `json:"message"`
}

func (Notice) Kind() string { return "notice" }

// ErrorNotice is a private failure report to a single connection.
type ErrorNotice struct {
	Message string `json:"message"`
}

func (ErrorNotice) Kind() string { return "error" }
