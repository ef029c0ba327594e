//go:generate go run go.uber.org/mock/mockgen -source=engine.go -destination=../mocks/mock_moderation.go -package=mocks
package moderation

import (
	"fmt"
	"log/slog"
	"strings"
)

// PresenceScanner finds live connections currently holding a display
// name, across all boards.
type PresenceScanner interface {
	ConnectionsByDisplayName(displayName string) []string
}

// SessionTerminator resolves a connection's network origin and forces
// it closed. Origin is tracked per connection from accept time, so a
// third party's origin is always recoverable.
type SessionTerminator interface {
	OriginOf(connectionID string) (string, bool)
	Terminate(connectionID string)
}

// Engine interprets privileged command messages. Only the configured
// moderator identity may issue commands; anyone else's "/ban ..." text
// falls through as ordinary chat, which is not an error.
type Engine struct {
	log         *slog.Logger
	moderatorID string
	bans        *BanList
	presence    PresenceScanner
	sessions    SessionTerminator
}

func NewEngine(log *slog.Logger, moderatorID string, bans *BanList,
	presence PresenceScanner, sessions SessionTerminator) *Engine {
	return &Engine{
		log:         log,
		moderatorID: moderatorID,
		bans:        bans,
		presence:    presence,
		sessions:    sessions,
	}
}

// TryHandle inspects a trimmed message text for a moderation command.
// When handled it returns the private acknowledgement for the issuer
// and true; the caller must then short-circuit and not store or
// broadcast the text. Command replies never reach the board.
func (e *Engine) TryHandle(issuerID, text string) (string, bool) {
	if e.moderatorID == "" || issuerID != e.moderatorID {
		return "", false
	}

	switch {
	case strings.HasPrefix(text, "/banip "):
		return e.handleBanOrigin(strings.TrimSpace(strings.TrimPrefix(text, "/banip "))), true
	case strings.HasPrefix(text, "/ban @"):
		return e.handleBanUser(strings.TrimSpace(strings.TrimPrefix(text, "/ban @"))), true
	default:
		return "", false
	}
}

// handleBanOrigin adds the origin literally to the ban list. Nobody is
// disconnected: existing connections from that origin die on their next
// reconnect attempt.
func (e *Engine) handleBanOrigin(origin string) string {
	if origin == "" {
		return "usage: /banip <origin>"
	}
	e.bans.Ban(origin)
	e.log.Info("Origin banned by moderator", "origin", origin)
	return fmt.Sprintf("banned origin %s", origin)
}

// handleBanUser bans and disconnects every live connection whose
// display name matches exactly (case-sensitive). One acknowledgement is
// returned regardless of match count.
func (e *Engine) handleBanUser(displayName string) string {
	connections := e.presence.ConnectionsByDisplayName(displayName)

	for _, connectionID := range connections {
		if origin, ok := e.sessions.OriginOf(connectionID); ok {
			e.bans.Ban(origin)
		}
		e.sessions.Terminate(connectionID)
	}

	e.log.Info("User banned by moderator",
		"name", displayName, "connections", len(connections))
	return fmt.Sprintf("banned @%s (%d connection(s))", displayName, len(connections))
}
