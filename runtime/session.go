package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"board-chat/contract"
	"board-chat/domain"
	"board-chat/domain/event"
	"board-chat/errors"
)

// sessionState is the lifecycle of one connection:
// Connecting -> (rejected-banned | Active) -> Closed.
// Rejected connections never get a Session at all; see Coordinator.Connect.
type sessionState int

const (
	stateActive sessionState = iota
	stateClosed
)

// Session owns the server-side state of one live connection. Its own
// inbound events are handled strictly sequentially (eventMu), while
// Close may arrive at any moment from another connection's moderation
// command and must win immediately (stateMu, checked per operation).
type Session struct {
	id     string
	origin string
	coord  *Coordinator
	conn   contract.ClientConn
	log    *slog.Logger

	eventMu sync.Mutex

	stateMu  sync.Mutex
	state    sessionState
	identity domain.Identity // bound on first successful join
}

func (s *Session) ID() string     { return s.id }
func (s *Session) Origin() string { return s.origin }

func (s *Session) closed() bool {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return s.state == stateClosed
}

// notify delivers a private event to this connection only.
func (s *Session) notify(ctx context.Context, e event.DomainEvent) {
	if err := s.conn.Consume(ctx, e); err != nil {
		s.log.Debug("Private delivery failed", "connection", s.id, "err", err)
	}
}

// Join adds this connection to a board and broadcasts the new roster.
// Idempotent: re-joining is a no-op with no broadcast.
func (s *Session) Join(ctx context.Context, board domain.BoardID, identityID string) error {
	s.eventMu.Lock()
	defer s.eventMu.Unlock()

	if s.closed() {
		return errors.ErrSessionClosed
	}

	identity, ok := s.coord.directory.Lookup(identityID)
	if !ok {
		s.notify(ctx, event.ErrorNotice{Message: "unknown identity, register first"})
		return nil
	}
	if !domain.CatalogContains(s.coord.catalog, board) {
		s.notify(ctx, event.ErrorNotice{Message: fmt.Sprintf("unknown board %q", board)})
		return nil
	}

	s.stateMu.Lock()
	if s.identity.ID == "" {
		s.identity = identity
	}
	s.stateMu.Unlock()

	s.coord.joinBoard(ctx, board, s.id, identity)
	return nil
}

// Leave removes this connection from a board and broadcasts the roster.
func (s *Session) Leave(ctx context.Context, board domain.BoardID) error {
	s.eventMu.Lock()
	defer s.eventMu.Unlock()

	if s.closed() {
		return errors.ErrSessionClosed
	}
	s.coord.leaveBoard(ctx, board, s.id)
	return nil
}

// SendMessage runs the inbound message pipeline in strict order:
// rate limit, identity resolution, trim, moderation, store+broadcast,
// keyword trigger.
func (s *Session) SendMessage(ctx context.Context, board domain.BoardID, text, identityID string) error {
	s.eventMu.Lock()
	defer s.eventMu.Unlock()

	if s.closed() {
		return errors.ErrSessionClosed
	}

	// 1. Abuse check. Over the limit means a permanent origin ban and
	// an immediate forced close; not a recoverable condition.
	if !s.coord.limiter.RecordAndCheck(s.id) {
		s.coord.bans.Ban(s.origin)
		s.coord.monitor.BanIssued()
		s.log.Warn("Rate limit exceeded, banning origin",
			"connection", s.id, "origin", s.origin)
		s.notify(ctx, event.ErrorNotice{Message: "rate limit exceeded, you are banned"})
		s.Close(ctx)
		return nil
	}

	// 2. The sender must be a registered identity.
	identity, ok := s.coord.directory.Lookup(identityID)
	if !ok {
		s.notify(ctx, event.ErrorNotice{Message: "unknown identity, register first"})
		return nil
	}

	// 3. Whitespace-only messages are dropped silently.
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if !domain.CatalogContains(s.coord.catalog, board) {
		s.notify(ctx, event.ErrorNotice{Message: fmt.Sprintf("unknown board %q", board)})
		return nil
	}

	// 4. Moderation commands short-circuit: handled text is never
	// stored or broadcast, and the acknowledgement stays private.
	if reply, handled := s.coord.engine.TryHandle(identityID, text); handled {
		s.notify(ctx, event.Notice{Message: reply})
		return nil
	}

	// 5. Store and fan out.
	now := time.Now().UTC()
	message := domain.Message{
		ID:          domain.NewMessageID(now),
		BoardID:     board,
		AuthorID:    identity.ID,
		DisplayName: identity.DisplayName,
		AvatarTag:   identity.AvatarTag,
		Text:        text,
		CreatedAt:   now,
	}
	if err := s.coord.postMessage(ctx, message); err != nil {
		s.log.Error("Message append failed", "board", board, "err", err)
		s.notify(ctx, event.ErrorNotice{Message: "message could not be stored"})
		return nil
	}

	// 6. Celebration keyword.
	if s.coord.trigger.Match(text) {
		s.coord.monitor.ConfettiFired()
		s.coord.broadcast(ctx, board, event.ConfettiTriggered{MessageID: message.ID})
	}
	return nil
}

// AddReaction records an emoji reaction and broadcasts the message's
// updated reaction snapshot to its board.
func (s *Session) AddReaction(ctx context.Context, messageID, emoji, identityID string) error {
	s.eventMu.Lock()
	defer s.eventMu.Unlock()

	if s.closed() {
		return errors.ErrSessionClosed
	}

	if _, ok := s.coord.directory.Lookup(identityID); !ok {
		s.notify(ctx, event.ErrorNotice{Message: "unknown identity, register first"})
		return nil
	}
	board, ok := s.coord.boardOfMessage(messageID)
	if !ok {
		s.notify(ctx, event.ErrorNotice{Message: "unknown message"})
		return nil
	}

	snapshot := s.coord.reactions.Add(messageID, emoji, identityID)
	s.coord.monitor.ReactionAdded()
	s.coord.broadcast(ctx, board, event.ReactionsUpdated{
		MessageID: messageID,
		Reactions: snapshot,
	})
	return nil
}

// Close transitions the session to its terminal state: memberships are
// removed board by board (each with its own roster broadcast), the rate
// limiter window is discarded and the transport is told to shut the
// connection. Safe to call from any goroutine, idempotent.
func (s *Session) Close(ctx context.Context) {
	s.stateMu.Lock()
	if s.state == stateClosed {
		s.stateMu.Unlock()
		return
	}
	s.state = stateClosed
	s.stateMu.Unlock()

	s.coord.detach(ctx, s)
	s.conn.Close()
	s.log.Debug("Session closed", "connection", s.id, "origin", s.origin)
}
