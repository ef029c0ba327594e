// Package runtime owns the session/room coordination layer: connection
// lifecycle, presence, broadcast ordering and the message pipeline. It
// orchestrates the system without containing transport or UI logic.
package runtime

import (
	"context"
	"log/slog"
	"sync"

	"board-chat/contract"
	"board-chat/directory"
	"board-chat/domain"
	"board-chat/domain/event"
	"board-chat/errors"
	"board-chat/moderation"
	"board-chat/observability"
	"board-chat/repositories"

	"github.com/google/uuid"
)

// Coordinator wires the shared registries together and owns all live
// sessions. Registries are injected, not ambient: the coordinator is
// the only place that sequences their mutation with broadcasting.
type Coordinator struct {
	log       *slog.Logger
	catalog   []domain.Board
	directory *directory.Directory
	bans      *moderation.BanList
	limiter   *moderation.RateLimiter
	engine    *moderation.Engine
	trigger   moderation.Trigger
	messages  *repositories.MessageRepository
	reactions *repositories.ReactionAggregator
	presence  *Registry
	monitor   *observability.Monitor
	telemetry chan<- event.DomainEvent

	mu            sync.Mutex
	sessions      map[string]*Session
	messageBoards map[string]domain.BoardID
	boardLocks    map[domain.BoardID]*sync.Mutex
}

func NewCoordinator(
	log *slog.Logger,
	catalog []domain.Board,
	dir *directory.Directory,
	bans *moderation.BanList,
	limiter *moderation.RateLimiter,
	trigger moderation.Trigger,
	messages *repositories.MessageRepository,
	reactions *repositories.ReactionAggregator,
	presence *Registry,
	monitor *observability.Monitor,
	telemetry chan<- event.DomainEvent,
	moderatorID string,
) *Coordinator {
	c := &Coordinator{
		log:           log,
		catalog:       catalog,
		directory:     dir,
		bans:          bans,
		limiter:       limiter,
		trigger:       trigger,
		messages:      messages,
		reactions:     reactions,
		presence:      presence,
		monitor:       monitor,
		telemetry:     telemetry,
		sessions:      make(map[string]*Session),
		messageBoards: make(map[string]domain.BoardID),
		boardLocks:    make(map[domain.BoardID]*sync.Mutex),
	}
	c.engine = moderation.NewEngine(log, moderatorID, bans, presence, c)
	return c
}

// Connect accepts or rejects an incoming connection. A banned origin is
// told so and closed before any session state exists (the rejected-banned
// path of the state machine); everyone else gets an Active session.
func (c *Coordinator) Connect(ctx context.Context, origin string, conn contract.ClientConn) (*Session, error) {
	if c.bans.IsBanned(origin) {
		c.log.Info("Rejected banned origin", "origin", origin)
		_ = conn.Consume(ctx, event.ErrorNotice{Message: "you are banned"})
		conn.Close()
		return nil, errors.ErrBannedOrigin
	}

	session := &Session{
		id:     uuid.NewString(),
		origin: origin,
		coord:  c,
		conn:   conn,
		log:    c.log,
	}

	c.mu.Lock()
	c.sessions[session.id] = session
	c.mu.Unlock()

	c.presence.RegisterSink(session.id, conn)
	c.monitor.ConnectionOpened()
	c.log.Debug("Session opened", "connection", session.id, "origin", origin)
	return session, nil
}

// lockBoard returns the mutex serializing membership-mutation-plus-
// roster-broadcast for one board, creating it on first use.
func (c *Coordinator) lockBoard(board domain.BoardID) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	lock, ok := c.boardLocks[board]
	if !ok {
		lock = &sync.Mutex{}
		c.boardLocks[board] = lock
	}
	return lock
}

// joinBoard adds a membership and, if the membership set changed,
// broadcasts exactly one roster update reflecting it. The per-board
// lock guarantees concurrent joins/leaves produce rosters in a total
// order with no stale snapshot delivered after a fresher one.
func (c *Coordinator) joinBoard(ctx context.Context, board domain.BoardID, connectionID string, identity domain.Identity) {
	lock := c.lockBoard(board)
	lock.Lock()
	defer lock.Unlock()

	if c.presence.Join(board, connectionID, identity) {
		c.broadcastRoster(ctx, board)
	}
}

func (c *Coordinator) leaveBoard(ctx context.Context, board domain.BoardID, connectionID string) {
	lock := c.lockBoard(board)
	lock.Lock()
	defer lock.Unlock()

	if c.presence.Leave(board, connectionID) {
		c.broadcastRoster(ctx, board)
	}
}

// detach removes a closing session from every board it is in, with one
// roster broadcast per affected board, then discards its limiter state.
func (c *Coordinator) detach(ctx context.Context, session *Session) {
	for _, board := range c.presence.BoardsOf(session.id) {
		c.leaveBoard(ctx, board, session.id)
	}
	c.presence.DropSink(session.id)
	c.limiter.Forget(session.id)

	c.mu.Lock()
	delete(c.sessions, session.id)
	c.mu.Unlock()

	c.monitor.ConnectionClosed()
}

// postMessage appends to the bounded log, garbage-collects reaction
// state of evicted messages and broadcasts the new message.
func (c *Coordinator) postMessage(ctx context.Context, message domain.Message) error {
	evicted, err := c.messages.Append(message)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.messageBoards[message.ID] = message.BoardID
	for _, id := range evicted {
		delete(c.messageBoards, id)
	}
	c.mu.Unlock()

	if len(evicted) > 0 {
		c.reactions.Drop(evicted...)
	}

	c.monitor.MessagePosted()
	c.broadcast(ctx, message.BoardID, event.MessagePosted{Message: message})
	return nil
}

// boardOfMessage resolves the board a stored message belongs to. False
// for ids the store never saw or has since evicted.
func (c *Coordinator) boardOfMessage(messageID string) (domain.BoardID, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	board, ok := c.messageBoards[messageID]
	return board, ok
}

// broadcastRoster emits the roster pair (full roster plus the legacy
// count-only form) to a board. Callers must hold the board lock.
func (c *Coordinator) broadcastRoster(ctx context.Context, board domain.BoardID) {
	roster, count := c.presence.Roster(board)
	c.broadcast(ctx, board,
		event.RosterUpdated{Board: board, Users: roster, Count: count},
		event.UserCountUpdated{Board: board, Count: count},
	)
}

// broadcast fans events out to every sink of a board, fire-and-forget.
// A failing recipient never aborts delivery to the others.
func (c *Coordinator) broadcast(ctx context.Context, board domain.BoardID, events ...event.DomainEvent) {
	sinks := c.presence.SinksFor(board)
	for _, e := range events {
		for _, sink := range sinks {
			if err := sink.Consume(ctx, e); err != nil {
				c.log.Debug("Broadcast delivery failed", "board", board, "err", err)
			}
		}
		c.publishTelemetry(e)
	}
}

// publishTelemetry mirrors events onto the observability pipeline
// without ever blocking the hot path.
func (c *Coordinator) publishTelemetry(e event.DomainEvent) {
	if c.telemetry == nil {
		return
	}
	select {
	case c.telemetry <- e:
	default:
		c.log.Debug("Telemetry event lost")
	}
}

// OriginOf implements moderation.SessionTerminator.
func (c *Coordinator) OriginOf(connectionID string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	session, ok := c.sessions[connectionID]
	if !ok {
		return "", false
	}
	return session.origin, true
}

// Terminate implements moderation.SessionTerminator: a forced,
// immediate disconnect driven by a moderation command.
func (c *Coordinator) Terminate(connectionID string) {
	c.mu.Lock()
	session, ok := c.sessions[connectionID]
	c.mu.Unlock()
	if ok {
		session.Close(context.Background())
	}
}

// ActiveSessions returns the number of live sessions.
func (c *Coordinator) ActiveSessions() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sessions)
}
