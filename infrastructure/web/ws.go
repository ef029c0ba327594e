package web

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"board-chat/domain"
	"board-chat/domain/event"
	"board-chat/runtime"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 4096
	sendBufferSize = 256
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Envelope is the wire framing of every websocket event, inbound and
// outbound: {"type": ..., "data": ...}.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type joinBoardData struct {
	BoardID  domain.BoardID  `json:"boardId"`
	Identity domain.Identity `json:"identity"`
}

type leaveBoardData struct {
	BoardID domain.BoardID `json:"boardId"`
}

type sendMessageData struct {
	BoardID    domain.BoardID `json:"boardId"`
	Text       string         `json:"text"`
	IdentityID string         `json:"identityId"`
}

type addReactionData struct {
	MessageID  string `json:"messageId"`
	Emoji      string `json:"emoji"`
	IdentityID string `json:"identityId"`
}

// Client adapts one websocket connection to the coordinator's
// ClientConn contract: Consume enqueues outbound events, Close shuts
// the send channel, which ends the write pump and the connection.
type Client struct {
	log       *slog.Logger
	conn      *websocket.Conn
	send      chan []byte
	closeOnce sync.Once
}

func newClient(log *slog.Logger, conn *websocket.Conn) *Client {
	return &Client{
		log:  log,
		conn: conn,
		send: make(chan []byte, sendBufferSize),
	}
}

// Consume marshals and enqueues one event. Delivery is fire-and-forget:
// a slow consumer whose buffer is full loses the event rather than
// blocking the broadcaster.
func (c *Client) Consume(_ context.Context, e event.DomainEvent) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", e.Kind(), err)
	}
	payload, err := json.Marshal(Envelope{Type: e.Kind(), Data: data})
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	select {
	case c.send <- payload:
		return nil
	default:
		return fmt.Errorf("send buffer full, dropping %s", e.Kind())
	}
}

// Close is idempotent and safe from any goroutine.
func (c *Client) Close() {
	c.closeOnce.Do(func() { close(c.send) })
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump decodes inbound envelopes and feeds them to the session,
// one at a time. When the read side dies the session is closed, which
// removes the connection from every board.
func (c *Client) readPump(ctx context.Context, session *runtime.Session) {
	defer session.Close(ctx)

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Debug("Websocket read failed", "err", err)
			}
			return
		}

		var envelope Envelope
		if err := json.Unmarshal(payload, &envelope); err != nil {
			c.log.Debug("Invalid envelope from client", "err", err)
			continue
		}
		if err := c.dispatch(ctx, session, envelope); err != nil {
			return
		}
	}
}

func (c *Client) dispatch(ctx context.Context, session *runtime.Session, envelope Envelope) error {
	switch envelope.Type {
	case "join_board":
		var data joinBoardData
		if err := json.Unmarshal(envelope.Data, &data); err != nil {
			return nil
		}
		return session.Join(ctx, data.BoardID, data.Identity.ID)
	case "leave_board":
		var data leaveBoardData
		if err := json.Unmarshal(envelope.Data, &data); err != nil {
			return nil
		}
		return session.Leave(ctx, data.BoardID)
	case "send_message":
		var data sendMessageData
		if err := json.Unmarshal(envelope.Data, &data); err != nil {
			return nil
		}
		return session.SendMessage(ctx, data.BoardID, data.Text, data.IdentityID)
	case "add_reaction":
		var data addReactionData
		if err := json.Unmarshal(envelope.Data, &data); err != nil {
			return nil
		}
		return session.AddReaction(ctx, data.MessageID, data.Emoji, data.IdentityID)
	default:
		c.log.Debug("Unknown inbound event", "type", envelope.Type)
		return nil
	}
}
