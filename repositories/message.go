//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"board-chat/domain"

	"github.com/dgraph-io/badger/v4"
)

const DefaultBoardCapacity = 1000

type IMessageRepository interface {
	Append(message domain.Message) ([]string, error)
	Recent(board domain.BoardID, limit int) ([]domain.Message, error)
}

// MessageRepository is the bounded per-board message log, stored in
// BadgerDB. Keys are formatted as "msg:{board}:{message_id}"; message
// ids start with a zero-padded nanosecond timestamp, so a plain prefix
// scan returns a board's messages in chronological order.
//
// The store is opened in-memory: history lives exactly as long as the
// process, which is the intended lifetime.
type MessageRepository struct {
	db       *badger.DB
	log      *slog.Logger
	capacity int

	// mu makes append-then-evict atomic per board; counts avoids a
	// prefix scan on every append.
	mu     sync.Mutex
	counts map[domain.BoardID]int
}

func NewMessageRepository(db *badger.DB, log *slog.Logger, capacity int) *MessageRepository {
	if capacity <= 0 {
		capacity = DefaultBoardCapacity
	}
	return &MessageRepository{
		db:       db,
		log:      log,
		capacity: capacity,
		counts:   make(map[domain.BoardID]int),
	}
}

func messageKey(board domain.BoardID, id string) []byte {
	return []byte(fmt.Sprintf("msg:%s:%s", board, id))
}

func boardPrefix(board domain.BoardID) []byte {
	return []byte(fmt.Sprintf("msg:%s:", board))
}

// Append stores a message and evicts oldest-first while the board is
// over capacity. It returns the evicted message ids so callers can
// garbage-collect dependent state (reaction sets). The whole operation
// is atomic with respect to concurrent appends.
func (m *MessageRepository) Append(message domain.Message) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	value, err := json.Marshal(message)
	if err != nil {
		return nil, fmt.Errorf("marshal message: %w", err)
	}

	overflow := m.counts[message.BoardID] + 1 - m.capacity
	var evicted []string

	err = m.db.Update(func(txn *badger.Txn) error {
		if overflow > 0 {
			prefix := boardPrefix(message.BoardID)
			options := badger.DefaultIteratorOptions
			options.PrefetchValues = false
			it := txn.NewIterator(options)
			defer it.Close()

			for it.Seek(prefix); it.ValidForPrefix(prefix) && len(evicted) < overflow; it.Next() {
				key := it.Item().KeyCopy(nil)
				if err := txn.Delete(key); err != nil {
					return err
				}
				evicted = append(evicted, string(key[len(prefix):]))
			}
		}
		return txn.Set(messageKey(message.BoardID, message.ID), value)
	})
	if err != nil {
		return nil, err
	}

	m.counts[message.BoardID] += 1 - len(evicted)
	if len(evicted) > 0 {
		m.log.Debug("Evicted oldest messages",
			"board", message.BoardID, "count", len(evicted))
	}
	return evicted, nil
}

// Recent returns up to limit messages of a board in insertion order,
// most recent last. A board with no messages yields an empty slice,
// never an error. Recent never mutates state.
func (m *MessageRepository) Recent(board domain.BoardID, limit int) ([]domain.Message, error) {
	var raw [][]byte

	err := m.db.View(func(txn *badger.Txn) error {
		prefix := boardPrefix(board)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		// Seek past the newest possible key, then walk backwards.
		seekKey := append(append([]byte{}, prefix...), 0xff)
		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			if limit > 0 && len(raw) == limit {
				break
			}
			err := it.Item().Value(func(value []byte) error {
				raw = append(raw, append([]byte{}, value...))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Reverse scan collected newest-first; flip back to chronological.
	messages := make([]domain.Message, len(raw))
	for i, value := range raw {
		var message domain.Message
		if err := json.Unmarshal(value, &message); err != nil {
			return nil, fmt.Errorf("unmarshal message: %w", err)
		}
		messages[len(raw)-1-i] = message
	}
	return messages, nil
}

// Count returns the number of stored messages of a board.
func (m *MessageRepository) Count(board domain.BoardID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[board]
}
