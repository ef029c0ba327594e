package repositories

import (
	"fmt"
	"log/slog"
	"testing"
	"time"

	"board-chat/domain"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *badger.DB {
	t.Helper()
	options := badger.DefaultOptions("").
		WithInMemory(true).
		WithLoggingLevel(badger.ERROR)
	db, err := badger.Open(options)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newTestMessage(board domain.BoardID, at time.Time, text string) domain.Message {
	return domain.Message{
		ID:          domain.NewMessageID(at),
		BoardID:     board,
		AuthorID:    "u-000001",
		DisplayName: "Alice",
		AvatarTag:   "AL",
		Text:        text,
		CreatedAt:   at,
	}
}

func TestMessageRepository_AppendAndRecent(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	repo := NewMessageRepository(newTestDB(t), log, DefaultBoardCapacity)

	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		_, err := repo.Append(newTestMessage("general", base.Add(time.Duration(i)*time.Millisecond), fmt.Sprintf("message %d", i)))
		req.NoError(err)
	}

	messages, err := repo.Recent("general", 100)
	req.NoError(err)
	req.Len(messages, 3)
	req.Equal([]string{"message 0", "message 1", "message 2"},
		lo.Map(messages, func(m domain.Message, _ int) string { return m.Text }),
		"insertion order, most recent last")
}

func TestMessageRepository_EvictsOldestFirst(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	repo := NewMessageRepository(newTestDB(t), log, 5)

	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	var firstID string
	for i := 0; i < 6; i++ {
		msg := newTestMessage("general", base.Add(time.Duration(i)*time.Millisecond), fmt.Sprintf("message %d", i))
		if i == 0 {
			firstID = msg.ID
		}
		evicted, err := repo.Append(msg)
		req.NoError(err)
		if i < 5 {
			req.Empty(evicted)
		} else {
			req.Equal([]string{firstID}, evicted, "append over capacity evicts the oldest")
		}
	}

	messages, err := repo.Recent("general", 100)
	req.NoError(err)
	req.Len(messages, 5)
	req.Equal("message 1", messages[0].Text, "message 0 is gone")
	req.Equal("message 5", messages[4].Text)
	req.Equal(5, repo.Count("general"))
}

func TestMessageRepository_RecentLimit(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	repo := NewMessageRepository(newTestDB(t), log, DefaultBoardCapacity)

	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 10; i++ {
		_, err := repo.Append(newTestMessage("general", base.Add(time.Duration(i)*time.Millisecond), fmt.Sprintf("message %d", i)))
		req.NoError(err)
	}

	messages, err := repo.Recent("general", 4)
	req.NoError(err)
	req.Len(messages, 4)
	req.Equal("message 6", messages[0].Text, "limit keeps the most recent slice")
	req.Equal("message 9", messages[3].Text)
}

func TestMessageRepository_EmptyBoard(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	repo := NewMessageRepository(newTestDB(t), log, DefaultBoardCapacity)

	messages, err := repo.Recent("ghost-town", 100)
	req.NoError(err)
	req.Empty(messages)
}

func TestMessageRepository_BoardsAreIsolated(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	repo := NewMessageRepository(newTestDB(t), log, 2)

	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		_, err := repo.Append(newTestMessage("general", base.Add(time.Duration(i)*time.Millisecond), "general msg"))
		req.NoError(err)
	}
	_, err := repo.Append(newTestMessage("tech", base, "tech msg"))
	req.NoError(err)

	techMessages, err := repo.Recent("tech", 100)
	req.NoError(err)
	req.Len(techMessages, 1, "eviction on one board never touches another")
}
