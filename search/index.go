// Package search maintains a best-effort full-text index over posted
// messages. The index is fed asynchronously by the telemetry fanout, so
// a message may take a beat to become searchable; board delivery never
// waits on indexing.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"board-chat/domain"
	"board-chat/domain/event"

	"github.com/blugelabs/bluge"
)

// Result is one search hit.
type Result struct {
	MessageID string         `json:"messageId"`
	Board     domain.BoardID `json:"boardId"`
	Author    string         `json:"author"`
	Text      string         `json:"text"`
}

// Index wraps an in-memory Bluge writer. It doubles as an event sink:
// every MessagePosted it observes becomes a document.
type Index struct {
	mu     sync.Mutex
	log    *slog.Logger
	writer *bluge.Writer
}

func NewIndex(log *slog.Logger) (*Index, error) {
	writer, err := bluge.OpenWriter(bluge.InMemoryOnlyConfig())
	if err != nil {
		return nil, fmt.Errorf("open search index: %w", err)
	}
	return &Index{log: log, writer: writer}, nil
}

func (i *Index) Consume(_ context.Context, e event.DomainEvent) error {
	posted, ok := e.(event.MessagePosted)
	if !ok {
		return nil
	}

	doc := bluge.NewDocument(posted.ID).
		AddField(bluge.NewKeywordField("board", string(posted.BoardID)).StoreValue()).
		AddField(bluge.NewKeywordField("author", posted.DisplayName).StoreValue()).
		AddField(bluge.NewTextField("text", posted.Text).StoreValue())

	i.mu.Lock()
	defer i.mu.Unlock()
	return i.writer.Update(doc.ID(), doc)
}

// Search returns up to limit messages of a board matching the terms.
func (i *Index) Search(ctx context.Context, board domain.BoardID, terms string, limit int) ([]Result, error) {
	query := bluge.NewBooleanQuery().
		AddMust(bluge.NewTermQuery(string(board)).SetField("board")).
		AddMust(bluge.NewMatchQuery(terms).SetField("text"))

	reader, err := i.writer.Reader()
	if err != nil {
		return nil, fmt.Errorf("open search reader: %w", err)
	}
	defer func() { _ = reader.Close() }()

	iterator, err := reader.Search(ctx, bluge.NewTopNSearch(limit, query))
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	var results []Result
	for {
		match, err := iterator.Next()
		if err != nil {
			return nil, err
		}
		if match == nil {
			break
		}

		var result Result
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			switch field {
			case "_id":
				result.MessageID = string(value)
			case "board":
				result.Board = domain.BoardID(value)
			case "author":
				result.Author = string(value)
			case "text":
				result.Text = string(value)
			}
			return true
		})
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, nil
}

func (i *Index) Close() error {
	return i.writer.Close()
}
