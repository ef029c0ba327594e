//go:generate go run go.uber.org/mock/mockgen -source=chat_service.go -destination=../mocks/mock_chat_service.go -package=mocks
package services

import (
	"context"
	"log/slog"

	"board-chat/contract"
	"board-chat/directory"
	"board-chat/domain"
	"board-chat/errors"
	"board-chat/repositories"
	"board-chat/runtime"
	"board-chat/search"
)

// HistoryCap bounds how many messages a single history query returns,
// regardless of the requested limit.
const HistoryCap = 100

type IChatService interface {
	Register(displayName string) domain.Identity
	Boards() []domain.Board
	History(board domain.BoardID, limit int) ([]domain.Message, error)
	Search(ctx context.Context, board domain.BoardID, terms string, limit int) ([]search.Result, error)
	Connect(ctx context.Context, origin string, conn contract.ClientConn) (*runtime.Session, error)
}

// ChatService is the thin facade between the request/response surface
// and the coordination core.
type ChatService struct {
	log         *slog.Logger
	catalog     []domain.Board
	directory   *directory.Directory
	coordinator *runtime.Coordinator
	messages    *repositories.MessageRepository
	index       *search.Index
}

func NewChatService(
	log *slog.Logger,
	catalog []domain.Board,
	dir *directory.Directory,
	coordinator *runtime.Coordinator,
	messages *repositories.MessageRepository,
	index *search.Index,
) *ChatService {
	return &ChatService{
		log:         log,
		catalog:     catalog,
		directory:   dir,
		coordinator: coordinator,
		messages:    messages,
		index:       index,
	}
}

func (s *ChatService) Register(displayName string) domain.Identity {
	return s.directory.Register(displayName)
}

func (s *ChatService) Boards() []domain.Board {
	return s.catalog
}

// History returns the most recent messages of a board in chronological
// order, capped at HistoryCap.
func (s *ChatService) History(board domain.BoardID, limit int) ([]domain.Message, error) {
	if !domain.CatalogContains(s.catalog, board) {
		return nil, errors.ErrUnknownBoard
	}
	if limit <= 0 || limit > HistoryCap {
		limit = HistoryCap
	}
	return s.messages.Recent(board, limit)
}

func (s *ChatService) Search(ctx context.Context, board domain.BoardID, terms string, limit int) ([]search.Result, error) {
	if !domain.CatalogContains(s.catalog, board) {
		return nil, errors.ErrUnknownBoard
	}
	if limit <= 0 || limit > HistoryCap {
		limit = HistoryCap
	}
	return s.index.Search(ctx, board, terms, limit)
}

func (s *ChatService) Connect(ctx context.Context, origin string, conn contract.ClientConn) (*runtime.Session, error) {
	return s.coordinator.Connect(ctx, origin, conn)
}
