//go:generate go run go.uber.org/mock/mockgen -source=directory.go -destination=../mocks/mock_directory.go -package=mocks
package directory

import (
	"board-chat/domain"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

type IDirectory interface {
	Register(displayName string) domain.Identity
	Lookup(id string) (domain.Identity, bool)
}

// Directory is the process-wide identity registry. Display names are
// matched case-insensitively, so registering "Alice" and "alice" yields
// the same Identity across reconnects.
//
// Ids are sequential ("u-000001", "u-000002", ...), minted on first sight
// of a name and never reused or destroyed for the process lifetime. The
// directory itself is the single serialization point, so a counter cannot
// collide.
type Directory struct {
	mu     sync.RWMutex
	log    *slog.Logger
	byName map[string]domain.Identity // key: folded display name
	byID   map[string]domain.Identity
	nextID int
}

func NewDirectory(log *slog.Logger) *Directory {
	return &Directory{
		log:    log,
		byName: make(map[string]domain.Identity),
		byID:   make(map[string]domain.Identity),
	}
}

// Register resolves a raw display name to its Identity, creating one on
// first sight. Registration is idempotent per human user: an existing
// name (case-insensitive) returns the existing Identity unchanged.
func (d *Directory) Register(displayName string) domain.Identity {
	name := domain.NormalizeDisplayName(displayName)
	folded := strings.ToLower(name)

	d.mu.Lock()
	defer d.mu.Unlock()

	if existing, ok := d.byName[folded]; ok {
		return existing
	}

	d.nextID++
	identity := domain.Identity{
		ID:          fmt.Sprintf("u-%06d", d.nextID),
		DisplayName: name,
		AvatarTag:   domain.AvatarTag(name),
	}
	d.byName[folded] = identity
	d.byID[identity.ID] = identity
	d.log.Debug("Identity registered", "id", identity.ID, "name", name)
	return identity
}

// Lookup resolves an identity id. The second return is false for ids the
// directory never issued.
func (d *Directory) Lookup(id string) (domain.Identity, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	identity, ok := d.byID[id]
	return identity, ok
}

// Size returns the number of registered identities.
func (d *Directory) Size() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.byID)
}
