package runtime

import (
	"sort"
	"sync"

	"board-chat/contract"
	"board-chat/domain"
	"board-chat/domain/event"
)

// Registry tracks which connections are present in which boards, and
// resolves a board to the sinks that should receive its broadcasts.
//
// Membership is keyed by connection id, never identity: the same human
// may be present twice through two connections, and each shows up as
// one roster entry per the identity it holds.
type Registry struct {
	mu      sync.RWMutex
	sinks   map[string]contract.EventSink                 // connection -> sink
	members map[domain.BoardID]map[string]domain.Identity // board -> connection -> identity
}

func NewRegistry() *Registry {
	return &Registry{
		sinks:   make(map[string]contract.EventSink),
		members: make(map[domain.BoardID]map[string]domain.Identity),
	}
}

// RegisterSink associates a connection with its delivery sink.
func (r *Registry) RegisterSink(connectionID string, sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sinks[connectionID] = sink
}

// DropSink removes a connection's delivery sink.
func (r *Registry) DropSink(connectionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sinks, connectionID)
}

// Join adds a membership. It is idempotent: re-joining a board the
// connection is already in changes nothing and reports false, so the
// caller skips the roster broadcast.
func (r *Registry) Join(board domain.BoardID, connectionID string, identity domain.Identity) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.members[board]; !ok {
		r.members[board] = make(map[string]domain.Identity)
	}
	if _, ok := r.members[board][connectionID]; ok {
		return false
	}
	r.members[board][connectionID] = identity
	return true
}

// Leave removes a membership; a no-op for absent members. Empty board
// sets are deleted so the map does not leak over time.
func (r *Registry) Leave(board domain.BoardID, connectionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.members[board]
	if !ok {
		return false
	}
	if _, ok := members[connectionID]; !ok {
		return false
	}
	delete(members, connectionID)
	if len(members) == 0 {
		delete(r.members, board)
	}
	return true
}

// BoardsOf lists the boards a connection is currently a member of.
// Used on disconnect to drive per-board leave-and-broadcast.
func (r *Registry) BoardsOf(connectionID string) []domain.BoardID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var boards []domain.BoardID
	for board, members := range r.members {
		if _, ok := members[connectionID]; ok {
			boards = append(boards, board)
		}
	}
	return boards
}

// Roster returns a consistent snapshot of a board's live members,
// ordered by identity id, plus the member count.
func (r *Registry) Roster(board domain.BoardID) ([]event.RosterMember, int) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := r.members[board]
	roster := make([]event.RosterMember, 0, len(members))
	for _, identity := range members {
		roster = append(roster, event.RosterMember{
			IdentityID:  identity.ID,
			DisplayName: identity.DisplayName,
			AvatarTag:   identity.AvatarTag,
		})
	}
	sort.Slice(roster, func(i, j int) bool { return roster[i].IdentityID < roster[j].IdentityID })
	return roster, len(members)
}

// SinksFor resolves a board's current members to their delivery sinks.
func (r *Registry) SinksFor(board domain.BoardID) []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var sinks []contract.EventSink
	for connectionID := range r.members[board] {
		if sink, ok := r.sinks[connectionID]; ok {
			sinks = append(sinks, sink)
		}
	}
	return sinks
}

// ConnectionsByDisplayName scans every board for memberships held under
// the exact display name (case-sensitive) and returns the matching
// connection ids, deduplicated.
func (r *Registry) ConnectionsByDisplayName(displayName string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{})
	var connections []string
	for _, members := range r.members {
		for connectionID, identity := range members {
			if identity.DisplayName != displayName {
				continue
			}
			if _, ok := seen[connectionID]; ok {
				continue
			}
			seen[connectionID] = struct{}{}
			connections = append(connections, connectionID)
		}
	}
	return connections
}
