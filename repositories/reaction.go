package repositories

import (
	"log/slog"
	"sort"
	"sync"

	"board-chat/domain"

	"github.com/samber/lo"
)

// IdentityResolver resolves identity ids to display names at snapshot
// time, so reaction views never carry stale denormalized names.
type IdentityResolver interface {
	Lookup(id string) (domain.Identity, bool)
}

// ReactionAggregator keeps, per message, the set of identities that
// reacted under each emoji. An identity reacts with a given emoji at
// most once (idempotent add) and may hold several distinct emoji at the
// same time. There is no unreact.
type ReactionAggregator struct {
	mu        sync.Mutex
	log       *slog.Logger
	resolver  IdentityResolver
	reactions map[string]map[string]map[string]struct{} // message -> emoji -> identity ids
}

func NewReactionAggregator(log *slog.Logger, resolver IdentityResolver) *ReactionAggregator {
	return &ReactionAggregator{
		log:       log,
		resolver:  resolver,
		reactions: make(map[string]map[string]map[string]struct{}),
	}
}

// Add records one reaction and returns the message's full snapshot.
func (a *ReactionAggregator) Add(messageID, emoji, identityID string) domain.ReactionSnapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	byEmoji, ok := a.reactions[messageID]
	if !ok {
		byEmoji = make(map[string]map[string]struct{})
		a.reactions[messageID] = byEmoji
	}
	identities, ok := byEmoji[emoji]
	if !ok {
		identities = make(map[string]struct{})
		byEmoji[emoji] = identities
	}
	identities[identityID] = struct{}{}

	return a.snapshotLocked(messageID)
}

// Snapshot returns the current aggregated view of a message. Unknown
// messages yield an empty snapshot.
func (a *ReactionAggregator) Snapshot(messageID string) domain.ReactionSnapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snapshotLocked(messageID)
}

// Drop discards reaction state for evicted messages so the aggregator
// tracks the store instead of growing for the process lifetime.
func (a *ReactionAggregator) Drop(messageIDs ...string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, id := range messageIDs {
		delete(a.reactions, id)
	}
}

func (a *ReactionAggregator) snapshotLocked(messageID string) domain.ReactionSnapshot {
	snapshot := make(domain.ReactionSnapshot)
	for emoji, identities := range a.reactions[messageID] {
		users := lo.FilterMap(lo.Keys(identities), func(id string, _ int) (string, bool) {
			identity, ok := a.resolver.Lookup(id)
			return identity.DisplayName, ok
		})
		sort.Strings(users)
		snapshot[emoji] = domain.ReactionGroup{
			Count: len(identities),
			Users: users,
		}
	}
	return snapshot
}
