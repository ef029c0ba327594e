package runtime

import (
	"context"
	"testing"

	"board-chat/domain"
	"board-chat/domain/event"

	"github.com/stretchr/testify/require"
)

type nullSink struct{}

func (nullSink) Consume(context.Context, event.DomainEvent) error { return nil }

var (
	alice = domain.Identity{ID: "u-000001", DisplayName: "Alice", AvatarTag: "AL"}
	bob   = domain.Identity{ID: "u-000002", DisplayName: "Bob", AvatarTag: "BO"}
)

func TestRegistry_JoinIsIdempotent(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	req.True(registry.Join("general", "conn-1", alice))
	req.False(registry.Join("general", "conn-1", alice), "re-join changes nothing")

	_, count := registry.Roster("general")
	req.Equal(1, count)
}

func TestRegistry_LeaveIsIdempotent(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	registry.Join("general", "conn-1", alice)
	req.True(registry.Leave("general", "conn-1"))
	req.False(registry.Leave("general", "conn-1"), "absent member is a no-op")
	req.False(registry.Leave("ghost", "conn-1"), "unknown board is a no-op")
}

func TestRegistry_RosterSnapshot(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	registry.Join("general", "conn-1", alice)
	registry.Join("general", "conn-2", bob)
	registry.Join("tech", "conn-2", bob)

	roster, count := registry.Roster("general")
	req.Equal(2, count)
	req.Equal([]event.RosterMember{
		{IdentityID: "u-000001", DisplayName: "Alice", AvatarTag: "AL"},
		{IdentityID: "u-000002", DisplayName: "Bob", AvatarTag: "BO"},
	}, roster, "ordered by identity id")

	registry.Leave("general", "conn-1")
	roster, count = registry.Roster("general")
	req.Equal(1, count)
	req.Equal("u-000002", roster[0].IdentityID)
}

func TestRegistry_BoardsOf(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	registry.Join("general", "conn-1", alice)
	registry.Join("tech", "conn-1", alice)
	registry.Join("tech", "conn-2", bob)

	req.ElementsMatch([]domain.BoardID{"general", "tech"}, registry.BoardsOf("conn-1"))
	req.ElementsMatch([]domain.BoardID{"tech"}, registry.BoardsOf("conn-2"))
	req.Empty(registry.BoardsOf("conn-3"))
}

func TestRegistry_SinksFor(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	registry.RegisterSink("conn-1", nullSink{})
	registry.RegisterSink("conn-2", nullSink{})
	registry.Join("general", "conn-1", alice)
	registry.Join("general", "conn-2", bob)

	req.Len(registry.SinksFor("general"), 2)

	registry.DropSink("conn-2")
	req.Len(registry.SinksFor("general"), 1, "dropped sinks are not resolved")
}

func TestRegistry_ConnectionsByDisplayName(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	// The same identity can be present through two connections, and the
	// same connection in two boards must be reported once.
	registry.Join("general", "conn-1", alice)
	registry.Join("tech", "conn-1", alice)
	registry.Join("general", "conn-2", alice)
	registry.Join("general", "conn-3", bob)

	req.ElementsMatch([]string{"conn-1", "conn-2"}, registry.ConnectionsByDisplayName("Alice"))
	req.Empty(registry.ConnectionsByDisplayName("alice"), "match is case-sensitive")
}
