package moderation

import (
	"log/slog"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

type fakePresence struct {
	byName map[string][]string
}

func (f *fakePresence) ConnectionsByDisplayName(name string) []string {
	return f.byName[name]
}

type fakeSessions struct {
	origins    map[string]string
	terminated []string
}

func (f *fakeSessions) OriginOf(connectionID string) (string, bool) {
	origin, ok := f.origins[connectionID]
	return origin, ok
}

func (f *fakeSessions) Terminate(connectionID string) {
	f.terminated = append(f.terminated, connectionID)
}

func newTestEngine(bans *BanList, presence *fakePresence, sessions *fakeSessions) *Engine {
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	return NewEngine(log, "u-000001", bans, presence, sessions)
}

func TestEngine_BanOrigin(t *testing.T) {
	req := require.New(t)
	bans := NewBanList()
	sessions := &fakeSessions{origins: map[string]string{}}
	engine := newTestEngine(bans, &fakePresence{}, sessions)

	reply, handled := engine.TryHandle("u-000001", "/banip 1.2.3.4")

	req.True(handled)
	req.Contains(reply, "1.2.3.4")
	req.True(bans.IsBanned("1.2.3.4"))
	req.Empty(sessions.terminated, "/banip never disconnects anyone")
}

func TestEngine_NonModeratorFallsThrough(t *testing.T) {
	req := require.New(t)
	bans := NewBanList()
	engine := newTestEngine(bans, &fakePresence{}, &fakeSessions{})

	_, handled := engine.TryHandle("u-000042", "/banip 1.2.3.4")

	req.False(handled, "non-moderator commands are ordinary chat")
	req.False(bans.IsBanned("1.2.3.4"))
}

func TestEngine_BanUser(t *testing.T) {
	req := require.New(t)
	bans := NewBanList()
	presence := &fakePresence{byName: map[string][]string{
		"Troll": {"conn-1", "conn-2"},
	}}
	sessions := &fakeSessions{origins: map[string]string{
		"conn-1": "10.0.0.1",
		"conn-2": "10.0.0.2",
	}}
	engine := newTestEngine(bans, presence, sessions)

	reply, handled := engine.TryHandle("u-000001", "/ban @Troll")

	req.True(handled)
	req.Contains(reply, "@Troll")
	req.True(bans.IsBanned("10.0.0.1"))
	req.True(bans.IsBanned("10.0.0.2"))
	req.ElementsMatch([]string{"conn-1", "conn-2"}, sessions.terminated)
}

func TestEngine_BanUser_CaseSensitiveMatch(t *testing.T) {
	req := require.New(t)
	bans := NewBanList()
	presence := &fakePresence{byName: map[string][]string{
		"Troll": {"conn-1"},
	}}
	sessions := &fakeSessions{origins: map[string]string{"conn-1": "10.0.0.1"}}
	engine := newTestEngine(bans, presence, sessions)

	reply, handled := engine.TryHandle("u-000001", "/ban @troll")

	req.True(handled, "command is handled even with zero matches")
	req.Contains(reply, "0 connection(s)")
	req.Empty(sessions.terminated)
	req.Equal(0, bans.Size())
}

func TestEngine_PlainTextUnhandled(t *testing.T) {
	req := require.New(t)
	engine := newTestEngine(NewBanList(), &fakePresence{}, &fakeSessions{})

	_, handled := engine.TryHandle("u-000001", "hello there")
	req.False(handled)
}
