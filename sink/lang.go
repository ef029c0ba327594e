// Package sink holds observability consumers fed by the telemetry
// fanout. Sinks are best-effort and never on the broadcast hot path.
package sink

import (
	"context"
	"sync"

	"board-chat/domain/event"

	"github.com/abadojack/whatlanggo"
)

// LanguageStats tallies the detected language of every posted message.
type LanguageStats struct {
	mu    sync.Mutex
	tally map[string]uint64
}

func NewLanguageStats() *LanguageStats {
	return &LanguageStats{tally: make(map[string]uint64)}
}

func (s *LanguageStats) Consume(_ context.Context, e event.DomainEvent) error {
	posted, ok := e.(event.MessagePosted)
	if !ok {
		return nil
	}

	info := whatlanggo.Detect(posted.Text)
	code := info.Lang.Iso6391()
	if code == "" {
		code = "unknown"
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tally[code]++
	return nil
}

// Tally returns a copy of the per-language message counts.
func (s *LanguageStats) Tally() map[string]uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]uint64, len(s.tally))
	for code, count := range s.tally {
		out[code] = count
	}
	return out
}
