package workers

import (
	"context"
	"log/slog"

	"board-chat/contract"
	"board-chat/domain/event"
)

// TelemetryFanout forwards mirrored broadcast events to in-process
// observability sinks (language tally, search index, activity feed).
//
// It provides best-effort fan-out with no guarantees regarding delivery,
// ordering, durability, or retries: board delivery itself is synchronous
// in the coordinator and never flows through here.
type TelemetryFanout struct {
	log    *slog.Logger
	events <-chan event.DomainEvent
	sinks  []contract.EventSink
}

func NewTelemetryFanout(log *slog.Logger, events <-chan event.DomainEvent, sinks ...contract.EventSink) *TelemetryFanout {
	return &TelemetryFanout{log: log, events: events, sinks: sinks}
}

func (w *TelemetryFanout) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping telemetry fanout")
			return nil
		case e, ok := <-w.events:
			if !ok {
				return nil
			}
			w.fanout(ctx, e)
		}
	}
}

func (w *TelemetryFanout) fanout(ctx context.Context, e event.DomainEvent) {
	for _, sink := range w.sinks {
		if err := sink.Consume(ctx, e); err != nil {
			w.log.Debug("Telemetry sink failed", "kind", e.Kind(), "err", err)
		}
	}
}
