// Package observability aggregates runtime counters and self-process
// metrics for the stats endpoint. Everything here is advisory telemetry;
// nothing in the core depends on it.
package observability

import (
	"log/slog"
	"os"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/shirou/gopsutil/process"
)

// Snapshot is the point-in-time view served by /api/stats.
type Snapshot struct {
	ActiveConnections int64   `json:"active_connections"`
	TotalConnections  uint64  `json:"total_connections"`
	MessagesPosted    uint64  `json:"messages_posted"`
	ReactionsAdded    uint64  `json:"reactions_added"`
	BansIssued        uint64  `json:"bans_issued"`
	ConfettiFired     uint64  `json:"confetti_fired"`
	UptimeSeconds     int64   `json:"uptime_seconds"`
	Goroutines        int     `json:"goroutines"`
	CPUPercent        float64 `json:"cpu_percent"`
	RSSBytes          uint64  `json:"rss_bytes"`
}

// Monitor collects counters from the coordinator via atomic increments.
type Monitor struct {
	log     *slog.Logger
	started time.Time
	proc    *process.Process

	activeConnections int64
	totalConnections  uint64
	messagesPosted    uint64
	reactionsAdded    uint64
	bansIssued        uint64
	confettiFired     uint64
}

func NewMonitor(log *slog.Logger) *Monitor {
	// Best-effort: on exotic platforms self-process stats may be
	// unavailable and the snapshot reports zeros.
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		log.Warn("Self-process stats unavailable", "err", err)
	}
	return &Monitor{log: log, started: time.Now(), proc: proc}
}

func (m *Monitor) ConnectionOpened() {
	atomic.AddInt64(&m.activeConnections, 1)
	atomic.AddUint64(&m.totalConnections, 1)
}

func (m *Monitor) ConnectionClosed() {
	atomic.AddInt64(&m.activeConnections, -1)
}

func (m *Monitor) MessagePosted()  { atomic.AddUint64(&m.messagesPosted, 1) }
func (m *Monitor) ReactionAdded()  { atomic.AddUint64(&m.reactionsAdded, 1) }
func (m *Monitor) BanIssued()      { atomic.AddUint64(&m.bansIssued, 1) }
func (m *Monitor) ConfettiFired()  { atomic.AddUint64(&m.confettiFired, 1) }

// GetLatest assembles the current snapshot, including best-effort
// CPU/RSS readings of this process.
func (m *Monitor) GetLatest() Snapshot {
	snapshot := Snapshot{
		ActiveConnections: atomic.LoadInt64(&m.activeConnections),
		TotalConnections:  atomic.LoadUint64(&m.totalConnections),
		MessagesPosted:    atomic.LoadUint64(&m.messagesPosted),
		ReactionsAdded:    atomic.LoadUint64(&m.reactionsAdded),
		BansIssued:        atomic.LoadUint64(&m.bansIssued),
		ConfettiFired:     atomic.LoadUint64(&m.confettiFired),
		UptimeSeconds:     int64(time.Since(m.started).Seconds()),
		Goroutines:        runtime.NumGoroutine(),
	}

	if m.proc != nil {
		if cpu, err := m.proc.CPUPercent(); err == nil {
			snapshot.CPUPercent = cpu
		}
		if mem, err := m.proc.MemoryInfo(); err == nil {
			snapshot.RSSBytes = mem.RSS
		}
	}
	return snapshot
}
