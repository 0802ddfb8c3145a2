package observability

import (
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"github.com/shirou/gopsutil/process"
)

// Stats aggregates relay counters plus process-level metrics for the
// debug endpoint and the periodic reporter. All increment methods are
// nil-safe so the core can run without observability wired in.
type Stats struct {
	log       *slog.Logger
	startedAt time.Time
	proc      *process.Process

	sessionsJoined  atomic.Uint64
	sessionsParted  atomic.Uint64
	messagesRelayed atomic.Uint64
	emitsDropped    atomic.Uint64
	authFailures    atomic.Uint64
}

// Snapshot is the JSON view served by the debug endpoint.
type Snapshot struct {
	ActiveSessions  int     `json:"active_sessions"`
	SessionsJoined  uint64  `json:"sessions_joined"`
	SessionsParted  uint64  `json:"sessions_parted"`
	MessagesRelayed uint64  `json:"messages_relayed"`
	EmitsDropped    uint64  `json:"emits_dropped"`
	AuthFailures    uint64  `json:"auth_failures"`
	RSSBytes        uint64  `json:"rss_bytes"`
	CPUPercent      float64 `json:"cpu_percent"`
	UptimeSeconds   float64 `json:"uptime_seconds"`
}

func NewStats(log *slog.Logger) *Stats {
	s := &Stats{log: log, startedAt: time.Now()}

	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		log.Warn("process metrics unavailable", "error", err)
	} else {
		s.proc = p
	}
	return s
}

func (s *Stats) IncrSessionsJoined() {
	if s == nil {
		return
	}
	s.sessionsJoined.Add(1)
}

func (s *Stats) IncrSessionsParted() {
	if s == nil {
		return
	}
	s.sessionsParted.Add(1)
}

func (s *Stats) IncrMessagesRelayed() {
	if s == nil {
		return
	}
	s.messagesRelayed.Add(1)
}

func (s *Stats) IncrEmitsDropped() {
	if s == nil {
		return
	}
	s.emitsDropped.Add(1)
}

func (s *Stats) IncrAuthFailures() {
	if s == nil {
		return
	}
	s.authFailures.Add(1)
}

// Snapshot collects the current counters plus RSS and CPU usage of the
// relay process.
func (s *Stats) Snapshot(activeSessions int) Snapshot {
	snap := Snapshot{
		ActiveSessions:  activeSessions,
		SessionsJoined:  s.sessionsJoined.Load(),
		SessionsParted:  s.sessionsParted.Load(),
		MessagesRelayed: s.messagesRelayed.Load(),
		EmitsDropped:    s.emitsDropped.Load(),
		AuthFailures:    s.authFailures.Load(),
		UptimeSeconds:   time.Since(s.startedAt).Seconds(),
	}

	if s.proc != nil {
		if mem, err := s.proc.MemoryInfo(); err == nil {
			snap.RSSBytes = mem.RSS
		}
		if cpu, err := s.proc.CPUPercent(); err == nil {
			snap.CPUPercent = cpu
		}
	}
	return snap
}
