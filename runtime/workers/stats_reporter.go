package workers

import (
	"context"
	"log/slog"
	"time"

	"relay-lab/contract"
	"relay-lab/observability"
)

// StatsReporter periodically logs a stats snapshot. It is the log-side
// twin of the debug endpoint: same snapshot, pushed instead of pulled.
type StatsReporter struct {
	log      *slog.Logger
	stats    *observability.Stats
	registry contract.IRegistry
	interval time.Duration
}

func NewStatsReporter(log *slog.Logger, stats *observability.Stats,
	registry contract.IRegistry, interval time.Duration) *StatsReporter {
	return &StatsReporter{log: log, stats: stats, registry: registry, interval: interval}
}

func (w *StatsReporter) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			snap := w.stats.Snapshot(w.registry.Len())
			w.log.Info("relay stats",
				"active_sessions", snap.ActiveSessions,
				"sessions_joined", snap.SessionsJoined,
				"sessions_parted", snap.SessionsParted,
				"messages_relayed", snap.MessagesRelayed,
				"emits_dropped", snap.EmitsDropped,
				"auth_failures", snap.AuthFailures,
				"rss_mb", snap.RSSBytes/(1024*1024),
				"cpu_percent", snap.CPUPercent,
			)
		}
	}
}
