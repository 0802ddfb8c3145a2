package workers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"
)

const shutdownGrace = 5 * time.Second

// Listener serves an http.Handler as a supervised worker. The relay
// mounts its websocket endpoint and static file wrapper on it; the
// debug server reuses it on a second port.
type Listener struct {
	log     *slog.Logger
	name    string
	addr    string
	handler http.Handler
}

func NewListener(log *slog.Logger, name, addr string, handler http.Handler) *Listener {
	return &Listener{log: log, name: name, addr: addr, handler: handler}
}

// Run blocks until the server fails or the context is canceled, then
// drains in-flight requests within the shutdown grace period. Live
// websockets are torn down by their own read loops, not by Shutdown.
func (l *Listener) Run(ctx context.Context) error {
	srv := &http.Server{Addr: l.addr, Handler: l.handler}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	l.log.Info("Listener started", "name", l.name, "addr", l.addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			l.log.Warn("Listener shutdown incomplete", "name", l.name, "error", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
