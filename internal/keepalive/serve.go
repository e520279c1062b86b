package keepalive

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// shutdownTimeout bounds how long in-flight status requests may run once
// ctx is cancelled.
const shutdownTimeout = 15 * time.Second

// Serve runs p in the background and serves its status on ln until ctx is
// cancelled or the server fails. It returns only after both the server and
// the poller have stopped.
func Serve(ctx context.Context, ln net.Listener, p *Poller, reg *prometheus.Registry) error {
	h, err := Handler(p.State(), reg)
	if err != nil {
		ln.Close()
		return err
	}

	srv := &http.Server{
		Handler:      h,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	pollerDone := make(chan struct{})
	go func() {
		defer close(pollerDone)
		p.Run(ctx)
	}()

	errc := make(chan error, 1)
	go func() {
		p.log.Info("keepalive server starting", "addr", ln.Addr().String(), "target", p.url)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	var serveErr error
	select {
	case serveErr = <-errc:
	case <-ctx.Done():
	}
	cancel()

	p.log.Info("shutting down keepalive server")
	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()
	shutdownErr := srv.Shutdown(shutdownCtx)

	<-pollerDone
	return errors.Join(serveErr, shutdownErr)
}
