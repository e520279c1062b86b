package keepalive

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Poller pings a single URL on a fixed interval.
type Poller struct {
	url       string
	interval  time.Duration
	threshold int
	client    *http.Client
	log       *slog.Logger
	state     *State
	now       func() time.Time
}

// Config configures a Poller.
type Config struct {
	URL       string
	Interval  time.Duration
	Timeout   time.Duration
	Threshold int
}

// NewPoller returns a Poller. A nil logger discards output.
func NewPoller(cfg Config, log *slog.Logger) *Poller {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Poller{
		url:       cfg.URL,
		interval:  cfg.Interval,
		threshold: cfg.Threshold,
		client:    &http.Client{Timeout: cfg.Timeout},
		log:       log,
		state:     &State{},
		now:       time.Now,
	}
}

// State exposes the counters for readers.
func (p *Poller) State() *State { return p.state }

// Run pings immediately and then once per interval until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) {
	p.log.Info("keep-alive started", "url", p.url, "interval", p.interval.String())
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		p.PingOnce(ctx)
		select {
		case <-ctx.Done():
			p.log.Info("keep-alive stopped")
			return
		case <-ticker.C:
		}
	}
}

// PingOnce performs a single ping, updates the state and reports whether it
// succeeded. Only HTTP 200 counts as success.
func (p *Poller) PingOnce(ctx context.Context) bool {
	ok, status := p.ping(ctx)
	failures := p.state.record(p.now(), ok, status)

	if failures >= p.threshold {
		p.log.Warn("consecutive ping failures", "count", failures, "threshold", p.threshold)
	}
	return ok
}

func (p *Poller) ping(ctx context.Context) (bool, string) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		p.log.Error("ping error", "error", err)
		return false, fmt.Sprintf("error (%v)", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		p.log.Error("ping error", "error", err)
		return false, fmt.Sprintf("error (%v)", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		p.log.Warn("ping failed", "status", resp.StatusCode)
		return false, fmt.Sprintf("failed (%d)", resp.StatusCode)
	}
	p.log.Info("ping successful", "status", resp.StatusCode)
	return true, "success"
}
