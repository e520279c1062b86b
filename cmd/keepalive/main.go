// Command keepalive pings the TripWise API on a fixed interval so an idle
// host does not put it to sleep.
//
//	keepalive run    poll in the foreground, logging to stdout and a rotating file
//	keepalive serve  poll in the background and expose status, health and metrics over HTTP
package main

import (
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"

	"github.com/tripwise/backend/internal/config"
	"github.com/tripwise/backend/internal/keepalive"
	"github.com/tripwise/backend/internal/logging"
)

func main() {
	app := &cli.App{
		Name:  "keepalive",
		Usage: "keep the TripWise API awake",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Usage: "endpoint to ping (overrides TRIPWISE_API_URL)"},
		},
		Commands: []*cli.Command{
			{Name: "run", Usage: "poll in the foreground", Action: run},
			{Name: "serve", Usage: "poll in the background and serve status over HTTP", Action: serve},
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("keepalive failed", "error", err)
		os.Exit(1)
	}
}

func load(c *cli.Context) (config.KeepAlive, error) {
	cfg, err := config.LoadKeepAlive()
	if err != nil {
		return config.KeepAlive{}, err
	}
	if u := c.String("url"); u != "" {
		cfg.TargetURL = u
	}
	return cfg, nil
}

func newPoller(cfg config.KeepAlive, logger *slog.Logger) *keepalive.Poller {
	return keepalive.NewPoller(keepalive.Config{
		URL:       cfg.TargetURL,
		Interval:  cfg.Interval,
		Timeout:   cfg.Timeout,
		Threshold: cfg.Threshold,
	}, logger)
}

func run(c *cli.Context) error {
	cfg, err := load(c)
	if err != nil {
		return err
	}

	logger, closer := logging.New(logging.Options{
		Level:      cfg.LogLevel,
		File:       cfg.LogFile,
		MaxSizeMB:  1,
		MaxBackups: 3,
	})
	defer closer.Close()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	newPoller(cfg, logger).Run(ctx)
	return nil
}

func serve(c *cli.Context) error {
	cfg, err := load(c)
	if err != nil {
		return err
	}

	logger, _ := logging.New(logging.Options{Level: cfg.LogLevel})
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", ":"+cfg.Port)
	if err != nil {
		return err
	}
	return keepalive.Serve(ctx, ln, newPoller(cfg, logger), prometheus.NewRegistry())
}
