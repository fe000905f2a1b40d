// Command server runs the tunnelvision relay: a websocket hub that
// broadcasts text control messages to every peer and routes addressed
// binary frames to the single peer registered under their identifier
// header. It also serves the bundled SPA viewer.
package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/urfave/cli/v3"

	"github.com/tunnelvision/server/internal/config"
	"github.com/tunnelvision/server/internal/eventbus"
	"github.com/tunnelvision/server/internal/logging"
	"github.com/tunnelvision/server/internal/webui"
	"github.com/tunnelvision/server/pkg/errors"
	"github.com/tunnelvision/server/pkg/relay"
	wstransport "github.com/tunnelvision/server/pkg/transport/websocket"
)

func main() {
	cmd := &cli.Command{
		Name:  "tunnelvision",
		Usage: "websocket relay server for remote screen viewing",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to a JSON or YAML config file",
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "port to listen on",
			},
			&cli.StringFlag{
				Name:    "static-dir",
				Aliases: []string{"d"},
				Usage:   "path to SPA/dist directory",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "log level (debug, info, warn, error)",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "log format (text, json, pretty)",
			},
		},
		Action: run,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.Load(config.LoadOptions{Path: cmd.String("config")})
	if err != nil {
		return err
	}

	// CLI flags win over file and environment.
	if port := cmd.Int("port"); port != 0 {
		cfg.Server.Port = int(port)
	}
	if dir := cmd.String("static-dir"); dir != "" {
		cfg.Server.StaticDir = dir
	}
	if level := cmd.String("log-level"); level != "" {
		cfg.Logging.Level = level
	}
	if format := cmd.String("log-format"); format != "" {
		cfg.Logging.Format = format
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := logging.New(cfg.Logging)
	errHandler := errors.NewDefaultHandler(logger.Logger)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	bus := eventbus.NewInMemoryBus(256)
	bus.Start(ctx)
	defer bus.Stop()

	bus.SubscribeAll(func(event *eventbus.Event) {
		logger.Debug("event",
			"type", string(event.Type),
			"source", event.Source,
			"metadata", event.Metadata,
		)
	})

	registry := relay.NewRegistry()
	hub := relay.NewHub(cfg.Relay.BufferSize)

	wsServer := wstransport.NewServer(
		wstransport.WithRegistry(registry),
		wstransport.WithHub(hub),
		wstransport.WithLogger(logger),
		wstransport.WithEventBus(bus),
		wstransport.WithConnOptions(wstransport.ConnOptions{
			WriteTimeout:   cfg.Relay.WriteTimeout,
			ReadTimeout:    cfg.Relay.ReadTimeout,
			MaxMessageSize: cfg.Relay.MaxMessageSize,
		}),
		wstransport.WithPingInterval(cfg.Relay.PingInterval),
	)

	r := chi.NewRouter()
	r.Use(middleware.Logger)

	r.Get("/api/hello", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("Hello, Client!"))
	})
	r.Get("/ws", wsServer.ServeHTTP)
	r.Handle("/*", webui.Handler(cfg.Server.StaticDir))

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	go func() {
		<-ctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			errHandler.Handle(shutdownCtx, err)
		}
	}()

	logger.Info("listening", "addr", addr, "static_dir", cfg.Server.StaticDir)
	fmt.Println("--- tunnelvision ---")

	if err := srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		errHandler.Handle(ctx, err)
		return err
	}

	return nil
}
