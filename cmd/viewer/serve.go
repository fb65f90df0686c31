package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/zhouzirui/midas-viewer/internal/config"
	"github.com/zhouzirui/midas-viewer/internal/handler"
	"github.com/zhouzirui/midas-viewer/internal/logging"
	"github.com/zhouzirui/midas-viewer/internal/recorder"
	"github.com/zhouzirui/midas-viewer/internal/render"
	"github.com/zhouzirui/midas-viewer/internal/service/poller"
	"github.com/zhouzirui/midas-viewer/internal/service/store"
	"github.com/zhouzirui/midas-viewer/internal/upstream"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the live viewer page",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := opts.load()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, logger)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides PORT)")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	rec, err := openRecorder(cfg.Recorder)
	if err != nil {
		return err
	}
	defer rec.Close()

	page, err := render.NewPage(cfg.View.TemplatePath, logging.Component(logger, "page"))
	if err != nil {
		return err
	}
	if err := page.Watch(ctx); err != nil {
		logger.Warn().Err(err).Msg("template hot reload disabled")
	}

	st := store.New()
	client := upstream.NewClient(cfg.Upstream.BaseURL, cfg.Upstream.Timeout())
	p := poller.New(client, st, logging.Component(logger, "poller"),
		poller.WithSchedule(cfg.Poll.TreasuryCron),
		poller.WithRecorder(rec),
	)
	if err := p.Start(ctx); err != nil {
		return err
	}
	defer p.Stop()

	router := handler.NewRouter(handler.Deps{
		Store:    st,
		Renderer: render.New(cfg.View.StartupHint, cfg.View.Location()),
		Page:     page,
		Recorder: rec,
		Logger:   logger,
	})

	return startServer(ctx, cfg.Server, router, logger)
}

func openRecorder(cfg config.RecorderConfig) (recorder.Recorder, error) {
	if cfg.SQLitePath == "" {
		return recorder.NewNoopRecorder(), nil
	}
	rec, err := recorder.NewSQLiteRecorder(cfg.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("open snapshot recorder: %w", err)
	}
	return rec, nil
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler, logger zerolog.Logger) error {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logger.Info().Str("addr", addr).Msg("MIDAS viewer listening")
	if err := runServer(ctx, srv); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
