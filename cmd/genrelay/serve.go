package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/gaspardpetit/genrelay/core/logx"
	"github.com/gaspardpetit/genrelay/core/secret"
	"github.com/gaspardpetit/genrelay/internal/config"
	"github.com/gaspardpetit/genrelay/internal/console"
	"github.com/gaspardpetit/genrelay/internal/metrics"
	"github.com/gaspardpetit/genrelay/internal/relay"
	"github.com/gaspardpetit/genrelay/internal/server"
	"github.com/gaspardpetit/genrelay/internal/serverstate"
	"github.com/gaspardpetit/genrelay/internal/transcript"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP relay",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}
			logx.Configure(cfg.LogLevel, cfg.LogFormat)
			if err := cfg.Validate(); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
	config.BindFlags(cmd.Flags())
	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	preg := prometheus.NewRegistry()
	preg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics.Register(preg)
	metrics.SetBuildInfo(version, buildSHA, buildDate)

	st := serverstate.New()
	rl := relay.New(cfg)
	deps := server.Deps{Generator: rl, State: st, Metrics: preg}

	if cfg.Console.Enabled {
		store, err := transcript.Open(cfg.Console)
		if err != nil {
			return fmt.Errorf("open transcript store: %w", err)
		}
		defer func() {
			if err := store.Close(); err != nil {
				logx.Log.Error().Err(err).Msg("close transcript store")
			}
		}()
		deps.Console = console.New(rl, cfg.Mode, store, cfg.Console)
		logx.Log.Info().Str("backend", cfg.Console.Backend).Int("window", cfg.Console.Window).Msg("console enabled")
	}

	handler, err := server.New(cfg, deps)
	if err != nil {
		return err
	}
	srv := &http.Server{Addr: cfg.ListenAddr(), Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", srv.Addr, err)
	}

	var metricsSrv *http.Server
	if !cfg.MetricsOnMainPort() {
		metricsSrv = &http.Server{Addr: cfg.MetricsAddr, Handler: server.MetricsHandler(preg), ReadHeaderTimeout: 10 * time.Second}
		go func() {
			logx.Log.Info().Str("addr", cfg.MetricsAddr).Msg("metrics server starting")
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logx.Log.Error().Err(err).Msg("metrics server error")
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	logx.Log.Info().
		Str("addr", srv.Addr).
		Str("mode", string(cfg.Mode)).
		Str("upstream", cfg.UpstreamURL).
		Str("api_key", secret.Configured(cfg.APIKey)).
		Dur("request_timeout", cfg.RequestTimeout).
		Msg("server starting")
	st.SetReady()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	st.StartDrain()
	logx.Log.Info().Dur("timeout", cfg.ShutdownTimeout).Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if metricsSrv != nil {
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			logx.Log.Error().Err(err).Msg("metrics server shutdown")
		}
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return <-errCh
}
