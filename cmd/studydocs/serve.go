package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/thywilljoshua/study-docs/internal/api"
	"github.com/thywilljoshua/study-docs/internal/metrics"
	"github.com/thywilljoshua/study-docs/internal/session"
)

func serveCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the study session HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			assistant, err := a.newAssistant(ctx)
			if err != nil {
				return err
			}

			reg := prometheus.NewRegistry()
			reg.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
			m := metrics.New(reg)

			mgr := session.NewManager(a.sessionDeps(assistant, m), a.cfg.Sessions.MaxSessions)
			go mgr.RunJanitor(ctx, a.cfg.Sessions.GetCleanupInterval(), a.cfg.Sessions.GetIdleTimeout())

			e := api.NewServer(api.Dependencies{
				Sessions:  mgr,
				Metrics:   m,
				Gatherer:  reg,
				Logger:    a.logger,
				Version:   version,
				BodyLimit: a.cfg.Server.BodyLimit,
			})

			errCh := make(chan error, 1)
			go func() {
				a.logger.Info("HTTP API listening",
					"address", a.cfg.Server.Addr(),
					"analysis_model", a.cfg.AI.AnalysisModel,
					"speech_model", a.cfg.AI.SpeechModel,
					"mp3", a.cfg.Audio.MP3Enabled)
				if err := e.Start(a.cfg.Server.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err, ok := <-errCh:
				if ok {
					return err
				}
				return nil
			case <-ctx.Done():
				a.logger.Info("shutdown signal received, draining requests")
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.GetShutdownTimeout())
			defer cancel()
			if err := e.Shutdown(shutdownCtx); err != nil {
				return err
			}
			a.logger.Info("server stopped", "sessions", mgr.Len())
			return nil
		},
	}
	return cmd
}
