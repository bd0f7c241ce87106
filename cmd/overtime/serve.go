package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/warp/overtime-engine/api"
	"github.com/warp/overtime-engine/app"
	"github.com/warp/overtime-engine/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  serve,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := setup(ctx, prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}
	defer func() {
		if err := rt.store.Close(); err != nil {
			rt.log.Errorf("store close: %v", err)
		}
	}()

	level := rt.cfg.Logging.Level
	handler := api.NewHandler(rt.store, rt.service, logger.NewAt("api", level))
	router := api.NewRouter(handler, api.RouterOptions{
		AllowedOrigins: rt.cfg.Server.AllowedOrigins,
		Metrics:        promhttp.Handler(),
	})

	if rt.cfg.Schedule.Enabled {
		every, err := rt.cfg.Schedule.Every()
		if err != nil {
			return err
		}
		sched := app.NewScheduler(rt.service, logger.NewAt("scheduler", level))
		sched.Interval = every
		sched.Lookback = rt.cfg.Schedule.LookbackWeeks
		sched.Start()
		defer sched.Stop()
	}

	server := &http.Server{
		Addr:         rt.cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		rt.log.Infof("server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	rt.log.Infof("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	rt.log.Infof("server stopped")
	return nil
}
