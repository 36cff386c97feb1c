package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/poiesic/flofy/notify"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"
)

func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func metricsRouter(reg *prometheus.Registry) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	return r
}

// serveHTTP runs handler on addr until ctx is done, then shuts down.
func serveHTTP(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

// notifyRouter builds the verification endpoint plus /health and /metrics.
func notifyRouter(sender notify.Sender, reg *prometheus.Registry) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := notify.NewRouter(notify.NewVerificationHandler(sender, slog.Default()))
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	return r
}

func serveNotifyCommand(c *cli.Context) error {
	ctx, stop := signalContext(c)
	defer stop()

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	addr := cfg.Notify.Addr
	if c.IsSet("addr") {
		addr = c.String("addr")
	}
	if cfg.Notify.SendGridAPIKey == "" {
		slog.Warn("FLOFY_SENDGRID_API_KEY is not set; every send will fail")
	}

	sender := notify.NewSendGrid(
		cfg.Notify.SendGridAPIKey,
		cfg.Notify.FromEmail,
		cfg.Notify.FromName,
		notify.WithHost(cfg.Notify.SendGridHost),
		notify.WithSenderLogger(slog.Default()),
	)
	return serveHTTP(ctx, addr, notifyRouter(sender, newRegistry()))
}
