package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"job-board/domain"
	"job-board/infrastructure"
	"job-board/interfaces"
)

const (
	shutdownTimeout = 15 * time.Second
	limiterMaxIdle  = 10 * time.Minute
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, websocket feeds and scheduled jobs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.serve(ctx)
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	if a.cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	hub := interfaces.NewHub(infrastructure.Component(a.logger, "ws"))
	a.chat.SetBroadcaster(hub)

	err := a.subscribe("", func(ev domain.ListingEvent) {
		infrastructure.ListingEvents.WithLabelValues(string(ev.Type)).Inc()
		hub.BroadcastListingEvent(ev)
	})
	if err != nil {
		return err
	}
	if a.inline != nil {
		// Without a broker there is no sitemap worker, so this process
		// keeps the sitemap fresh itself.
		a.inline.Subscribe(func(ev domain.ListingEvent) {
			a.sitemap.HandleEvent(context.Background(), ev)
		})
	}

	limiter := interfaces.NewRateLimiter(a.cfg.RateLimitRPS, a.cfg.RateLimitBurst)
	scheduler, err := a.scheduler(limiter)
	if err != nil {
		return err
	}
	scheduler.Start()
	defer scheduler.Stop()

	router := gin.New()
	router.Use(gin.Recovery())
	interfaces.NewHTTPHandler(router, interfaces.Dependencies{
		Listings:   a.listings,
		Favorites:  a.favorites,
		Auth:       a.auth,
		Blog:       a.blog,
		CVs:        a.cvs,
		Assistant:  a.assistant,
		Chat:       a.chat,
		Promotions: a.promotions,
		Tokens:     a.jwt,
		Hub:        hub,
		Limiter:    limiter,
		SiteURL:    a.cfg.SiteURL,
		Log:        infrastructure.Component(a.logger, "http"),
	})

	srv := &http.Server{
		Addr:              ":" + a.cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.WithField("addr", srv.Addr).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case err := <-a.brokerLost():
		a.log.WithError(err).Error("event broker lost, shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return err
	case <-ctx.Done():
	}

	a.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// scheduler registers the maintenance jobs run by the API process.
func (a *app) scheduler(limiter *interfaces.RateLimiter) (*infrastructure.Scheduler, error) {
	s := infrastructure.NewScheduler(infrastructure.Component(a.logger, "scheduler"))

	jobs := []struct {
		name    string
		spec    string
		timeout time.Duration
		fn      func(context.Context) error
	}{
		{"expire-listings", "@hourly", time.Minute, func(ctx context.Context) error {
			_, err := a.listings.ExpireStale(ctx)
			return err
		}},
		{"regenerate-sitemap", "15 3 * * *", 5 * time.Minute, func(ctx context.Context) error {
			_, err := a.sitemap.Regenerate(ctx)
			return err
		}},
		{"cleanup", "@every 5m", 10 * time.Second, func(context.Context) error {
			limiter.Cleanup(limiterMaxIdle)
			a.cache.Cleanup()
			return nil
		}},
	}
	for _, j := range jobs {
		if err := s.Add(j.name, j.spec, j.timeout, j.fn); err != nil {
			return nil, err
		}
	}
	return s, nil
}
