package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"job-board/domain"
	"job-board/infrastructure"
)

func workerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Consume listing events and keep the sitemap current",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			defer a.Close()
			if a.rabbit == nil {
				return errors.New("worker needs EVENTS_DRIVER=rabbitmq")
			}

			err = a.subscribe(infrastructure.SitemapQueue, func(ev domain.ListingEvent) {
				jobCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
				defer cancel()
				a.sitemap.HandleEvent(jobCtx, ev)
			})
			if err != nil {
				return err
			}

			a.log.WithField("queue", infrastructure.SitemapQueue).Info("worker started")
			select {
			case <-ctx.Done():
				a.log.Info("worker stopping")
				return nil
			case err := <-a.brokerLost():
				return err
			}
		},
	}
}

func sitemapCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sitemap",
		Short: "Regenerate sitemap.xml once and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := a.sitemap.Regenerate(cmd.Context())
			if err != nil {
				return err
			}
			a.log.WithField("urls", n).Info("sitemap written")
			return nil
		},
	}
}

// migrateCmd only needs the database, so it skips the rest of bootstrap.
func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(*cobra.Command, []string) error {
			cfg, err := infrastructure.LoadConfig()
			if err != nil {
				return err
			}
			logger := infrastructure.NewLogger(cfg.LogLevel, cfg.LogFormat)

			db, err := infrastructure.OpenDatabase(cfg.DBDriver, cfg.DBDSN)
			if err != nil {
				return err
			}
			if sqlDB, err := db.DB(); err == nil {
				defer sqlDB.Close()
			}
			if err := infrastructure.Migrate(db); err != nil {
				return err
			}
			infrastructure.Component(logger, "migrate").WithField("driver", cfg.DBDriver).Info("schema up to date")
			return nil
		},
	}
}
