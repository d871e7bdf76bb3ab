package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"dailyregister/internal/backup"
	"dailyregister/internal/catalog"
	"dailyregister/internal/config"
	"dailyregister/internal/export"
	apphttp "dailyregister/internal/http"
	"dailyregister/internal/services"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the register's HTTP API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := setup()
		if err != nil {
			return err
		}
		return serve(cmd.Context(), cfg)
	},
}

func serve(parent context.Context, cfg *config.Config) error {
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cat, err := catalog.New(ctx, store)
	if err != nil {
		return err
	}
	if err := cat.SeedDefaults(ctx); err != nil {
		return err
	}

	backups := backup.NewManager(store.Path(), cfg.BackupDir, store)
	srv := apphttp.NewServer(":"+cfg.Port,
		store, cat,
		services.NewReportService(store),
		backups,
		export.NewExporter(cfg.ExportDir))

	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("Server starting", "addr", srv.Addr, "db", cfg.DBPath)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// once-a-day snapshot; the manager skips days that already have one
	g.Go(func() error {
		ticker := time.NewTicker(cfg.BackupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := backups.AutoBackup(ctx); err != nil {
					slog.Error("Automatic backup failed", "error", err)
				}
			case <-ctx.Done():
				return nil
			}
		}
	})

	g.Go(func() error {
		<-ctx.Done()
		slog.Info("Shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	slog.Info("Server stopped")
	return nil
}
