package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"

	cipheradapter "github.com/ericfisherdev/credvault/internal/adapter/driven/cipher"
	keyringadapter "github.com/ericfisherdev/credvault/internal/adapter/driven/keyring"
	sqliteadapter "github.com/ericfisherdev/credvault/internal/adapter/driven/sqlite"
	"github.com/ericfisherdev/credvault/internal/application"
	"github.com/ericfisherdev/credvault/internal/config"
	"github.com/ericfisherdev/credvault/internal/domain/port/driven"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (fail fast on missing key material).
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.Info("config loaded",
		"db_path", cfg.DBPath,
		"default_algorithm", cfg.DefaultAlgorithm,
		"store_timeout", cfg.StoreTimeout,
		"expiry_scan_schedule", cfg.ExpiryScanSpec,
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Load the keyring. Key bytes stay inside the key provider.
	var keys *keyringadapter.Keyring
	if cfg.KeyringFile != "" {
		keys, err = keyringadapter.LoadFile(cfg.KeyringFile)
	} else {
		keys, err = keyringadapter.ParseEnv(cfg.Keys, cfg.CurrentKeyVersion)
	}
	if err != nil {
		return fmt.Errorf("load keyring: %w", err)
	}
	currentVersion, _, _ := keys.Current()
	slog.Info("keyring loaded", "versions", keys.Versions(), "current", currentVersion)

	// 4. Build the cipher registry. A bad default algorithm is fatal here,
	// not at first use.
	registry, err := cipheradapter.NewRegistry(
		[]driven.CipherEngine{cipheradapter.NewAESGCM(), cipheradapter.NewChaCha20()},
		cfg.DefaultAlgorithm,
	)
	if err != nil {
		return err
	}
	slog.Info("cipher registry ready",
		"algorithms", registry.Algorithms(), "default", registry.Default().AlgorithmID())

	// 5. Open database (dual reader/writer with WAL mode) and migrate.
	db, err := sqliteadapter.NewDB(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()
	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		return err
	}
	slog.Info("database ready", "path", cfg.DBPath)

	// 6. Wire adapters and the vault service.
	credStore := sqliteadapter.NewCredentialRepo(db)
	accessLog := sqliteadapter.NewAccessLogRepo(db)
	vault := application.NewVaultService(credStore, accessLog, registry, keys,
		application.WithStoreTimeout(cfg.StoreTimeout),
		application.WithMaxRetries(cfg.StoreRetries),
	)

	// 7. Schedule the expiry scan.
	scanner := application.NewExpiryScanner(vault, cfg.ExpiryWarnDays)
	scheduler := cron.New()
	_, err = scheduler.AddFunc(cfg.ExpiryScanSpec, func() {
		count, err := scanner.ScanOnce(ctx)
		if err != nil {
			slog.Error("expiry scan failed", "error", err)
			return
		}
		slog.Info("expiry scan complete", "expiring", count)
	})
	if err != nil {
		return fmt.Errorf("schedule expiry scan %q: %w", cfg.ExpiryScanSpec, err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Run one scan immediately so a restart doesn't wait a full period.
	if count, err := scanner.ScanOnce(ctx); err != nil {
		slog.Error("initial expiry scan failed", "error", err)
	} else {
		slog.Info("initial expiry scan complete", "expiring", count)
	}

	slog.Info("credvault running")
	<-ctx.Done()
	slog.Info("shutting down")
	return nil
}
