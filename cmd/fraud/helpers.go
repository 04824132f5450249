package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/viper"

	"github.com/Veraticus/the-fraud-must-flow/internal/common"
	"github.com/Veraticus/the-fraud-must-flow/internal/config"
	"github.com/Veraticus/the-fraud-must-flow/internal/engine"
	"github.com/Veraticus/the-fraud-must-flow/internal/generator"
	"github.com/Veraticus/the-fraud-must-flow/internal/notify"
	"github.com/Veraticus/the-fraud-must-flow/internal/rules"
	"github.com/Veraticus/the-fraud-must-flow/internal/service"
	"github.com/Veraticus/the-fraud-must-flow/internal/storage"
)

// migrateAttempts bounds how often a busy database is retried on startup.
const migrateAttempts = 5

// loadConfig resolves the application configuration from viper.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, common.NewUserError("invalid configuration", err)
	}
	return cfg, nil
}

// initStorage opens the database and brings its schema up to date.
func initStorage(ctx context.Context, cfg *config.Config) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(cfg.Database.Path)
	if err != nil {
		return nil, common.NewUserError("could not open the transaction database at "+cfg.Database.Path, err)
	}

	if err := store.MigrateWithRetry(ctx, migrateAttempts); err != nil {
		_ = store.Close()
		if storage.IsBusy(err) {
			return nil, common.NewUserError("the transaction database is in use by another process", err)
		}
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// initNotifier builds the configured notification driver.
func initNotifier(cfg *config.Config) service.Notifier {
	if cfg.Notify.Driver == config.NotifyDriverSMTP {
		smtp := cfg.Notify.SMTP
		return notify.NewSMTPNotifier(notify.SMTPConfig{
			Host:     smtp.Host,
			Port:     smtp.Port,
			Username: smtp.Username,
			Password: smtp.Password,
			From:     smtp.From,
		})
	}
	slog.Debug("Using log notifier; reports will not be e-mailed")
	return notify.LogNotifier{}
}

// initEngine wires the fraud engine over store.
func initEngine(cfg *config.Config, store service.Store) (*engine.FraudEngine, error) {
	policy := cfg.Rules.Policy()

	genCfg := generator.DefaultConfig()
	genCfg.CleanCount = cfg.Generator.CleanCount
	genCfg.SuspiciousCount = cfg.Generator.SuspiciousCount

	gen, err := generator.New(policy, genCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create generator: %w", err)
	}

	return engine.New(store, gen, rules.NewEvaluator(policy), initNotifier(cfg)), nil
}
