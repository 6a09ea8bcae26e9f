// Package app wires the services every entry point shares.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"google.golang.org/api/option"

	"github.com/MrJamesThe3rd/ledgersync/internal/config"
	"github.com/MrJamesThe3rd/ledgersync/internal/database"
	"github.com/MrJamesThe3rd/ledgersync/internal/history"
	historyStore "github.com/MrJamesThe3rd/ledgersync/internal/history/store"
	"github.com/MrJamesThe3rd/ledgersync/internal/importer"
	"github.com/MrJamesThe3rd/ledgersync/internal/importer/source"
	"github.com/MrJamesThe3rd/ledgersync/internal/ledger"
	"github.com/MrJamesThe3rd/ledgersync/internal/ledger/firefly"
	"github.com/MrJamesThe3rd/ledgersync/internal/ledger/wallet"
	"github.com/MrJamesThe3rd/ledgersync/internal/pipeline"
	"github.com/MrJamesThe3rd/ledgersync/internal/snapshot"
)

type App struct {
	Config    *config.Config
	History   *history.Service
	Importer  *importer.Service
	Snapshots *snapshot.FileWriter
	Pipeline  *pipeline.Pipeline

	db     *sql.DB
	opener *source.Opener
}

func New(ctx context.Context, cfg *config.Config, log *slog.Logger) (*App, error) {
	db, err := database.New(cfg.DB.Driver, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	store := historyStore.New(db, cfg.DB.Driver)
	if err := store.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate history: %w", err)
	}

	var gcsOpts []option.ClientOption
	if cfg.GCS.Endpoint != "" {
		gcsOpts = source.EmulatorOptions(cfg.GCS.Endpoint)
	}

	var (
		opener      = source.NewOpener(gcsOpts...)
		historySvc  = history.NewService(store)
		importerSvc = importer.NewService(opener, nil)
		snapshots   = snapshot.NewFileWriter(cfg.Snapshot.Dir)
	)

	ledgers := map[ledger.Destination]pipeline.Ledger{
		ledger.Firefly: firefly.NewClient(firefly.Config{
			URL:      cfg.Firefly.URL,
			PageSize: cfg.Firefly.PageSize,
			Timeout:  cfg.HTTP.Timeout,
			Logger:   log,
		}),
		ledger.Wallet: wallet.NewClient(wallet.Config{
			URL:      cfg.Wallet.URL,
			PageSize: cfg.Wallet.PageSize,
			Timeout:  cfg.HTTP.Timeout,
			Logger:   log,
		}),
	}

	p := pipeline.New(importerSvc, ledgers, snapshots,
		pipeline.WithHistory(historySvc, cfg.Import.SkipSubmitted),
		pipeline.WithLogger(log),
	)

	log.Debug("services ready", "driver", cfg.DB.Driver, "snapshots", cfg.Snapshot.Dir)

	return &App{
		Config:    cfg,
		History:   historySvc,
		Importer:  importerSvc,
		Snapshots: snapshots,
		Pipeline:  p,
		db:        db,
		opener:    opener,
	}, nil
}

func (a *App) Close() error {
	return errors.Join(a.opener.Close(), a.db.Close())
}
