package cmd

import (
	"context"
	"fmt"

	"github.com/dbsmedya/assetprof/internal/config"
	"github.com/dbsmedya/assetprof/internal/database"
	"github.com/dbsmedya/assetprof/internal/logger"
	"github.com/dbsmedya/assetprof/internal/store"
)

// storeOpener overrides the MySQL driver in tests; nil uses sql.Open.
var storeOpener database.OpenFunc

// openStore connects to the run-history database and makes sure its tables
// exist. The caller closes the returned manager.
func openStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (*store.Store, *database.Manager, error) {
	if !cfg.Store.Enabled {
		return nil, nil, fmt.Errorf("run history store is not enabled (set store.enabled in %s)", GetConfigFile())
	}

	dbManager := database.NewManager(&cfg.Store,
		database.WithLogger(log),
		database.WithOpener(storeOpener),
	)
	if err := dbManager.Connect(ctx); err != nil {
		return nil, nil, err
	}

	s, err := store.New(dbManager.DB, cfg.Store.Table, log)
	if err != nil {
		dbManager.Close()
		return nil, nil, err
	}
	if err := s.InitializeTables(ctx); err != nil {
		dbManager.Close()
		return nil, nil, err
	}
	return s, dbManager, nil
}
