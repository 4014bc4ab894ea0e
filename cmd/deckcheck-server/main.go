// Package main runs the deckcheck REST API server: card snapshot storage,
// the legality engine, the bracket classifier, and the Moxfield integration
// behind one HTTP listener.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/pioneerdh/deckcheck/internal/api"
	"github.com/pioneerdh/deckcheck/internal/bracket"
	"github.com/pioneerdh/deckcheck/internal/cards/refresh"
	"github.com/pioneerdh/deckcheck/internal/cards/scryfall"
	"github.com/pioneerdh/deckcheck/internal/cardstore"
	"github.com/pioneerdh/deckcheck/internal/config"
	"github.com/pioneerdh/deckcheck/internal/legality"
	"github.com/pioneerdh/deckcheck/internal/moxfield"
	"github.com/pioneerdh/deckcheck/internal/rules"
	"github.com/pioneerdh/deckcheck/internal/storage"
)

var (
	port       = flag.Int("port", 0, "API server port (overrides config)")
	configPath = flag.String("config", "", "Config file path (default: ~/.deckcheck/config.toml)")
	dbPath     = flag.String("db-path", "", "Database path (default: ~/.deckcheck/cards.db)")
	skipFetch  = flag.Bool("skip-fetch", false, "Do not download card data, even with an empty store")
	initConfig = flag.Bool("init-config", false, "Write the default config to ~/.deckcheck/config.toml and exit")
	debug      = flag.Bool("debug", false, "Enable debug logging")
)

func main() {
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	if *initConfig {
		cfg := config.DefaultConfig()
		if err := cfg.Save(); err != nil {
			return err
		}
		logger.Info("wrote default config")
		return nil
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}

	dbFile := *dbPath
	if dbFile == "" {
		dbFile = cfg.Cards.DatabasePath
	}
	if dbFile == "" {
		dbFile, err = config.DefaultDatabasePath()
		if err != nil {
			return err
		}
	}
	if err := os.MkdirAll(filepath.Dir(dbFile), 0o755); err != nil {
		return err
	}
	logger.Info("opening card database", "path", dbFile)

	dbConfig := storage.DefaultConfig(dbFile)
	dbConfig.AutoMigrate = true
	db, err := storage.Open(dbConfig)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("closing database", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	storageService := storage.NewService(db)
	store := cardstore.New()

	records, err := storageService.LoadAll(ctx)
	if err != nil {
		return err
	}
	store.Replace(records)
	logger.Info("loaded card snapshot", "cards", store.Len())

	ttl, err := cfg.GetSnapshotTTL()
	if err != nil {
		return err
	}
	refresher := refresh.New(scryfall.NewClient(), storageService, store, logger, ttl)
	if !*skipFetch {
		if err := refresher.EnsureFresh(ctx); err != nil {
			if store.Len() == 0 {
				return err
			}
			// A stale snapshot is still usable.
			logger.Warn("snapshot refresh failed, serving stale data", "error", err)
		}
	}

	ruleService, err := rules.NewService(cfg.Rules.Dir)
	if err != nil {
		return err
	}
	if cfg.Rules.Dir != "" && cfg.Rules.Watch {
		go func() {
			if err := ruleService.Watch(ctx, logger); err != nil {
				logger.Error("rules watcher stopped", "error", err)
			}
		}()
	}

	catalogs, err := bracket.CatalogsFromDir(cfg.Rules.Dir)
	if err != nil {
		return err
	}

	services := &api.Services{
		Engine:     legality.NewEngine(store, ruleService),
		Classifier: bracket.NewClassifier(catalogs),
		Store:      store,
		Refresher:  refresher,
	}
	if cfg.Moxfield.Enabled {
		moxTTL, err := cfg.GetMoxfieldCacheTTL()
		if err != nil {
			return err
		}
		moxConfig := moxfield.DefaultConfig()
		moxConfig.CacheTTL = moxTTL
		services.Moxfield = moxfield.NewClient(moxConfig)
	}

	server := api.NewServer(&api.Config{Port: cfg.Server.Port}, services, logger)
	if err := server.Start(); err != nil {
		return err
	}
	logger.Info("deckcheck API ready", "port", server.Port())

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func loadConfig() (*config.Config, error) {
	if *configPath != "" {
		return config.LoadFrom(*configPath)
	}
	return config.Load()
}
