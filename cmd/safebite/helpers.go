package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/safebite/safebite/internal/cache"
	"github.com/safebite/safebite/internal/common"
	"github.com/safebite/safebite/internal/engine"
	"github.com/safebite/safebite/internal/lookup"
	"github.com/safebite/safebite/internal/matcher"
	"github.com/safebite/safebite/internal/model"
	"github.com/safebite/safebite/internal/queue"
	"github.com/safebite/safebite/internal/storage"
	"github.com/spf13/viper"
)

// initStorage opens the SQLite store and brings the schema up to date.
func initStorage(ctx context.Context) (*storage.SQLiteStore, error) {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = "$HOME/.local/share/safebite/safebite.db"
	}
	dbPath = common.ExpandPath(dbPath)

	store, err := storage.NewSQLiteStore(dbPath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// openQueue opens the durable offline operation queue.
func openQueue(logger *slog.Logger) (*queue.Queue, error) {
	qPath := viper.GetString("queue.path")
	if qPath == "" {
		qPath = "$HOME/.local/share/safebite/queue.db"
	}
	return queue.Open(common.ExpandPath(qPath), logger)
}

// cacheDir resolves the root directory for the persistent caches. Each
// cache gets its own Badger subdirectory.
func cacheDir() string {
	dir := viper.GetString("cache.dir")
	if dir == "" {
		dir = "$HOME/.local/share/safebite/cache"
	}
	return common.ExpandPath(dir)
}

func openAnalysisCache(logger *slog.Logger) (cache.Store[model.DietaryAnalysis], error) {
	store, err := cache.OpenPersistent[model.DietaryAnalysis](filepath.Join(cacheDir(), "analyses"), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open analysis cache: %w", err)
	}
	return store, nil
}

func openProductCache(logger *slog.Logger) (cache.Store[model.Product], error) {
	store, err := cache.OpenPersistent[model.Product](filepath.Join(cacheDir(), "products"), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open product cache: %w", err)
	}
	return store, nil
}

// openCaches opens both cache tiers; the scan path needs the pair.
func openCaches(logger *slog.Logger) (cache.Store[model.DietaryAnalysis], cache.Store[model.Product], error) {
	analyses, err := openAnalysisCache(logger)
	if err != nil {
		return nil, nil, err
	}
	products, err := openProductCache(logger)
	if err != nil {
		_ = analyses.Close()
		return nil, nil, err
	}
	return analyses, products, nil
}

// newLookupService builds the product lookup path: remote client behind
// the product cache, with cache write failures deferred to the queue.
func newLookupService(products cache.Store[model.Product], q *queue.Queue, logger *slog.Logger) *lookup.Service {
	client := lookup.NewClient(lookup.ClientConfig{
		BaseURL:           viper.GetString("lookup.base_url"),
		UserAgent:         fmt.Sprintf("safebite/%s", version),
		Timeout:           viper.GetDuration("lookup.timeout"),
		RequestsPerSecond: viper.GetFloat64("lookup.requests_per_second"),
		Burst:             viper.GetInt("lookup.burst"),
	})
	return lookup.NewService(client, products, q, logger)
}

// newOrchestrator wires the full analysis chain from configuration.
func newOrchestrator(analyses cache.Store[model.DietaryAnalysis], store *storage.SQLiteStore, q *queue.Queue, logger *slog.Logger) (*engine.Orchestrator, error) {
	primary, secondary, err := createAIClients()
	if err != nil {
		return nil, err
	}

	cfg := engine.DefaultConfig()
	if d := viper.GetDuration("engine.primary_timeout"); d > 0 {
		cfg.PrimaryTimeout = d
	}
	if d := viper.GetDuration("engine.secondary_timeout"); d > 0 {
		cfg.SecondaryTimeout = d
	}
	if d := viper.GetDuration("engine.chain_deadline"); d > 0 {
		cfg.ChainDeadline = d
	}
	if d := viper.GetDuration("engine.analysis_ttl"); d > 0 {
		cfg.AnalysisTTL = d
	}
	if viper.IsSet("engine.strict_mode") {
		cfg.StrictMode = viper.GetBool("engine.strict_mode")
	}

	return engine.New(primary, secondary, matcher.NewDefault(), analyses, store, q, cfg, logger), nil
}

// formatDuration renders a short duration for human output.
func formatDuration(d time.Duration) string {
	return d.Round(time.Millisecond).String()
}
