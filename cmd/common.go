package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/tupyy/artifact-collector/internal/config"
	"github.com/tupyy/artifact-collector/internal/store"
	"github.com/tupyy/artifact-collector/internal/store/migrations"
	"github.com/tupyy/artifact-collector/pkg/grr"
)

func registerGrrFlags(flagSet *pflag.FlagSet, config *config.Configuration) {
	flagSet.StringVar(&config.Grr.URL, "grr-url", config.Grr.URL, "URL of the GRR server API")
	flagSet.StringVar(&config.Grr.Username, "grr-username", config.Grr.Username, "GRR username")
	flagSet.StringVar(&config.Grr.Password, "grr-password", config.Grr.Password, "GRR password")
	flagSet.Float64Var(&config.Grr.RateLimit, "grr-rate-limit", config.Grr.RateLimit, "Maximum requests per second sent to GRR. 0 means no limit")
	flagSet.IntVar(&config.Grr.Burst, "grr-burst", config.Grr.Burst, "Number of requests allowed above the rate limit")
	flagSet.IntVar(&config.Grr.RetryMax, "grr-retry-max", config.Grr.RetryMax, "Number of retries of a failed GRR request")
}

func registerCollectionFlags(flagSet *pflag.FlagSet, config *config.Configuration) {
	flagSet.StringVar(&config.Collection.DataFolder, "data-folder", config.Collection.DataFolder, "Path to the folder holding the collection ledger")
	flagSet.StringVar(&config.Collection.OutputFolder, "output-folder", config.Collection.OutputFolder, "Folder receiving the collected artifacts. A temporary folder per target is used when empty")
	flagSet.StringVar(&config.Collection.ArtifactsFile, "artifacts-file", config.Collection.ArtifactsFile, "YAML file overriding the default artifacts of each platform")
	flagSet.DurationVar(&config.Collection.ApprovalInterval, "approval-interval", config.Collection.ApprovalInterval, "Interval between two approval checks")
	flagSet.DurationVar(&config.Collection.FlowInterval, "flow-interval", config.Collection.FlowInterval, "Interval between two flow status checks")
}

func validateGrr(cfg config.Grr) error {
	if cfg.URL == "" {
		return errors.New("grr-url must be set to collect from GRR")
	}
	if _, err := url.ParseRequestURI(cfg.URL); err != nil {
		return fmt.Errorf("invalid grr-url %q: %w", cfg.URL, err)
	}
	if cfg.RateLimit < 0 {
		return fmt.Errorf("invalid grr-rate-limit %v: must not be negative", cfg.RateLimit)
	}
	if cfg.RetryMax < 0 {
		return fmt.Errorf("invalid grr-retry-max %d: must not be negative", cfg.RetryMax)
	}
	return nil
}

func validateCollection(cfg config.Collection) error {
	if cfg.ApprovalInterval <= 0 {
		return fmt.Errorf("invalid approval-interval %s: must be positive", cfg.ApprovalInterval)
	}
	if cfg.FlowInterval <= 0 {
		return fmt.Errorf("invalid flow-interval %s: must be positive", cfg.FlowInterval)
	}
	return nil
}

func newGrrClient(cfg config.Grr) (*grr.Client, error) {
	return grr.NewClient(cfg.URL, cfg.Username, cfg.Password,
		grr.WithRateLimit(cfg.RateLimit, cfg.Burst),
		grr.WithRetryMax(cfg.RetryMax),
	)
}

// openStore opens the ledger in the data folder, or in memory when no folder is set.
func openStore(ctx context.Context, dataFolder string) (*store.Store, error) {
	dbPath := filepath.Join(dataFolder, "collector.duckdb")
	if dataFolder == "" {
		dbPath = ":memory:"
		zap.S().Debug("data-folder not set, using in-memory database (runs will not persist)")
	}

	db, err := store.NewDB(dbPath)
	if err != nil {
		zap.S().Errorw("failed to initialize database", "error", err)
		return nil, err
	}

	if err := migrations.Run(ctx, db); err != nil {
		_ = db.Close()
		zap.S().Errorw("failed to run migrations", "error", err)
		return nil, err
	}

	return store.NewStore(db), nil
}
