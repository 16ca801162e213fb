package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/ecordell/optgen/helpers"
	"github.com/fatih/color"
	"github.com/gin-gonic/gin"
	"github.com/jzelinskie/cobrautil/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	v1 "github.com/tupyy/artifact-collector/api/v1"
	"github.com/tupyy/artifact-collector/internal/config"
	"github.com/tupyy/artifact-collector/internal/handlers"
	"github.com/tupyy/artifact-collector/internal/server"
	"github.com/tupyy/artifact-collector/internal/services"
	"github.com/tupyy/artifact-collector/pkg/scheduler"
)

func NewServeCommand(cfg *config.Configuration) *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the collection API",
		Example: `  # Serve the API on the default port, keeping the ledger in /var/lib/collector
  artifact-collector serve --grr-url https://grr.example.com --grr-username admin --grr-password secret --data-folder /var/lib/collector

  # Serve in production mode with at most two concurrent runs
  artifact-collector serve --grr-url https://grr.example.com --server-mode prod --server-max-runs 2`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateServeConfiguration(cfg); err != nil {
				return err
			}

			zap.S().Infow("using configuration",
				"server", helpers.Flatten(cfg.Server.DebugMap()),
				"grr", helpers.Flatten(cfg.Grr.DebugMap()),
				"collection", helpers.Flatten(cfg.Collection.DebugMap()),
			)

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGHUP, syscall.SIGTERM, syscall.SIGQUIT)
			defer cancel()
			wg := sync.WaitGroup{}
			wg.Add(1)

			// init store
			s, err := openStore(ctx, cfg.Collection.DataFolder)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()
			zap.S().Info("database initialized successfully")

			defaults, err := config.LoadArtifactDefaults(cfg.Collection.ArtifactsFile)
			if err != nil {
				return err
			}

			client, err := newGrrClient(cfg.Grr)
			if err != nil {
				return err
			}

			// init scheduler
			sched := scheduler.NewScheduler(cfg.Server.MaxRuns)
			defer sched.Close()

			// init services
			collectionSrv := services.NewCollectionService(sched, s, client, cfg.Collection, defaults)

			// init handlers
			h := handlers.New(collectionSrv)

			srv, err := server.NewServer(cfg, func(router *gin.RouterGroup) {
				v1.RegisterHandlers(router, h)
			})
			if err != nil {
				zap.S().Errorw("failed to create http server", "error", err)
				return err
			}

			go func() {
				defer func() {
					wg.Done()
					cancel()
				}()
				zap.S().Infof("Starting HTTP server on port %d", cfg.Server.HTTPPort)

				if err := srv.Start(ctx); err != nil {
					if !errors.Is(err, http.ErrServerClosed) {
						zap.S().Errorw("failed to start http server", "error", err)
					}
				}
			}()

			go func() {
				<-ctx.Done()
				stopCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				srv.Stop(stopCtx)
			}()

			<-ctx.Done()
			wg.Wait()

			zap.S().Info("server shutdown")

			return nil
		},
	}

	registerServeFlags(serveCmd, cfg)

	return serveCmd
}

func registerServeFlags(cmd *cobra.Command, config *config.Configuration) {
	nfs := cobrautil.NewNamedFlagSets(cmd)

	serverFlagSet := nfs.FlagSet(color.New(color.FgBlue, color.Bold).Sprint("Server"))
	registerServerFlags(serverFlagSet, config)

	grrFlagSet := nfs.FlagSet(color.New(color.FgBlue, color.Bold).Sprint("GRR"))
	registerGrrFlags(grrFlagSet, config)

	collectionFlagSet := nfs.FlagSet(color.New(color.FgBlue, color.Bold).Sprint("Collection"))
	registerCollectionFlags(collectionFlagSet, config)

	nfs.AddFlagSets(cmd)
}

func registerServerFlags(flagSet *pflag.FlagSet, config *config.Configuration) {
	flagSet.IntVar(&config.Server.HTTPPort, "server-http-port", config.Server.HTTPPort, "Port on which the HTTP server is listening")
	flagSet.StringVar(&config.Server.ServerMode, "server-mode", config.Server.ServerMode, "Server mode: either prod or dev")
	flagSet.IntVar(&config.Server.MaxRuns, "server-max-runs", config.Server.MaxRuns, "Number of collection runs executed at the same time")
}

func validateServeConfiguration(cfg *config.Configuration) error {
	switch config.ServerModeType(cfg.Server.ServerMode) {
	case config.ServerModeProd, config.ServerModeDev:
	default:
		return fmt.Errorf("invalid server mode %q: must be %q or %q", cfg.Server.ServerMode, config.ServerModeProd, config.ServerModeDev)
	}

	if cfg.Server.HTTPPort < 1 || cfg.Server.HTTPPort > 65535 {
		return fmt.Errorf("invalid http-port %d: must be between 1 and 65535", cfg.Server.HTTPPort)
	}

	if cfg.Server.MaxRuns < 1 {
		return fmt.Errorf("invalid server-max-runs %d: must be at least 1", cfg.Server.MaxRuns)
	}

	if err := validateCollection(cfg.Collection); err != nil {
		return err
	}

	return validateGrr(cfg.Grr)
}
