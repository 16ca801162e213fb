package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/ecordell/optgen/helpers"
	"github.com/fatih/color"
	"github.com/jzelinskie/cobrautil/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/tupyy/artifact-collector/internal/config"
	"github.com/tupyy/artifact-collector/internal/models"
	"github.com/tupyy/artifact-collector/internal/services"
	"github.com/tupyy/artifact-collector/pkg/scheduler"
)

type collectOptions struct {
	hosts     []string
	huntID    string
	paths     []string
	artifacts []string
	useTSK    bool
	reason    string
	approvers []string
}

func (o collectOptions) request() models.CollectionRequest {
	return models.CollectionRequest{
		Hosts:     o.hosts,
		HuntID:    o.huntID,
		Paths:     o.paths,
		Artifacts: o.artifacts,
		UseTSK:    o.useTSK,
		Reason:    o.reason,
		Approvers: o.approvers,
	}
}

func (o collectOptions) needsGrr() bool {
	return len(o.hosts) > 0 || o.huntID != ""
}

func NewCollectCommand(cfg *config.Configuration) *cobra.Command {
	opts := &collectOptions{}

	collectCmd := &cobra.Command{
		Use:   "collect",
		Short: "Collect artifacts and print where they were stored",
		Example: `  # Collect the default artifacts of two hosts
  artifact-collector collect --hosts web01,C.0123456789abcdef --reason case-42 --approvers alice,bob --grr-url https://grr.example.com --grr-username admin --grr-password secret

  # Collect selected artifacts with raw disk access
  artifact-collector collect --hosts web01 --artifacts LinuxAuthLogs,LinuxWtmp --use-tsk --reason case-42 --grr-url https://grr.example.com

  # Download the results of a hunt and add a local folder
  artifact-collector collect --hunt-id H:123456 --paths /cases/42/triage --reason case-42 --grr-url https://grr.example.com`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateCollectOptions(cfg, opts); err != nil {
				return err
			}

			zap.S().Debugw("using configuration",
				"grr", helpers.Flatten(cfg.Grr.DebugMap()),
				"collection", helpers.Flatten(cfg.Collection.DebugMap()),
			)

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGHUP, syscall.SIGTERM, syscall.SIGQUIT)
			defer cancel()

			defaults, err := config.LoadArtifactDefaults(cfg.Collection.ArtifactsFile)
			if err != nil {
				return err
			}

			// local paths alone never talk to GRR
			var client services.Grr
			if opts.needsGrr() {
				c, err := newGrrClient(cfg.Grr)
				if err != nil {
					return err
				}
				client = c
			}

			s, err := openStore(ctx, cfg.Collection.DataFolder)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			sched := scheduler.NewScheduler(1)
			defer sched.Close()

			srv := services.NewCollectionService(sched, s, client, cfg.Collection, defaults)

			run, result, err := srv.Run(ctx, opts.request())
			if err != nil {
				return err
			}

			printResult(cmd.OutOrStdout(), run, result)

			if err := result.Err(); err != nil {
				return fmt.Errorf("%d of %d targets failed", len(result.Errors), len(run.Units))
			}
			return nil
		},
	}

	registerCollectFlags(collectCmd, cfg, opts)

	return collectCmd
}

func printResult(out io.Writer, run *models.Run, result *models.CollectionResult) {
	bold := color.New(color.Bold)
	red := color.New(color.FgRed)

	for _, u := range run.Units {
		if u.Target.Kind == models.TargetKindHunt && u.Label != "" {
			_, _ = bold.Fprintf(out, "%s\n", u.Label)
		}
	}

	for _, p := range result.Paths() {
		_, _ = fmt.Fprintf(out, "%s\t%s\n", p.Path, bold.Sprint(p.Label))
	}

	for _, e := range result.Errors {
		_, _ = red.Fprintf(out, "%s: %v\n", e.Target, e.Err)
	}
}

func registerCollectFlags(cmd *cobra.Command, config *config.Configuration, opts *collectOptions) {
	nfs := cobrautil.NewNamedFlagSets(cmd)

	targetsFlagSet := nfs.FlagSet(color.New(color.FgBlue, color.Bold).Sprint("Targets"))
	registerTargetFlags(targetsFlagSet, opts)

	grrFlagSet := nfs.FlagSet(color.New(color.FgBlue, color.Bold).Sprint("GRR"))
	registerGrrFlags(grrFlagSet, config)

	collectionFlagSet := nfs.FlagSet(color.New(color.FgBlue, color.Bold).Sprint("Collection"))
	registerCollectionFlags(collectionFlagSet, config)

	nfs.AddFlagSets(cmd)
}

func registerTargetFlags(flagSet *pflag.FlagSet, opts *collectOptions) {
	flagSet.StringSliceVar(&opts.hosts, "hosts", nil, "Comma separated list of host names or GRR client ids")
	flagSet.StringVar(&opts.huntID, "hunt-id", "", "Id of a GRR hunt whose results are downloaded")
	flagSet.StringSliceVar(&opts.paths, "paths", nil, "Comma separated list of local folders already holding artifacts")
	flagSet.StringSliceVar(&opts.artifacts, "artifacts", nil, "Comma separated list of artifacts to collect. Defaults depend on the client platform")
	flagSet.BoolVar(&opts.useTSK, "use-tsk", false, "Use raw disk access (The Sleuth Kit) to collect files")
	flagSet.StringVar(&opts.reason, "reason", "", "Reason sent with approval requests")
	flagSet.StringSliceVar(&opts.approvers, "approvers", nil, "Comma separated list of users asked for approval")
}

func validateCollectOptions(cfg *config.Configuration, opts *collectOptions) error {
	if len(opts.request().Targets()) == 0 {
		return errors.New("nothing to collect: set at least one of --hosts, --hunt-id or --paths")
	}

	if err := validateCollection(cfg.Collection); err != nil {
		return err
	}

	if !opts.needsGrr() {
		return nil
	}

	if opts.reason == "" {
		return errors.New("reason must be set when collecting from GRR")
	}

	return validateGrr(cfg.Grr)
}
