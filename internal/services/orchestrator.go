package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/tupyy/artifact-collector/internal/config"
	"github.com/tupyy/artifact-collector/internal/models"
	"github.com/tupyy/artifact-collector/pkg/scheduler"
)

var ErrNoTargets = errors.New("no hosts, hunt or paths to collect")

// UnitObserver is called from the unit goroutines every time a unit changes state.
type UnitObserver func(models.UnitStatus)

type OrchestratorOption func(o *Orchestrator)

func WithClock(clock clockwork.Clock) OrchestratorOption {
	return func(o *Orchestrator) {
		o.clock = clock
	}
}

func WithUnitObserver(observer UnitObserver) OrchestratorOption {
	return func(o *Orchestrator) {
		o.observer = observer
	}
}

// Orchestrator runs one unit per target concurrently and merges what they collected.
type Orchestrator struct {
	client   Grr
	cfg      config.Collection
	defaults config.ArtifactDefaults
	clock    clockwork.Clock
	observer UnitObserver
	log      *zap.SugaredLogger
}

func NewOrchestrator(client Grr, cfg config.Collection, defaults config.ArtifactDefaults, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		client:   client,
		cfg:      cfg,
		defaults: defaults,
		clock:    clockwork.NewRealClock(),
		observer: func(models.UnitStatus) {},
		log:      zap.S().Named("orchestrator"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// pipeline holds the per run components. They carry the approval reason and approvers of the request.
type pipeline struct {
	req      models.CollectionRequest
	resolver *Resolver
	flows    *FlowController
	archives *ArchiveRetriever
	hunts    *HuntCollector
	local    FilesystemCollector
}

func (o *Orchestrator) newPipeline(req models.CollectionRequest) *pipeline {
	gate := NewApprovalGate(o.clock, o.cfg.ApprovalInterval)
	archives := NewArchiveRetriever(o.client)
	return &pipeline{
		req:      req,
		resolver: NewResolver(o.client, o.clock),
		flows:    NewFlowController(o.client, gate, o.defaults, o.clock, o.cfg.FlowInterval, req.Reason, req.Approvers),
		archives: archives,
		hunts:    NewHuntCollector(o.client, gate, archives, req.Reason, req.Approvers),
	}
}

// Collect runs every target of req and waits for all of them. Unit failures do not fail the call:
// they are reported in the result next to the paths of the units that succeeded.
func (o *Orchestrator) Collect(ctx context.Context, req models.CollectionRequest) (*models.CollectionResult, error) {
	targets := req.Targets()
	if len(targets) == 0 {
		return nil, ErrNoTargets
	}

	p := o.newPipeline(req)

	// one worker per target so a unit waiting for approval never holds back another one
	sched := scheduler.NewScheduler(len(targets))
	defer sched.Close()

	units := make([]*models.CollectionUnit, 0, len(targets))
	futures := make([]*models.Future[models.Result[any]], 0, len(targets))
	for i, t := range targets {
		u := models.NewCollectionUnit(i, t)
		o.observer(u.Status())
		units = append(units, u)
		futures = append(futures, sched.AddWorkWithContext(ctx, func(ctx context.Context) (any, error) {
			return nil, o.runUnit(ctx, p, u)
		}))
	}

	o.log.Infow("collection started", "units", len(units))

	result := models.NewCollectionResult()
	for i, f := range futures {
		u := units[i]

		// every future resolves: work sees ctx cancellation and queued work is resolved on cancel
		res, _ := f.Wait(context.Background())
		if res.Err != nil {
			u.State = models.UnitStateFailed
			u.Err = res.Err
			result.Fail(u.Target, res.Err)
			o.log.Errorw("unit failed", "target", u.Target.String(), "error", res.Err)
		} else {
			u.State = models.UnitStateCompleted
			for _, cp := range u.Paths {
				result.Add(cp.Path, cp.Label)
			}
		}
		o.observer(u.Status())
	}

	o.log.Infow("collection finished", "paths", result.Len(), "failed_units", len(result.Errors))

	return result, nil
}

func (o *Orchestrator) runUnit(ctx context.Context, p *pipeline, u *models.CollectionUnit) error {
	u.State = models.UnitStateRunning
	o.observer(u.Status())

	switch u.Target.Kind {
	case models.TargetKindLocalPath:
		cp := p.local.Collect(u.Target)
		u.Label = cp.Label
		u.Paths = []models.CollectedPath{cp}
		return nil
	case models.TargetKindHost:
		return o.collectHost(ctx, p, u)
	case models.TargetKindHunt:
		return o.collectHunt(ctx, p, u)
	default:
		return fmt.Errorf("unknown target kind %q", u.Target.Kind)
	}
}

func (o *Orchestrator) collectHost(ctx context.Context, p *pipeline, u *models.CollectionUnit) error {
	clientID, err := p.resolver.Resolve(ctx, u.Target.Value)
	if err != nil {
		return err
	}
	u.ClientID = clientID
	o.observer(u.Status())

	flow, err := p.flows.Schedule(ctx, clientID, p.req.Artifacts, p.req.UseTSK)
	if err != nil {
		return err
	}
	u.FlowID = flow.ID
	u.Label = flow.Endpoint.FQDN
	o.observer(u.Status())

	if err := p.flows.AwaitCompletion(ctx, flow); err != nil {
		return err
	}

	dir, err := o.workDir(clientID)
	if err != nil {
		return err
	}
	u.WorkDir = dir

	path, err := p.archives.DownloadFlow(ctx, clientID, flow.ID, dir)
	if err != nil {
		return err
	}

	u.Paths = []models.CollectedPath{{Path: path, Label: u.Label}}
	return nil
}

func (o *Orchestrator) collectHunt(ctx context.Context, p *pipeline, u *models.CollectionUnit) error {
	hunt, err := p.hunts.Hunt(ctx, u.Target.Value)
	if err != nil {
		return err
	}
	u.Label = hunt.Label()
	o.observer(u.Status())
	o.log.Infow("artifact collection name", "hunt_id", hunt.ID, "label", u.Label)

	dir, err := o.workDir(hunt.ID)
	if err != nil {
		return err
	}
	u.WorkDir = dir

	paths, err := p.hunts.Collect(ctx, hunt.ID, dir)
	if err != nil {
		return err
	}
	u.Paths = paths
	return nil
}

// workDir returns <output folder>/<name>, or a fresh temporary directory when no output folder is set.
func (o *Orchestrator) workDir(name string) (string, error) {
	if o.cfg.OutputFolder == "" {
		return os.MkdirTemp("", "artifacts-")
	}

	dir := filepath.Join(o.cfg.OutputFolder, filepath.Base(name))
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("creating working directory: %w", err)
	}
	return dir, nil
}
