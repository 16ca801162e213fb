package services

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/tupyy/artifact-collector/internal/config"
	"github.com/tupyy/artifact-collector/internal/models"
	"github.com/tupyy/artifact-collector/internal/store"
	"github.com/tupyy/artifact-collector/pkg/scheduler"
)

var (
	ErrRunNotFound   = errors.New("collection run not found")
	ErrRunNotRunning = errors.New("collection run is not running")
)

// CollectionService runs collections and records them in the store.
type CollectionService struct {
	scheduler *scheduler.Scheduler
	store     *store.Store
	client    Grr
	cfg       config.Collection
	defaults  config.ArtifactDefaults
	clock     clockwork.Clock

	mu      sync.Mutex
	running map[string]*models.Future[models.Result[any]]
}

func NewCollectionService(s *scheduler.Scheduler, st *store.Store, client Grr, cfg config.Collection, defaults config.ArtifactDefaults) *CollectionService {
	return &CollectionService{
		scheduler: s,
		store:     st,
		client:    client,
		cfg:       cfg,
		defaults:  defaults,
		clock:     clockwork.NewRealClock(),
		running:   make(map[string]*models.Future[models.Result[any]]),
	}
}

// WithClock replaces the clock used by the collectors. Meant for tests.
func (c *CollectionService) WithClock(clock clockwork.Clock) *CollectionService {
	c.clock = clock
	return c
}

// Run collects req synchronously and returns the recorded run with the merged result.
func (c *CollectionService) Run(ctx context.Context, req models.CollectionRequest) (*models.Run, *models.CollectionResult, error) {
	if len(req.Targets()) == 0 {
		return nil, nil, ErrNoTargets
	}

	run, err := c.create(ctx)
	if err != nil {
		return nil, nil, err
	}

	result, err := c.execute(ctx, run.ID, req)
	if err != nil {
		return nil, nil, err
	}

	run, err = c.store.Runs().Get(context.Background(), run.ID)
	if err != nil {
		return nil, nil, err
	}
	return run, result, nil
}

// Start records a new run and collects req in the background.
func (c *CollectionService) Start(ctx context.Context, req models.CollectionRequest) (*models.Run, error) {
	if len(req.Targets()) == 0 {
		return nil, ErrNoTargets
	}

	run, err := c.create(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.running[run.ID] = c.scheduler.AddWork(func(ctx context.Context) (any, error) {
		defer func() {
			c.mu.Lock()
			delete(c.running, run.ID)
			c.mu.Unlock()
		}()
		return c.execute(ctx, run.ID, req)
	})

	return run, nil
}

// Stop cancels a run started with Start. Its units fail with a context error.
func (c *CollectionService) Stop(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	future, ok := c.running[id]
	if !ok {
		if _, err := c.Get(ctx, id); err != nil {
			return err
		}
		return ErrRunNotRunning
	}

	zap.S().Named("collection").Infow("stopping collection run", "run_id", id)
	future.Stop()
	return nil
}

func (c *CollectionService) Get(ctx context.Context, id string) (*models.Run, error) {
	run, err := c.store.Runs().Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrRunNotFound
	}
	return run, err
}

func (c *CollectionService) List(ctx context.Context) ([]models.Run, error) {
	return c.store.Runs().List(ctx)
}

func (c *CollectionService) create(ctx context.Context) (*models.Run, error) {
	run := &models.Run{
		ID:        uuid.NewString(),
		State:     models.RunStateRunning,
		CreatedAt: c.clock.Now(),
	}
	if err := c.store.Runs().Create(ctx, run); err != nil {
		return nil, err
	}
	return run, nil
}

func (c *CollectionService) execute(ctx context.Context, runID string, req models.CollectionRequest) (*models.CollectionResult, error) {
	log := zap.S().Named("collection").With("run_id", runID)

	observer := func(s models.UnitStatus) {
		// the unit may be cancelled already but its state must still be recorded
		if err := c.store.Units().Upsert(context.Background(), runID, s); err != nil {
			log.Errorw("failed to save unit status", "unit", s.Index, "error", err)
		}
	}

	orchestrator := NewOrchestrator(c.client, c.cfg, c.defaults, WithClock(c.clock), WithUnitObserver(observer))

	result, err := orchestrator.Collect(ctx, req)
	if err != nil {
		if ferr := c.store.Runs().Finish(context.Background(), runID, models.RunStateFailed, c.clock.Now(), nil); ferr != nil {
			log.Errorw("failed to save run", "error", ferr)
		}
		return nil, err
	}

	state := runState(len(req.Targets()), len(result.Errors))
	if err := c.store.Runs().Finish(context.Background(), runID, state, c.clock.Now(), result.Paths()); err != nil {
		log.Errorw("failed to save run", "error", err)
		return nil, err
	}

	log.Infow("collection run finished", "state", state, "paths", result.Len(), "failed_units", len(result.Errors))
	return result, nil
}

func runState(units, failed int) models.RunState {
	switch {
	case failed == 0:
		return models.RunStateCompleted
	case failed == units:
		return models.RunStateFailed
	default:
		return models.RunStatePartial
	}
}
