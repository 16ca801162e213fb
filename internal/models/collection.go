package models

import (
	"errors"
	"time"
)

// CollectionRequest is everything a caller supplies for one collection run.
type CollectionRequest struct {
	Hosts  []string
	HuntID string
	Paths  []string
	// Artifacts overrides the per-platform defaults when not empty.
	Artifacts []string
	UseTSK    bool
	Reason    string
	Approvers []string
}

// Targets expands the request into one target per unit of work.
func (r CollectionRequest) Targets() []Target {
	targets := make([]Target, 0, len(r.Hosts)+len(r.Paths)+1)
	for _, h := range r.Hosts {
		targets = append(targets, NewHostTarget(h))
	}
	for _, p := range r.Paths {
		targets = append(targets, NewLocalPathTarget(p, ""))
	}
	if r.HuntID != "" {
		targets = append(targets, NewHuntTarget(r.HuntID))
	}
	return targets
}

type UnitState string

const (
	UnitStatePending   UnitState = "pending"
	UnitStateRunning   UnitState = "running"
	UnitStateCompleted UnitState = "completed"
	UnitStateFailed    UnitState = "failed"
)

// CollectedPath is a local directory holding collected artifacts and the name it is reported under.
type CollectedPath struct {
	Path  string
	Label string
}

// CollectionUnit is the work item of a single target. It is owned by the goroutine running it
// until its future resolves.
type CollectionUnit struct {
	Index    int
	Target   Target
	State    UnitState
	ClientID string
	FlowID   string
	WorkDir  string
	Label    string
	Paths    []CollectedPath
	Err      error
}

func NewCollectionUnit(index int, target Target) *CollectionUnit {
	return &CollectionUnit{
		Index:  index,
		Target: target,
		State:  UnitStatePending,
	}
}

// Status is the persisted view of a unit.
func (u *CollectionUnit) Status() UnitStatus {
	s := UnitStatus{
		Index:    u.Index,
		Target:   u.Target,
		State:    u.State,
		ClientID: u.ClientID,
		FlowID:   u.FlowID,
		Label:    u.Label,
	}
	if u.Err != nil {
		s.Error = u.Err.Error()
	}
	return s
}

type UnitStatus struct {
	Index    int
	Target   Target
	State    UnitState
	ClientID string
	FlowID   string
	Label    string
	Error    string
}

// CollectionResult maps result paths to labels. Only the orchestrator writes to it.
type CollectionResult struct {
	labels map[string]string
	order  []string
	Errors []*UnitError
}

func NewCollectionResult() *CollectionResult {
	return &CollectionResult{labels: make(map[string]string)}
}

// Add records path with label. A path seen before keeps its position and takes the new label.
func (r *CollectionResult) Add(path, label string) {
	if _, ok := r.labels[path]; !ok {
		r.order = append(r.order, path)
	}
	r.labels[path] = label
}

func (r *CollectionResult) Fail(target Target, err error) {
	r.Errors = append(r.Errors, &UnitError{Target: target, Err: err})
}

func (r *CollectionResult) Len() int {
	return len(r.order)
}

func (r *CollectionResult) Label(path string) (string, bool) {
	l, ok := r.labels[path]
	return l, ok
}

// Paths returns the (path, label) pairs in the order they were first added.
func (r *CollectionResult) Paths() []CollectedPath {
	out := make([]CollectedPath, 0, len(r.order))
	for _, p := range r.order {
		out = append(out, CollectedPath{Path: p, Label: r.labels[p]})
	}
	return out
}

// Err joins every unit failure, or returns nil when all units succeeded.
func (r *CollectionResult) Err() error {
	errs := make([]error, 0, len(r.Errors))
	for _, e := range r.Errors {
		errs = append(errs, e)
	}
	return errors.Join(errs...)
}

type RunState string

const (
	RunStateRunning   RunState = "running"
	RunStateCompleted RunState = "completed"
	// RunStatePartial means at least one unit failed.
	RunStatePartial RunState = "partial"
	RunStateFailed  RunState = "failed"
)

// Run is one orchestration as recorded in the store.
type Run struct {
	ID         string
	State      RunState
	CreatedAt  time.Time
	FinishedAt time.Time
	Units      []UnitStatus
	Results    []CollectedPath
}
