package models

// FlowState is the lifecycle state of a remote collection flow.
type FlowState string

const (
	FlowStateScheduled  FlowState = "scheduled"
	FlowStateRunning    FlowState = "running"
	FlowStateTerminated FlowState = "terminated"
	FlowStateError      FlowState = "error"
)

// IsTerminal reports whether no further polling is needed.
func (s FlowState) IsTerminal() bool {
	return s == FlowStateTerminated || s == FlowStateError
}

// Flow is a collection scheduled on one endpoint.
type Flow struct {
	ID        string
	Endpoint  Endpoint
	Artifacts []string
	UseTSK    bool
	State     FlowState
	Backtrace string
}

// Hunt is a bulk collection spanning many endpoints, created outside this tool.
type Hunt struct {
	ID          string
	Description string
}

// Label is the name a hunt collection is reported under.
func (h Hunt) Label() string {
	return h.ID + ": " + h.Description
}
