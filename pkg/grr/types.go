package grr

import (
	"time"

	"github.com/tupyy/artifact-collector/internal/models"
)

// Flow states as reported by the server.
const (
	FlowStateRunning       = "RUNNING"
	FlowStateTerminated    = "TERMINATED"
	FlowStateError         = "ERROR"
	FlowStateClientCrashed = "CLIENT_CRASHED"
)

// ArtifactCollectorFlowName is the flow scheduled to collect artifacts on a client.
const ArtifactCollectorFlowName = "ArtifactCollectorFlow"

type OSInfo struct {
	FQDN   string `json:"fqdn"`
	System string `json:"system"`
}

// ClientInfo describes an enrolled endpoint.
type ClientInfo struct {
	ClientID string `json:"client_id"`
	// LastSeenAt is in microseconds since epoch.
	LastSeenAt int64  `json:"last_seen_at"`
	OSInfo     OSInfo `json:"os_info"`
}

func (c ClientInfo) LastSeen() time.Time {
	return time.UnixMicro(c.LastSeenAt).UTC()
}

func (c ClientInfo) ToModel() models.Endpoint {
	return models.Endpoint{
		ID:         c.ClientID,
		FQDN:       c.OSInfo.FQDN,
		Platform:   models.ParsePlatform(c.OSInfo.System),
		LastSeenAt: c.LastSeen(),
	}
}

type ArtifactCollectorFlowArgs struct {
	ArtifactList              []string `json:"artifact_list"`
	UseTSK                    bool     `json:"use_tsk"`
	IgnoreInterpolationErrors bool     `json:"ignore_interpolation_errors"`
	ApplyParsers              bool     `json:"apply_parsers"`
}

type FlowContext struct {
	Backtrace string `json:"backtrace,omitempty"`
}

type Flow struct {
	FlowID  string      `json:"flow_id"`
	Name    string      `json:"name"`
	State   string      `json:"state"`
	Context FlowContext `json:"context"`
}

// ModelState maps the server flow state to the lifecycle the collector tracks.
func (f Flow) ModelState() models.FlowState {
	switch f.State {
	case FlowStateTerminated:
		return models.FlowStateTerminated
	case FlowStateError, FlowStateClientCrashed:
		return models.FlowStateError
	case FlowStateRunning:
		return models.FlowStateRunning
	default:
		return models.FlowStateScheduled
	}
}

type HuntRunnerArgs struct {
	Description string `json:"description"`
}

type Hunt struct {
	HuntID         string         `json:"hunt_id"`
	HuntRunnerArgs HuntRunnerArgs `json:"hunt_runner_args"`
}

func (h Hunt) ToModel() models.Hunt {
	return models.Hunt{ID: h.HuntID, Description: h.HuntRunnerArgs.Description}
}

type ApprovalRequest struct {
	Reason        string   `json:"reason"`
	NotifiedUsers []string `json:"notified_users"`
}

type createApprovalRequest struct {
	Approval ApprovalRequest `json:"approval"`
}

type createFlowRequest struct {
	Flow struct {
		Name string                    `json:"name"`
		Args ArtifactCollectorFlowArgs `json:"args"`
	} `json:"flow"`
}

type listClientsResponse struct {
	Items []ClientInfo `json:"items"`
}

type listFlowsResponse struct {
	Items []Flow `json:"items"`
}

type errorResponse struct {
	Message string `json:"message"`
}
