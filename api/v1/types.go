package v1

import "time"

// CollectionRequest starts a collection run.
type CollectionRequest struct {
	Hosts     []string `json:"hosts,omitempty"`
	HuntID    string   `json:"hunt_id,omitempty"`
	Paths     []string `json:"paths,omitempty"`
	Artifacts []string `json:"artifacts,omitempty"`
	UseTSK    bool     `json:"use_tsk,omitempty"`
	Reason    string   `json:"reason,omitempty"`
	Approvers []string `json:"approvers,omitempty"`
}

type Target struct {
	Kind  string `json:"kind"`
	Value string `json:"value"`
	Label string `json:"label,omitempty"`
}

type Unit struct {
	Index    int    `json:"index"`
	Target   Target `json:"target"`
	State    string `json:"state"`
	ClientID string `json:"client_id,omitempty"`
	FlowID   string `json:"flow_id,omitempty"`
	Label    string `json:"label,omitempty"`
	Error    string `json:"error,omitempty"`
}

type Result struct {
	Path  string `json:"path"`
	Label string `json:"label"`
}

type Collection struct {
	ID         string     `json:"id"`
	State      string     `json:"state"`
	CreatedAt  time.Time  `json:"created_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Units      []Unit     `json:"units,omitempty"`
	Results    []Result   `json:"results,omitempty"`
}

type CollectionList struct {
	Collections []Collection `json:"collections"`
}

type Error struct {
	Error string `json:"error"`
}
