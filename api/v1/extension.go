package v1

import (
	"github.com/tupyy/artifact-collector/internal/models"
)

func (r CollectionRequest) ToModel() models.CollectionRequest {
	return models.CollectionRequest{
		Hosts:     r.Hosts,
		HuntID:    r.HuntID,
		Paths:     r.Paths,
		Artifacts: r.Artifacts,
		UseTSK:    r.UseTSK,
		Reason:    r.Reason,
		Approvers: r.Approvers,
	}
}

func (c *Collection) FromModel(m models.Run) {
	c.ID = m.ID
	c.State = string(m.State)
	c.CreatedAt = m.CreatedAt
	if !m.FinishedAt.IsZero() {
		finished := m.FinishedAt
		c.FinishedAt = &finished
	}

	for _, u := range m.Units {
		c.Units = append(c.Units, Unit{
			Index: u.Index,
			Target: Target{
				Kind:  string(u.Target.Kind),
				Value: u.Target.Value,
				Label: u.Target.Label,
			},
			State:    string(u.State),
			ClientID: u.ClientID,
			FlowID:   u.FlowID,
			Label:    u.Label,
			Error:    u.Error,
		})
	}

	for _, r := range m.Results {
		c.Results = append(c.Results, Result{Path: r.Path, Label: r.Label})
	}
}
