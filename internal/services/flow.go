package services

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/tupyy/artifact-collector/internal/config"
	"github.com/tupyy/artifact-collector/internal/models"
	"github.com/tupyy/artifact-collector/pkg/grr"
)

// FlowController schedules artifact collection flows and waits for them to finish.
type FlowController struct {
	client    Grr
	gate      *ApprovalGate
	defaults  config.ArtifactDefaults
	clock     clockwork.Clock
	interval  time.Duration
	reason    string
	approvers []string
	log       *zap.SugaredLogger
}

func NewFlowController(client Grr, gate *ApprovalGate, defaults config.ArtifactDefaults, clock clockwork.Clock, interval time.Duration, reason string, approvers []string) *FlowController {
	return &FlowController{
		client:    client,
		gate:      gate,
		defaults:  defaults,
		clock:     clock,
		interval:  interval,
		reason:    reason,
		approvers: approvers,
		log:       zap.S().Named("flow"),
	}
}

// Schedule waits for a client approval and starts an ArtifactCollectorFlow.
// When artifacts is empty the platform defaults are used.
func (f *FlowController) Schedule(ctx context.Context, clientID string, artifacts []string, useTSK bool) (*models.Flow, error) {
	approval := models.NewApproval(clientID, f.reason, f.approvers)
	probe := func(ctx context.Context) ProbeResult {
		_, err := f.client.ListFlows(ctx, clientID)
		return ProbeResultFromError(err)
	}
	request := func(ctx context.Context, reason string, approvers []string) error {
		return f.client.CreateClientApproval(ctx, clientID, reason, approvers)
	}
	if err := f.gate.Ensure(ctx, approval, probe, request); err != nil {
		return nil, err
	}

	info, err := f.client.GetClient(ctx, clientID)
	if err != nil {
		return nil, err
	}
	endpoint := info.ToModel()
	f.log.Debugw("client platform", "client_id", clientID, "system", info.OSInfo.System)

	selection := artifacts
	if len(selection) == 0 {
		selection = f.defaults.For(endpoint.Platform)
	}
	if len(selection) == 0 {
		return nil, &models.NoArtifactsError{ClientID: clientID, Platform: endpoint.Platform}
	}

	f.log.Infow("artifacts to collect", "client_id", clientID, "artifacts", selection)

	created, err := f.client.CreateFlow(ctx, clientID, grr.ArtifactCollectorFlowName, grr.ArtifactCollectorFlowArgs{
		ArtifactList:              selection,
		UseTSK:                    useTSK,
		IgnoreInterpolationErrors: true,
		ApplyParsers:              false,
	})
	if err != nil {
		return nil, err
	}

	f.log.Infow("flow scheduled", "client_id", clientID, "flow_id", created.FlowID)

	return &models.Flow{
		ID:        created.FlowID,
		Endpoint:  endpoint,
		Artifacts: selection,
		UseTSK:    useTSK,
		State:     models.FlowStateScheduled,
	}, nil
}

// AwaitCompletion polls the flow until it terminates. A flow in error returns a FlowExecutionError.
func (f *FlowController) AwaitCompletion(ctx context.Context, flow *models.Flow) error {
	clientID := flow.Endpoint.ID
	f.log.Infow("waiting for flow to finish", "client_id", clientID, "flow_id", flow.ID)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		status, err := f.client.GetFlow(ctx, clientID, flow.ID)
		if err != nil {
			return err
		}
		flow.State = status.ModelState()

		switch flow.State {
		case models.FlowStateError:
			flow.Backtrace = status.Context.Backtrace
			f.log.Errorw("flow failed", "client_id", clientID, "flow_id", flow.ID)
			return &models.FlowExecutionError{ClientID: clientID, FlowID: flow.ID, Backtrace: flow.Backtrace}
		case models.FlowStateTerminated:
			f.log.Infow("flow finished successfully", "client_id", clientID, "flow_id", flow.ID)
			return nil
		}

		f.log.Debugw("flow still running", "client_id", clientID, "flow_id", flow.ID, "state", status.State)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-f.clock.After(f.interval):
		}
	}
}
