package services

import (
	"context"
	"errors"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/tupyy/artifact-collector/internal/models"
	"github.com/tupyy/artifact-collector/pkg/grr"
)

type ProbeOutcome int

const (
	// ProbeGranted means the privileged call went through.
	ProbeGranted ProbeOutcome = iota
	// ProbeDenied means the service refused access. The gate asks for approval and retries.
	ProbeDenied
	// ProbeFailed is any other failure. It ends the wait.
	ProbeFailed
)

type ProbeResult struct {
	Outcome ProbeOutcome
	Err     error
}

// ProbeResultFromError classifies the error of a privileged call.
func ProbeResultFromError(err error) ProbeResult {
	switch {
	case err == nil:
		return ProbeResult{Outcome: ProbeGranted}
	case errors.Is(err, grr.ErrAccessForbidden):
		return ProbeResult{Outcome: ProbeDenied, Err: err}
	default:
		return ProbeResult{Outcome: ProbeFailed, Err: err}
	}
}

// Probe attempts the operation that needs approval.
type Probe func(ctx context.Context) ProbeResult

// RequestApproval asks the service to notify approvers.
type RequestApproval func(ctx context.Context, reason string, approvers []string) error

// ApprovalGate blocks the calling unit until the service grants access to a subject.
// It holds no lock so waiting units never block each other.
type ApprovalGate struct {
	clock    clockwork.Clock
	interval time.Duration
	log      *zap.SugaredLogger
}

func NewApprovalGate(clock clockwork.Clock, interval time.Duration) *ApprovalGate {
	return &ApprovalGate{
		clock:    clock,
		interval: interval,
		log:      zap.S().Named("approval"),
	}
}

// Ensure probes until access is granted. The first denial sends one approval request.
// The wait is unbounded and only ends on grant, on a non access error or when ctx is done.
func (g *ApprovalGate) Ensure(ctx context.Context, approval *models.Approval, probe Probe, request RequestApproval) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		res := probe(ctx)
		approval.Probes++

		switch res.Outcome {
		case ProbeGranted:
			if approval.State != models.ApprovalAbsent {
				g.log.Infow("approval is valid", "subject", approval.Subject, "probes", approval.Probes)
			}
			return approval.Advance(models.ApprovalGranted)
		case ProbeFailed:
			return res.Err
		}

		if approval.State == models.ApprovalAbsent {
			g.log.Infow("no valid approval found", "subject", approval.Subject)
			if len(approval.Approvers) == 0 {
				return &models.ApprovalError{Subject: approval.Subject}
			}

			if err := request(ctx, approval.Reason, approval.Approvers); err != nil {
				return err
			}
			approval.Requests++
			if err := approval.Advance(models.ApprovalPending); err != nil {
				return err
			}

			g.log.Infow("approval request sent, waiting for approval (this can take a while)",
				"subject", approval.Subject, "approvers", approval.Approvers, "reason", approval.Reason)
		} else {
			g.log.Debugw("still waiting for approval", "subject", approval.Subject, "probes", approval.Probes)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-g.clock.After(g.interval):
		}
	}
}
