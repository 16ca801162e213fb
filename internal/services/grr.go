package services

import (
	"context"
	"io"

	"github.com/tupyy/artifact-collector/pkg/grr"
)

// Grr is the part of the GRR API the collectors use. *grr.Client implements it.
type Grr interface {
	SearchClients(ctx context.Context, query string) ([]grr.ClientInfo, error)
	GetClient(ctx context.Context, clientID string) (*grr.ClientInfo, error)
	ListFlows(ctx context.Context, clientID string) ([]grr.Flow, error)
	CreateFlow(ctx context.Context, clientID, name string, args grr.ArtifactCollectorFlowArgs) (*grr.Flow, error)
	GetFlow(ctx context.Context, clientID, flowID string) (*grr.Flow, error)
	CreateClientApproval(ctx context.Context, clientID, reason string, approvers []string) error
	GetFlowFilesArchive(ctx context.Context, clientID, flowID string, w io.Writer) (int64, error)
	GetHunt(ctx context.Context, huntID string) (*grr.Hunt, error)
	CreateHuntApproval(ctx context.Context, huntID, reason string, approvers []string) error
	GetHuntFilesArchive(ctx context.Context, huntID string, w io.Writer) (int64, error)
}

var _ Grr = (*grr.Client)(nil)
