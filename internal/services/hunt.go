package services

import (
	"context"
	"io"

	"go.uber.org/zap"

	"github.com/tupyy/artifact-collector/internal/models"
)

// HuntCollector downloads the results of a hunt that was started outside this tool.
type HuntCollector struct {
	client    Grr
	gate      *ApprovalGate
	archives  *ArchiveRetriever
	reason    string
	approvers []string
	log       *zap.SugaredLogger
}

func NewHuntCollector(client Grr, gate *ApprovalGate, archives *ArchiveRetriever, reason string, approvers []string) *HuntCollector {
	return &HuntCollector{
		client:    client,
		gate:      gate,
		archives:  archives,
		reason:    reason,
		approvers: approvers,
		log:       zap.S().Named("hunt"),
	}
}

// Hunt returns the metadata of huntID.
func (h *HuntCollector) Hunt(ctx context.Context, huntID string) (models.Hunt, error) {
	hunt, err := h.client.GetHunt(ctx, huntID)
	if err != nil {
		return models.Hunt{}, err
	}
	return hunt.ToModel(), nil
}

// Collect downloads the hunt archive into dest, waiting for a hunt approval if needed.
// The returned paths are one directory per client labeled with the client fqdn.
func (h *HuntCollector) Collect(ctx context.Context, huntID, dest string) ([]models.CollectedPath, error) {
	approval := models.NewApproval(huntID, h.reason, h.approvers)

	// The archive download is the privileged call, so it doubles as the approval probe.
	fetch := func(ctx context.Context, w io.Writer) (int64, error) {
		var n int64
		probe := func(ctx context.Context) ProbeResult {
			var err error
			n, err = h.client.GetHuntFilesArchive(ctx, huntID, w)
			return ProbeResultFromError(err)
		}
		request := func(ctx context.Context, reason string, approvers []string) error {
			return h.client.CreateHuntApproval(ctx, huntID, reason, approvers)
		}
		return n, h.gate.Ensure(ctx, approval, probe, request)
	}

	clientName := func(ctx context.Context, clientID string) (string, error) {
		info, err := h.client.GetClient(ctx, clientID)
		if err != nil {
			return "", err
		}
		return info.OSInfo.FQDN, nil
	}

	return h.archives.DownloadHunt(ctx, huntID, dest, fetch, clientName)
}
