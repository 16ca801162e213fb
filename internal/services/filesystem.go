package services

import (
	"os"

	"go.uber.org/zap"

	"github.com/tupyy/artifact-collector/internal/models"
)

// FilesystemCollector reports a local directory that already holds artifacts.
type FilesystemCollector struct{}

func (FilesystemCollector) Collect(target models.Target) models.CollectedPath {
	label := target.Label
	if label == "" {
		label = models.PathLabel(target.Value)
	}

	if _, err := os.Stat(target.Value); err != nil {
		zap.S().Named("filesystem").Warnw("local path is not accessible", "path", target.Value, "error", err)
	}

	zap.S().Named("filesystem").Debugw("artifact collection name", "path", target.Value, "label", label)

	return models.CollectedPath{Path: target.Value, Label: label}
}
