package models

import (
	"fmt"
	"path/filepath"
	"strings"
)

type TargetKind string

const (
	TargetKindHost      TargetKind = "host"
	TargetKindLocalPath TargetKind = "path"
	TargetKindHunt      TargetKind = "hunt"
)

// Target is one caller supplied collection target. It is never modified once built.
type Target struct {
	Kind  TargetKind
	Value string
	// Label is only honored for local paths.
	Label string
}

func NewHostTarget(host string) Target {
	return Target{Kind: TargetKindHost, Value: host}
}

func NewHuntTarget(huntID string) Target {
	return Target{Kind: TargetKindHunt, Value: huntID}
}

func NewLocalPathTarget(path, label string) Target {
	return Target{Kind: TargetKindLocalPath, Value: path, Label: label}
}

func (t Target) String() string {
	return fmt.Sprintf("%s:%s", t.Kind, t.Value)
}

// PathLabel returns the last non-empty segment of p, ignoring trailing separators.
func PathLabel(p string) string {
	trimmed := strings.TrimRight(p, "/"+string(filepath.Separator))
	if trimmed == "" {
		return p
	}
	return filepath.Base(trimmed)
}
