package models

import (
	"fmt"
	"strings"
)

// ResolutionError is returned when no endpoint matches a host query.
type ResolutionError struct {
	Host string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("could not get client id for %q", e.Host)
}

// ApprovalError is returned when an operation needs approval but nobody can be asked for it.
type ApprovalError struct {
	Subject string
}

func (e *ApprovalError) Error() string {
	return fmt.Sprintf("%s needs approval but no approvers specified (hint: use --approvers)", e.Subject)
}

// FlowExecutionError carries the backtrace reported by the service for a failed flow.
type FlowExecutionError struct {
	ClientID  string
	FlowID    string
	Backtrace string
}

func (e *FlowExecutionError) Error() string {
	msg := fmt.Sprintf("flow %s on %s failed", e.FlowID, e.ClientID)
	if bt := strings.TrimSpace(e.Backtrace); bt != "" {
		msg += ": backtrace from server:\n\n" + bt
	}
	return msg
}

// ArchiveError is returned when a downloaded archive is missing or cannot be read.
type ArchiveError struct {
	Path string
	Err  error
}

func (e *ArchiveError) Error() string {
	return fmt.Sprintf("archive %s: %v", e.Path, e.Err)
}

func (e *ArchiveError) Unwrap() error {
	return e.Err
}

// NoArtifactsError is returned when no artifact was given and the platform has no defaults.
type NoArtifactsError struct {
	ClientID string
	Platform Platform
}

func (e *NoArtifactsError) Error() string {
	platform := string(e.Platform)
	if platform == "" {
		platform = "unknown"
	}
	return fmt.Sprintf("no artifacts to collect on %s (platform %s)", e.ClientID, platform)
}

// UnitError binds a fatal failure to the target whose unit produced it.
type UnitError struct {
	Target Target
	Err    error
}

func (e *UnitError) Error() string {
	return fmt.Sprintf("%s: %v", e.Target, e.Err)
}

func (e *UnitError) Unwrap() error {
	return e.Err
}
