package models

import (
	"strings"
	"time"
)

// Platform is the operating system family reported by an endpoint.
type Platform string

const (
	PlatformLinux   Platform = "Linux"
	PlatformDarwin  Platform = "Darwin"
	PlatformWindows Platform = "Windows"
	PlatformUnknown Platform = ""
)

func ParsePlatform(s string) Platform {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "linux":
		return PlatformLinux
	case "darwin", "macos", "osx":
		return PlatformDarwin
	case "windows":
		return PlatformWindows
	default:
		return PlatformUnknown
	}
}

// Endpoint is a managed host as reported by the agent service.
type Endpoint struct {
	ID         string
	FQDN       string
	Platform   Platform
	LastSeenAt time.Time
}
