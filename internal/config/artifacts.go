package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tupyy/artifact-collector/internal/models"
)

// ArtifactDefaults maps a platform to the artifacts collected when the caller selects none.
type ArtifactDefaults map[models.Platform][]string

func DefaultArtifacts() ArtifactDefaults {
	return ArtifactDefaults{
		models.PlatformLinux: {
			"LinuxAuditLogs",
			"LinuxAuthLogs",
			"LinuxCronLogs",
			"LinuxWtmp",
			"AllUsersShellHistory",
			"ZeitgeistDatabase",
		},
		models.PlatformDarwin: {
			"OSXAppleSystemLogs",
			"OSXAuditLogs",
			"OSXBashHistory",
			"OSXInstallationHistory",
			"OSXInstallationLog",
			"OSXInstallationTime",
			"OSXLaunchAgents",
			"OSXLaunchDaemons",
			"OSXMiscLogs",
			"OSXRecentItems",
			"OSXSystemLogs",
			"OSXUserApplicationLogs",
			"OSXQuarantineEvents",
		},
		models.PlatformWindows: {
			"AppCompatCache",
			"EventLogs",
			"TerminalServicesEventLogEvtx",
			"PrefetchFiles",
			"SuperFetchFiles",
			"WindowsSearchDatabase",
			"ScheduledTasks",
			"WindowsSystemRegistryFiles",
			"WindowsUserRegistryFiles",
		},
	}
}

// For returns a copy of the defaults of p, or nil when p has none.
func (a ArtifactDefaults) For(p models.Platform) []string {
	list, ok := a[p]
	if !ok || len(list) == 0 {
		return nil
	}
	return append([]string(nil), list...)
}

type artifactsFile struct {
	Artifacts map[string][]string `yaml:"artifacts"`
}

// LoadArtifactDefaults reads a yaml file of the form
//
//	artifacts:
//	  linux: [LinuxAuthLogs, LinuxWtmp]
//	  windows: [EventLogs]
//
// Platforms present in the file replace the built-in lists. The others keep their defaults.
func LoadArtifactDefaults(path string) (ArtifactDefaults, error) {
	defaults := DefaultArtifacts()
	if path == "" {
		return defaults, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading artifacts file: %w", err)
	}

	var f artifactsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing artifacts file %s: %w", path, err)
	}

	for name, list := range f.Artifacts {
		p := models.ParsePlatform(name)
		if p == models.PlatformUnknown {
			return nil, fmt.Errorf("artifacts file %s: unknown platform %q", path, name)
		}
		defaults[p] = list
	}

	return defaults, nil
}
