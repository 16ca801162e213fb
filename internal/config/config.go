package config

import "time"

type ServerModeType string

const (
	ServerModeDev  ServerModeType = "dev"
	ServerModeProd ServerModeType = "prod"
)

//go:generate go run github.com/ecordell/optgen -output zz_generated.configuration.go . Configuration Server Grr Collection
type Configuration struct {
	Server     Server     `debugmap:"visible"`
	Grr        Grr        `debugmap:"visible"`
	Collection Collection `debugmap:"visible"`

	// Log
	LogFormat string `debugmap:"visible" default:"console"`
	LogLevel  string `debugmap:"visible" default:"info"`
}

type Server struct {
	ServerMode string `debugmap:"visible" default:"dev"`
	HTTPPort   int    `debugmap:"visible" default:"8080"`
	// MaxRuns bounds how many collection runs execute at the same time in serve mode.
	MaxRuns int `debugmap:"visible" default:"4"`
}

type Grr struct {
	URL      string `debugmap:"visible"`
	Username string `debugmap:"visible"`
	Password string `debugmap:"sensitive"`
	// RateLimit is in requests per second. Zero disables limiting.
	RateLimit float64 `debugmap:"visible" default:"0"`
	Burst     int     `debugmap:"visible" default:"10"`
	RetryMax  int     `debugmap:"visible" default:"4"`
}

type Collection struct {
	DataFolder string `debugmap:"visible"`
	// OutputFolder receives the collected artifacts. Defaults to a temporary directory per target.
	OutputFolder     string        `debugmap:"visible"`
	ArtifactsFile    string        `debugmap:"visible"`
	ApprovalInterval time.Duration `debugmap:"visible" default:"10s"`
	FlowInterval     time.Duration `debugmap:"visible" default:"10s"`
}
