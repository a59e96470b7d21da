// Package config provides configuration management for the sidekick CLIs.
//
// Configuration is layered with koanf: defaults, then a YAML file, then
// SIDEKICK_ environment variables, then explicitly set flags. The result is
// a single *Config that is injected into commands through the context.
package config

import "time"

// Config holds all CLI configuration options.
type Config struct {
	Database     string           `koanf:"database"`
	ReadOnly     bool             `koanf:"read_only"`
	MaxRows      int              `koanf:"max_rows"`
	PageSize     int              `koanf:"page_size"`
	Format       string           `koanf:"format"`
	OutputFormat string           `koanf:"output"`
	HistoryFile  string           `koanf:"history_file"`
	Verbose      bool             `koanf:"verbose"`
	LogLevel     string           `koanf:"log_level"`
	Discovery    DiscoveryConfig  `koanf:"discovery"`
	Collective   CollectiveConfig `koanf:"collective"`
}

// DiscoveryConfig controls the search for database files.
type DiscoveryConfig struct {
	Dirs       []string `koanf:"dirs"`
	MaxDepth   int      `koanf:"max_depth"`
	Extensions []string `koanf:"extensions"`
}

// CollectiveConfig holds settings for the join-collective client.
type CollectiveConfig struct {
	// ServerDir is the checkout of the collective server project.
	ServerDir    string            `koanf:"server_dir"`
	Command      string            `koanf:"command"`
	Args         []string          `koanf:"args"`
	Env          map[string]string `koanf:"env"`
	SessionToken string            `koanf:"session_token"`
	AgentUUID    string            `koanf:"agent_uuid"`
	HumanName    string            `koanf:"human_name"`
	Agent        string            `koanf:"agent"`
	Tool         string            `koanf:"tool"`
	ViewCount    int               `koanf:"view_count"`
	Timeout      time.Duration     `koanf:"timeout"`
}

// Default configuration values.
const (
	DefaultMaxRows     = 10000
	DefaultPageSize    = 100
	DefaultFormat      = "table"
	DefaultOutput      = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultLogLevel    = "warn"
	DefaultHistoryFile = "~/.sidekick/sqlite_history"
	DefaultMaxDepth    = 4

	DefaultServerDir    = "~/Dev/sidekick4llm"
	DefaultSessionToken = "sid_collective_qwen2.5-latest"
	DefaultAgentUUID    = "HUMAN_JACK"
	DefaultHumanName    = "Jack"
	DefaultAgent        = "claude-sonnet-4"
	DefaultTool         = "converse"
	DefaultViewCount    = 10
	DefaultTimeout      = 2 * time.Minute
)

// DefaultExtensions are the file suffixes treated as database candidates.
var DefaultExtensions = []string{".db", ".sqlite", ".sqlite3", ".db3"}

// Formats lists the accepted result formats.
var Formats = []string{"table", "json", "csv", "md", "markdown", "yaml"}

// OutputModes lists the accepted renderer modes.
var OutputModes = []string{"auto", "text", "markdown", "json"}
