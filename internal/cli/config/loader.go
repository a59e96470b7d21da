package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// loggerKey is used to store logger in context.
type loggerKey struct{}

// configKey is used to store config in context.
type configKey struct{}

// envPrefix namespaces environment overrides. A double underscore selects
// a nested key: SIDEKICK_COLLECTIVE__SESSION_TOKEN -> collective.session_token.
const envPrefix = "SIDEKICK_"

// configFileUsed tracks the file read by the last Load.
var configFileUsed string

// flagKeys maps flag names that differ from their config keys.
var flagKeys = map[string]string{
	"db":         "database",
	"session":    "collective.session_token",
	"uuid":       "collective.agent_uuid",
	"name":       "collective.human_name",
	"agent":      "collective.agent",
	"server-dir": "collective.server_dir",
	"timeout":    "collective.timeout",
}

// defaults returns the lowest configuration layer.
func defaults() map[string]any {
	return map[string]any{
		"database":     "",
		"read_only":    true,
		"max_rows":     DefaultMaxRows,
		"page_size":    DefaultPageSize,
		"format":       DefaultFormat,
		"output":       DefaultOutput,
		"history_file": DefaultHistoryFile,
		"verbose":      false,
		"log_level":    DefaultLogLevel,

		"discovery.dirs":       []string{"."},
		"discovery.max_depth":  DefaultMaxDepth,
		"discovery.extensions": DefaultExtensions,

		"collective.server_dir":    defaultServerDir(),
		"collective.command":       "poetry",
		"collective.args":          []string{"-C", "{server_dir}", "run", "python", "src/server.py"},
		"collective.session_token": DefaultSessionToken,
		"collective.agent_uuid":    DefaultAgentUUID,
		"collective.human_name":    DefaultHumanName,
		"collective.agent":         DefaultAgent,
		"collective.tool":          DefaultTool,
		"collective.view_count":    DefaultViewCount,
		"collective.timeout":       DefaultTimeout.String(),
		"collective.env": map[string]any{
			"ENABLE_MEMORY_TOOLS": "true",
			"PYTHONUNBUFFERED":    "1",
			"LOG_LEVEL":           "ERROR",
		},
	}
}

// defaultServerDir prefers SIDEKICK4LLM_PATH over the conventional checkout.
func defaultServerDir() string {
	if p := os.Getenv("SIDEKICK4LLM_PATH"); p != "" {
		return p
	}
	return DefaultServerDir
}

// findConfigFile finds the config file to use.
// Priority: explicit path > ./sidekick.yaml > ./sidekick.yml > ~/.config/sidekick/config.yaml
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	candidates := []string{"sidekick.yaml", "sidekick.yml"}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".config", "sidekick", "config.yaml"))
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return ""
}

// ResetConfig forgets the recorded config file. Used for testing.
func ResetConfig() {
	configFileUsed = ""
}

// Load loads configuration from file, environment variables, and flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	configFileUsed = findConfigFile(cfgFile)
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFileUsed, err)
		}
	}

	// 3. Environment variables (SIDEKICK_ prefix)
	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags (only those explicitly set)
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			// --write is the inverse of read_only.
			if f.Name == "write" {
				write, _ := flags.GetBool("write")
				return "read_only", !write
			}
			return flagKey(f.Name), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// 5. Decode
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
			WeaklyTypedInput: true,
			Result:           &cfg,
		},
	}); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	cfg.resolvePaths()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envKey transforms SIDEKICK_MAX_ROWS -> max_rows and
// SIDEKICK_COLLECTIVE__TOOL -> collective.tool.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, envPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// flagKey transforms a kebab-case flag name into its config key.
func flagKey(name string) string {
	if key, ok := flagKeys[name]; ok {
		return key
	}
	return strings.ReplaceAll(name, "-", "_")
}

// resolvePaths expands ${VAR} and a leading ~ in path-valued settings and
// substitutes {server_dir} into the collective server arguments.
func (c *Config) resolvePaths() {
	c.Database = expandPath(c.Database)
	c.HistoryFile = expandPath(c.HistoryFile)
	for i, d := range c.Discovery.Dirs {
		c.Discovery.Dirs[i] = expandPath(d)
	}

	c.Collective.ServerDir = expandPath(c.Collective.ServerDir)
	for i, a := range c.Collective.Args {
		c.Collective.Args[i] = strings.ReplaceAll(a, "{server_dir}", c.Collective.ServerDir)
	}
}

// GetConfigFileUsed returns the path to the config file being used, if any.
func GetConfigFileUsed() string {
	return configFileUsed
}

// WithConfig stores cfg in ctx.
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// GetConfig retrieves the config from ctx, falling back to defaults.
func GetConfig(ctx context.Context) *Config {
	if c, ok := ctx.Value(configKey{}).(*Config); ok {
		return c
	}
	cfg, err := Load("", nil)
	if err != nil {
		return &Config{
			ReadOnly:     true,
			MaxRows:      DefaultMaxRows,
			PageSize:     DefaultPageSize,
			Format:       DefaultFormat,
			OutputFormat: DefaultOutput,
			LogLevel:     DefaultLogLevel,
		}
	}
	return cfg
}

// WithLogger stores logger in ctx.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	// Return discard logger as safe fallback
	return slog.New(slog.DiscardHandler)
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match // Return original if not found
	})
}

// expandPath applies expandEnvVars and replaces a leading ~ with the home
// directory.
func expandPath(p string) string {
	p = expandEnvVars(p)
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}
