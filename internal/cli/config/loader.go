package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

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

// maxUpwardSearchLevels limits how far up the directory tree to search for config files.
const maxUpwardSearchLevels = 10

// EnvPrefix prefixes every environment variable read as configuration.
// A double underscore separates nesting levels:
// DRUGTREE_SOURCE__CSV_DIR sets source.csv_dir.
const EnvPrefix = "DRUGTREE_"

var configFileNames = []string{"drugtree.yaml", "drugtree.yml"}

// flagKeys maps flag names onto config keys where the two differ.
var flagKeys = map[string]string{
	"source":    "source.type",
	"csv-dir":   "source.csv_dir",
	"database":  "source.database",
	"page-size": "browse.page_size",
	"levels":    "browse.levels",
	"env":       "environment",
}

// FlagKey returns the configuration key a persistent flag overrides, or
// an empty string for flags that are not configuration.
func FlagKey(name string) string {
	if name == "config" {
		return ""
	}
	if key, ok := flagKeys[name]; ok {
		return key
	}
	return strings.ReplaceAll(name, "-", "_")
}

// pathFlags hold filesystem paths, resolved against the working directory.
var pathFlags = map[string]bool{"csv-dir": true, "database": true}

// Package-level koanf instance and config file tracking
var (
	k              = koanf.New(".")
	configFileUsed string
	currentConfig  *Config
)

func configExistsIn(dir string) string {
	for _, name := range configFileNames {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// findConfigUpward searches upward from startDir for a drugtree config file.
func findConfigUpward(startDir string) string {
	dir := startDir
	for i := 0; i < maxUpwardSearchLevels; i++ {
		if p := configExistsIn(dir); p != "" {
			return p
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// resolvePathRelativeTo resolves a path relative to baseDir if it's not absolute.
func resolvePathRelativeTo(path, baseDir string) string {
	if path == "" || path == ":memory:" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

// ResetConfig resets the koanf instance. Used for testing.
func ResetConfig() {
	k = koanf.New(".")
	configFileUsed = ""
	currentConfig = nil
}

// LoadConfig loads configuration from file, environment variables, and flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	return LoadConfigWithEnv(cfgFile, "", flags)
}

// LoadConfigWithEnv loads configuration and applies the overrides of the
// named environment. An empty envOverride uses the configured environment.
func LoadConfigWithEnv(cfgFile string, envOverride string, flags *pflag.FlagSet) (*Config, error) {
	k = koanf.New(".")

	cwd, _ := os.Getwd()
	if cwd == "" {
		cwd = "."
	}

	// 1. Defaults
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"source.type":      DefaultSourceType,
		"browse.page_size": DefaultPageSize,
		"server.port":      DefaultPort,
		"server.watch":     true,
		"server.auto_open": false,
		"verbose":          false,
		"output":           DefaultOutput,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file: explicit path, else search upward from CWD
	configFileUsed = cfgFile
	if configFileUsed == "" {
		configFileUsed = findConfigUpward(cwd)
	}
	projectRoot := cwd
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFileUsed, err)
		}
		if abs, err := filepath.Abs(configFileUsed); err == nil {
			projectRoot = filepath.Dir(abs)
		}
	}

	// 3. Environment variables
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Explicitly set flags
	flagPaths := make(map[string]string)
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			key := FlagKey(f.Name)
			if key == "" {
				return "", nil
			}
			if pathFlags[f.Name] {
				if v := f.Value.String(); v != "" && v != ":memory:" {
					if abs, err := filepath.Abs(v); err == nil {
						flagPaths[key] = abs
					}
				}
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// 5. Unmarshal into Config struct
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.ProjectRoot = projectRoot
	cfg.Browse.Levels = splitList(cfg.Browse.Levels)

	envName := cfg.Environment
	if envOverride != "" {
		envName = envOverride
	}
	if envCfg, ok := cfg.Environments[envName]; ok && envCfg.Source != nil {
		cfg.Source = MergeSourceConfig(cfg.Source, envCfg.Source)
	}
	if cfg.Source == nil {
		cfg.Source = &SourceConfig{Type: DefaultSourceType}
	}

	ApplySourceDefaults(cfg.Source)
	expandSourceEnvVars(cfg.Source)

	// Flag paths are relative to CWD; everything else to the project root.
	if p, ok := flagPaths["source.csv_dir"]; ok {
		cfg.Source.CSVDir = p
	} else {
		cfg.Source.CSVDir = resolvePathRelativeTo(cfg.Source.CSVDir, projectRoot)
	}
	if cfg.Source.Type != "postgres" {
		if p, ok := flagPaths["source.database"]; ok {
			cfg.Source.Database = p
		} else {
			cfg.Source.Database = resolvePathRelativeTo(cfg.Source.Database, projectRoot)
		}
	}

	if err := ValidateSource(cfg.Source); err != nil {
		return nil, fmt.Errorf("invalid source configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	currentConfig = &cfg
	return &cfg, nil
}

// GetCurrentConfig returns the configuration from the last successful load.
func GetCurrentConfig() *Config {
	return currentConfig
}

// splitList accepts both YAML lists and comma separated strings from env.
func splitList(in []string) []string {
	var out []string
	for _, s := range in {
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// GetConfigFileUsed returns the path to the config file being used, if any.
func GetConfigFileUsed() string {
	return configFileUsed
}

// LoggerKey returns the context key used for storing the logger.
// This allows the commands package to retrieve the logger from context
// without creating an import cycle with the cli package.
func LoggerKey() interface{} {
	return loggerKey{}
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

// expandSourceEnvVars expands environment variables in sensitive source fields.
func expandSourceEnvVars(s *SourceConfig) {
	if s == nil {
		return
	}
	s.Password = expandEnvVars(s.Password)
	s.User = expandEnvVars(s.User)
	s.Host = expandEnvVars(s.Host)
	s.Database = expandEnvVars(s.Database)
	s.CSVDir = expandEnvVars(s.CSVDir)
}

// MergeSourceConfig merges two source configs, with override taking precedence.
func MergeSourceConfig(base, override *SourceConfig) *SourceConfig {
	if base == nil {
		return override
	}
	if override == nil {
		return base
	}

	merged := *base
	merged.Options = make(map[string]string, len(base.Options)+len(override.Options))
	merged.Params = make(map[string]any, len(base.Params)+len(override.Params))
	for k, v := range base.Options {
		merged.Options[k] = v
	}
	for k, v := range base.Params {
		merged.Params[k] = v
	}

	for _, f := range []struct {
		dst *string
		src string
	}{
		{&merged.Type, override.Type},
		{&merged.CSVDir, override.CSVDir},
		{&merged.Database, override.Database},
		{&merged.Host, override.Host},
		{&merged.User, override.User},
		{&merged.Password, override.Password},
		{&merged.Schema, override.Schema},
	} {
		if f.src != "" {
			*f.dst = f.src
		}
	}
	if override.Port != 0 {
		merged.Port = override.Port
	}
	for k, v := range override.Options {
		merged.Options[k] = v
	}
	for k, v := range override.Params {
		merged.Params[k] = v
	}
	return &merged
}
