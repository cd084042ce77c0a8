// Package config handles configuration loading for dealroom.
// It supports XDG config paths, project-level overrides, and environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/ShayCichocki/dealroom/internal/state"
	"github.com/ShayCichocki/dealroom/pkg/models"
)

// Config holds all configuration for dealroom.
type Config struct {
	Anthropic   AnthropicConfig   `mapstructure:"anthropic"`
	Local       LocalConfig       `mapstructure:"local"`
	Negotiation NegotiationConfig `mapstructure:"negotiation"`
	League      LeagueConfig      `mapstructure:"league"`
	Storage     StorageConfig     `mapstructure:"storage"`
	Rosters     RostersConfig     `mapstructure:"rosters"`
	Log         LogConfig         `mapstructure:"log"`
}

// AnthropicConfig holds settings for the primary reasoning backend.
type AnthropicConfig struct {
	APIKey     string        `mapstructure:"api_key"`
	Model      string        `mapstructure:"model"`
	UseBedrock bool          `mapstructure:"use_bedrock"`
	AWSRegion  string        `mapstructure:"aws_region"`
	AWSProfile string        `mapstructure:"aws_profile"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// LocalConfig holds settings for the local Ollama-compatible backend.
// An empty Endpoint disables it.
type LocalConfig struct {
	Endpoint string        `mapstructure:"endpoint"`
	Model    string        `mapstructure:"model"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// NegotiationConfig holds turn loop settings.
type NegotiationConfig struct {
	MaxTurns         int     `mapstructure:"max_turns"`
	ConsensusKeyword string  `mapstructure:"consensus_keyword"`
	Temperature      float64 `mapstructure:"temperature"`
	MaxTokens        int     `mapstructure:"max_tokens"`
	MaxToolRounds    int     `mapstructure:"max_tool_rounds"`
	EventBuffer      int     `mapstructure:"event_buffer"`
}

// LeagueConfig holds the league constants shared by prompts and tools.
type LeagueConfig struct {
	SalaryCap         int64 `mapstructure:"salary_cap"`
	RosterMin         int   `mapstructure:"roster_min"`
	RosterMax         int   `mapstructure:"roster_max"`
	BudgetFloor       int64 `mapstructure:"budget_floor"`
	BudgetCeiling     int64 `mapstructure:"budget_ceiling"`
	PositionThreshold int   `mapstructure:"position_threshold"`
}

// Rules converts the league section to models.LeagueRules.
func (l LeagueConfig) Rules() models.LeagueRules {
	return models.LeagueRules{
		SalaryCap:         l.SalaryCap,
		RosterMin:         l.RosterMin,
		RosterMax:         l.RosterMax,
		BudgetFloor:       l.BudgetFloor,
		BudgetCeiling:     l.BudgetCeiling,
		PositionThreshold: l.PositionThreshold,
	}
}

// StorageConfig holds the session database location.
type StorageConfig struct {
	DBPath string `mapstructure:"db_path"`
}

// RostersConfig holds the league roster file location.
type RostersConfig struct {
	Path string `mapstructure:"path"`
}

// LogConfig holds debug log settings. An empty DebugPath disables the debug log.
type LogConfig struct {
	DebugPath string `mapstructure:"debug_path"`
}

// envBindings maps config keys to the environment variables that override them.
var envBindings = map[string]string{
	"anthropic.api_key":             "ANTHROPIC_API_KEY",
	"anthropic.model":               "ANTHROPIC_MODEL",
	"anthropic.use_bedrock":         "DEALROOM_USE_BEDROCK",
	"anthropic.aws_region":          "AWS_REGION",
	"anthropic.aws_profile":         "AWS_PROFILE",
	"local.endpoint":                "OLLAMA_BASE_URL",
	"local.model":                   "OLLAMA_MODEL",
	"negotiation.max_turns":         "DEALROOM_MAX_TURNS",
	"negotiation.consensus_keyword": "DEALROOM_CONSENSUS_KEYWORD",
	"storage.db_path":               "DEALROOM_DB_PATH",
	"rosters.path":                  "DEALROOM_ROSTERS",
	"log.debug_path":                "DEALROOM_DEBUG_LOG",
}

// Load loads configuration from XDG paths, project overrides, and environment variables.
// Precedence (highest to lowest):
// 1. Environment variables (ANTHROPIC_API_KEY, OLLAMA_BASE_URL, DEALROOM_*)
// 2. Project config (.dealroom.yaml in current directory or parent)
// 3. User config (~/.config/dealroom/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(getUserConfigDir())

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	if projectConfig := findProjectConfig(); projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading project config %s: %w", projectConfig, err)
		}
		if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
			return nil, fmt.Errorf("merging project config: %w", err)
		}
	}

	return finish(v)
}

// LoadFromPath loads configuration from a specific file, still honoring
// environment overrides.
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	return finish(v)
}

func finish(v *viper.Viper) (*Config, error) {
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("binding %s: %w", env, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	// Expand ${VAR} references
	cfg.Anthropic.APIKey = os.ExpandEnv(cfg.Anthropic.APIKey)
	cfg.Storage.DBPath = expandPath(cfg.Storage.DBPath)
	cfg.Rosters.Path = expandPath(cfg.Rosters.Path)
	cfg.Log.DebugPath = expandPath(cfg.Log.DebugPath)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the negotiation engine cannot run with.
func (c *Config) Validate() error {
	if c.Negotiation.MaxTurns < 1 {
		return fmt.Errorf("negotiation.max_turns must be at least 1, got %d", c.Negotiation.MaxTurns)
	}
	if c.Negotiation.MaxToolRounds < 1 {
		return fmt.Errorf("negotiation.max_tool_rounds must be at least 1, got %d", c.Negotiation.MaxToolRounds)
	}
	if c.Negotiation.Temperature < 0 || c.Negotiation.Temperature > 1 {
		return fmt.Errorf("negotiation.temperature must be between 0 and 1, got %g", c.Negotiation.Temperature)
	}
	if c.League.BudgetFloor > c.League.BudgetCeiling {
		return fmt.Errorf("league.budget_floor %d exceeds league.budget_ceiling %d",
			c.League.BudgetFloor, c.League.BudgetCeiling)
	}
	return nil
}

// SetUserValue writes one key to the user config file. The key must be a
// known setting and the resulting configuration must validate.
func SetUserValue(key, value string) error {
	if _, ok := Settings(Default())[key]; !ok {
		return fmt.Errorf("unknown configuration key: %s", key)
	}

	userConfigDir := getUserConfigDir()
	if err := os.MkdirAll(userConfigDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(filepath.Join(userConfigDir, "config.yaml"))
	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("reading user config: %w", err)
	}
	v.Set(key, value)

	check := viper.New()
	setDefaults(check)
	if err := check.MergeConfigMap(v.AllSettings()); err != nil {
		return fmt.Errorf("merging user config: %w", err)
	}
	cfg := &Config{}
	if err := check.Unmarshal(cfg); err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	return v.WriteConfig()
}

// Settings flattens cfg into dotted keys for display and persistence.
// The API key is masked.
func Settings(cfg *Config) map[string]any {
	return map[string]any{
		"anthropic.api_key":             MaskAPIKey(cfg.Anthropic.APIKey),
		"anthropic.model":               cfg.Anthropic.Model,
		"anthropic.use_bedrock":         cfg.Anthropic.UseBedrock,
		"anthropic.aws_region":          cfg.Anthropic.AWSRegion,
		"anthropic.aws_profile":         cfg.Anthropic.AWSProfile,
		"anthropic.timeout":             cfg.Anthropic.Timeout.String(),
		"local.endpoint":                cfg.Local.Endpoint,
		"local.model":                   cfg.Local.Model,
		"local.timeout":                 cfg.Local.Timeout.String(),
		"negotiation.max_turns":         cfg.Negotiation.MaxTurns,
		"negotiation.consensus_keyword": cfg.Negotiation.ConsensusKeyword,
		"negotiation.temperature":       cfg.Negotiation.Temperature,
		"negotiation.max_tokens":        cfg.Negotiation.MaxTokens,
		"negotiation.max_tool_rounds":   cfg.Negotiation.MaxToolRounds,
		"negotiation.event_buffer":      cfg.Negotiation.EventBuffer,
		"league.salary_cap":             cfg.League.SalaryCap,
		"league.roster_min":             cfg.League.RosterMin,
		"league.roster_max":             cfg.League.RosterMax,
		"league.budget_floor":           cfg.League.BudgetFloor,
		"league.budget_ceiling":         cfg.League.BudgetCeiling,
		"league.position_threshold":     cfg.League.PositionThreshold,
		"storage.db_path":               cfg.Storage.DBPath,
		"rosters.path":                  cfg.Rosters.Path,
		"log.debug_path":                cfg.Log.DebugPath,
	}
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// GetProjectConfigPath returns the path to the project config file if it exists.
func GetProjectConfigPath() string {
	return findProjectConfig()
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("anthropic.api_key", "")
	v.SetDefault("anthropic.model", d.Anthropic.Model)
	v.SetDefault("anthropic.use_bedrock", false)
	v.SetDefault("anthropic.aws_region", "")
	v.SetDefault("anthropic.aws_profile", "")
	v.SetDefault("anthropic.timeout", d.Anthropic.Timeout.String())

	v.SetDefault("local.endpoint", "")
	v.SetDefault("local.model", d.Local.Model)
	v.SetDefault("local.timeout", d.Local.Timeout.String())

	v.SetDefault("negotiation.max_turns", d.Negotiation.MaxTurns)
	v.SetDefault("negotiation.consensus_keyword", d.Negotiation.ConsensusKeyword)
	v.SetDefault("negotiation.temperature", d.Negotiation.Temperature)
	v.SetDefault("negotiation.max_tokens", d.Negotiation.MaxTokens)
	v.SetDefault("negotiation.max_tool_rounds", d.Negotiation.MaxToolRounds)
	v.SetDefault("negotiation.event_buffer", d.Negotiation.EventBuffer)

	v.SetDefault("league.salary_cap", d.League.SalaryCap)
	v.SetDefault("league.roster_min", d.League.RosterMin)
	v.SetDefault("league.roster_max", d.League.RosterMax)
	v.SetDefault("league.budget_floor", d.League.BudgetFloor)
	v.SetDefault("league.budget_ceiling", d.League.BudgetCeiling)
	v.SetDefault("league.position_threshold", d.League.PositionThreshold)

	v.SetDefault("storage.db_path", d.Storage.DBPath)
	v.SetDefault("rosters.path", d.Rosters.Path)
	v.SetDefault("log.debug_path", "")
}

// Default returns a Config with default values.
func Default() *Config {
	rules := models.DefaultLeagueRules()
	return &Config{
		Anthropic: AnthropicConfig{
			Model:   "claude-sonnet-4-20250514",
			Timeout: 2 * time.Minute,
		},
		Local: LocalConfig{
			Model:   "llama3.1",
			Timeout: 15 * time.Second,
		},
		Negotiation: NegotiationConfig{
			MaxTurns:         10,
			ConsensusKeyword: "NEGOTIATION_COMPLETE",
			Temperature:      0.7,
			MaxTokens:        2048,
			MaxToolRounds:    5,
			EventBuffer:      64,
		},
		League: LeagueConfig{
			SalaryCap:         rules.SalaryCap,
			RosterMin:         rules.RosterMin,
			RosterMax:         rules.RosterMax,
			BudgetFloor:       rules.BudgetFloor,
			BudgetCeiling:     rules.BudgetCeiling,
			PositionThreshold: rules.PositionThreshold,
		},
		Storage: StorageConfig{
			DBPath: state.DefaultDBPath(),
		},
		Rosters: RostersConfig{
			Path: "rosters.yaml",
		},
	}
}

// getUserConfigDir returns the XDG config directory for dealroom.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "dealroom")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "dealroom")
	}
	return filepath.Join(home, ".config", "dealroom")
}

// findProjectConfig searches for .dealroom.yaml in the current directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ".dealroom.yaml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}

// expandPath expands ${VAR} references and a leading ~/.
func expandPath(p string) string {
	p = os.ExpandEnv(p)
	if len(p) >= 2 && p[:2] == "~/" {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, p[2:])
		}
	}
	return p
}
