package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/fatih/color"

	"github.com/ShayCichocki/dealroom/internal/agent"
	"github.com/ShayCichocki/dealroom/internal/api"
	"github.com/ShayCichocki/dealroom/internal/config"
	"github.com/ShayCichocki/dealroom/internal/roster"
	"github.com/ShayCichocki/dealroom/internal/state"
)

// loadConfig honors --config, falling back to the layered lookup.
func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFromPath(configPath)
	}
	return config.Load()
}

// openStore opens the session database and applies migrations.
func openStore(cfg *config.Config) (*state.DB, error) {
	db, err := state.OpenAndMigrate(cfg.Storage.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open session database: %w", err)
	}
	return db, nil
}

// backends holds what buildAgentConfig created, for reporting.
type backends struct {
	primary *api.AnthropicBackend
	local   *api.OllamaBackend
}

// buildAgentConfig wires the reasoning backends and tools shared by every
// agent. A missing credential is not an error: the runtime reports it per
// reply and falls back to the local backend when one is configured.
func buildAgentConfig(cfg *config.Config, rosters roster.Source) (agent.Config, backends, error) {
	temperature := cfg.Negotiation.Temperature
	base := agent.Config{
		PrimaryTimeout: cfg.Anthropic.Timeout,
		LocalTimeout:   cfg.Local.Timeout,
		Tools:          api.ToolDefinitions(),
		Executor:       api.NewToolExecutor(rosters, cfg.League.Rules()),
		Temperature:    &temperature,
		MaxTokens:      cfg.Negotiation.MaxTokens,
	}

	var b backends
	if config.HasPrimaryCredential(cfg) {
		key, _ := config.GetAPIKey(cfg)
		if !cfg.Anthropic.UseBedrock {
			if err := config.ValidateAPIKey(key); err != nil {
				log.Printf("[config] warning: %v", err)
			}
		}
		client, err := api.NewClient(api.ClientConfig{
			Model:          anthropic.Model(cfg.Anthropic.Model),
			APIKey:         key,
			UseAWSBedrock:  cfg.Anthropic.UseBedrock,
			AWSRegion:      cfg.Anthropic.AWSRegion,
			AWSProfile:     cfg.Anthropic.AWSProfile,
			RequestTimeout: cfg.Anthropic.Timeout,
		})
		if err != nil {
			return agent.Config{}, b, fmt.Errorf("create API client: %w", err)
		}
		b.primary = api.NewAnthropicBackend(client)
		base.Primary = b.primary
	}

	if cfg.Local.Endpoint != "" {
		b.local = api.NewOllamaBackend(&http.Client{}, cfg.Local.Endpoint, cfg.Local.Model)
		base.Local = b.local
	}

	return base, b, nil
}

// printStatus prints a status line with color
func printStatus(symbol, message string, colorAttr color.Attribute) {
	c := color.New(colorAttr)
	fmt.Printf("%s %s\n", c.Sprint(symbol), message)
}
