package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/dealroom/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Manage configuration",
	Long: `View or modify dealroom configuration.

Without arguments, displays current configuration.
With one argument (key), displays the value for that key.
With two arguments (key value), sets the configuration value.

Configuration is stored at ~/.config/dealroom/config.yaml
Project-specific overrides can be placed in .dealroom.yaml`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 2 {
			key := strings.ToLower(args[0])
			if err := config.SetUserValue(key, args[1]); err != nil {
				return err
			}
			fmt.Printf("Set %s = %s\n", key, args[1])
			return nil
		}

		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		settings := config.Settings(cfg)

		if len(args) == 1 {
			value, ok := settings[strings.ToLower(args[0])]
			if !ok {
				return fmt.Errorf("unknown configuration key: %s", args[0])
			}
			fmt.Println(value)
			return nil
		}

		keys := make([]string, 0, len(settings))
		for k := range settings {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Printf("%s: %v\n", k, settings[k])
		}
		fmt.Printf("\nprimary credential: %s\n", config.GetAPIKeySource(cfg))
		if p := config.GetProjectConfigPath(); p != "" {
			fmt.Printf("project config: %s\n", p)
		}
		fmt.Printf("user config: %s\n", config.GetUserConfigPath())
		return nil
	},
}
