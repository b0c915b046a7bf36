package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/tphakala/speciesnet-go/internal/conf"
)

// Command creates a new cobra.Command for writing the current configuration
// to disk, useful for bootstrapping a config file with all defaults filled in.
func Command(settings *conf.Settings) *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Write the current configuration to a file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if path == "" {
				configDir, err := os.UserConfigDir()
				if err != nil {
					return fmt.Errorf("cannot determine config directory: %w", err)
				}
				path = filepath.Join(configDir, "speciesnet-go", "config.yaml")
			}
			if err := conf.Save(settings, path); err != nil {
				return err
			}
			fmt.Printf("Configuration written to %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&path, "file", "f", "", "Target config file path")

	return cmd
}
