package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tphakala/speciesnet-go/cmd/config"
	"github.com/tphakala/speciesnet-go/cmd/folder"
	"github.com/tphakala/speciesnet-go/cmd/organize"
	"github.com/tphakala/speciesnet-go/internal/conf"
)

// RootCommand creates and returns the root command
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "speciesnet",
		Short: "SpeciesNet wildlife detection CLI",
	}

	// Set up the global flags for the root command.
	setupFlags(rootCmd, settings)

	subcommands := []*cobra.Command{
		folder.Command(settings),
		organize.Command(settings),
		config.Command(settings),
	}

	rootCmd.AddCommand(subcommands...)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if err := cmd.Flags().Parse(args); err != nil {
			return err
		}
		// Re-validate after flags have overridden file and default values.
		return conf.ValidateSettings(settings)
	}

	return rootCmd
}

// setupFlags defines flags that are global to the command line interface
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) error {
	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", viper.GetBool("debug"), "Enable debug output")
	rootCmd.PersistentFlags().Float64VarP(&settings.SpeciesNet.Threshold, "threshold", "t", viper.GetFloat64("speciesnet.threshold"), "Confidence threshold for detections, value between 0.0 and 1.0")
	rootCmd.PersistentFlags().IntVarP(&settings.SpeciesNet.BatchSize, "batch-size", "b", viper.GetInt("speciesnet.batchsize"), "Number of images per backend call")
	rootCmd.PersistentFlags().StringVarP(&settings.SpeciesNet.Country, "country", "c", viper.GetString("speciesnet.country"), "ISO country code used as a region filter, or 'none'")
	rootCmd.PersistentFlags().IntVar(&settings.SpeciesNet.Timeout, "timeout", viper.GetInt("speciesnet.timeout"), "Per-call backend timeout in seconds")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		return fmt.Errorf("error binding flags: %v", err)
	}

	return nil
}
