package organize

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tphakala/speciesnet-go/internal/analysis"
	"github.com/tphakala/speciesnet-go/internal/conf"
)

// Command creates a new cobra.Command for organizing images from an existing
// results file.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "organize [results.csv]",
		Short: "Organize images into species folders from a results file",
		Long:  "Provide a detection results CSV to file the listed images into per-species folders.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return analysis.OrganizeResults(settings, args[0])
		},
	}

	setupFlags(cmd, settings)

	return cmd
}

// setupFlags defines flags specific to the organize command.
func setupFlags(cmd *cobra.Command, settings *conf.Settings) {
	cmd.Flags().StringVarP(&settings.Output.Path, "output", "o", viper.GetString("output.path"), "Path to output directory")
	cmd.Flags().BoolVar(&settings.Output.Organize.Copy, "copy", viper.GetBool("output.organize.copy"), "Copy files instead of moving them")

	_ = viper.BindPFlags(cmd.Flags())
}
