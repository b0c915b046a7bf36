package folder

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tphakala/speciesnet-go/internal/analysis"
	"github.com/tphakala/speciesnet-go/internal/conf"
)

// Command creates a new cobra.Command for folder processing.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "folder [path]",
		Short: "Detect species in all images in a folder",
		Long:  "Provide a folder path to run species detection on every supported image within it.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings.Input.Path = args[0]
			return analysis.FolderAnalysis(settings)
		},
	}

	setupFlags(cmd, settings)

	return cmd
}

// setupFlags defines flags specific to the folder command.
func setupFlags(cmd *cobra.Command, settings *conf.Settings) {
	cmd.Flags().BoolVarP(&settings.Input.Recursive, "recursive", "r", viper.GetBool("input.recursive"), "Recursively scan subdirectories")
	cmd.Flags().StringVarP(&settings.Output.Path, "output", "o", viper.GetString("output.path"), "Path to output directory")
	cmd.Flags().BoolVar(&settings.Output.Organize.Enabled, "organize", viper.GetBool("output.organize.enabled"), "Organize processed images into species folders")
	cmd.Flags().BoolVar(&settings.Output.Organize.Copy, "copy", viper.GetBool("output.organize.copy"), "Copy files when organizing instead of moving them")
	cmd.Flags().BoolVar(&settings.Output.SQLite.Enabled, "sqlite", viper.GetBool("output.sqlite.enabled"), "Also save detections to the SQLite database")

	_ = viper.BindPFlags(cmd.Flags())
}
