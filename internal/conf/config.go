// config.go: settings struct for speciesnet-go and functions to load and save it.
package conf

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// LogConfig contains settings for application log files.
type LogConfig struct {
	Enabled bool   // true to enable file logging
	Path    string // path to log file
}

// MainSettings contains top level application settings.
type MainSettings struct {
	Name string    // name of the node running this instance
	Log  LogConfig // main log settings
}

// SpeciesNetSettings contains settings for the SpeciesNet backend.
type SpeciesNetSettings struct {
	Command   string  // command used to invoke the SpeciesNet model runner
	Threshold float64 // confidence threshold for reported detections, 0.0 to 1.0
	BatchSize int     // number of images submitted to the backend per call
	Country   string  // ISO country code used as a region filter, or "None"
	Timeout   int     // per-call backend timeout in seconds
	RunMode   string  // backend parallelism mode, passed through to the runner
}

// ProcessingSettings controls the streaming batch engine.
type ProcessingSettings struct {
	MaxWorkers             int    // worker count for the concurrent chunk variant
	GCInterval             int    // images between forced memory reclamation, 0 to disable
	SaveInterval           int    // buffered results per intermediate flush
	ConsecutiveErrorLimit  int    // consecutive failures before the run is aborted
	ConsecutiveErrorPolicy string // "all-failures" or "backend-only"
}

// InputSettings describes the image source.
type InputSettings struct {
	Path      string // root folder to scan for images
	Recursive bool   // true to recurse into subdirectories
}

// SQLiteSettings contains settings for the optional SQLite result sink.
type SQLiteSettings struct {
	Enabled bool   // true to also save detections to SQLite
	Path    string // path to database file
}

// OrganizeSettings controls post-run organization of images by species.
type OrganizeSettings struct {
	Enabled bool // true to organize processed images into species folders
	Copy    bool // true to copy files, false to move them
}

// OutputSettings describes where results are written.
type OutputSettings struct {
	Path     string // output directory for result files
	SQLite   SQLiteSettings
	Organize OrganizeSettings
}

// Settings is the root configuration struct. Every recognized option has an
// explicit default set in setDefaultConfig; nothing is looked up ad hoc.
type Settings struct {
	Debug bool

	Main       MainSettings
	SpeciesNet SpeciesNetSettings
	Processing ProcessingSettings
	Input      InputSettings
	Output     OutputSettings
}

// Load reads the configuration file (if any) and returns validated settings.
// A missing config file is not an error, defaults apply.
func Load() (*Settings, error) {
	setDefaultConfig()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	for _, path := range configPaths() {
		viper.AddConfigPath(path)
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	settings := &Settings{}
	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, err
	}

	return settings, nil
}

// Save writes the settings to the given path as YAML, creating the directory
// if needed.
func Save(settings *Settings, path string) error {
	if settings == nil {
		return fmt.Errorf("no settings to save")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory %s: %w", dir, err)
	}

	data, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}

	return nil
}

// configPaths returns the directories searched for a config file, in order.
func configPaths() []string {
	paths := []string{"."}
	if configDir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(configDir, "speciesnet-go"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "speciesnet-go"))
	}
	return paths
}
