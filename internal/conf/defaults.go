// conf/defaults.go default values for settings
package conf

import (
	"github.com/spf13/viper"
)

// Error policy values for the consecutive-failure circuit breaker.
const (
	ErrorPolicyAllFailures = "all-failures" // empty detections count toward the breaker
	ErrorPolicyBackendOnly = "backend-only" // only backend call failures count
)

// Run mode values passed through to the SpeciesNet runner.
const (
	RunModeMultiThread = "multi_thread"
	RunModeMultiProc   = "multi_process"
)

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("main.name", "SpeciesNet-Go")
	viper.SetDefault("main.log.enabled", true)
	viper.SetDefault("main.log.path", "speciesnet.log")

	viper.SetDefault("speciesnet.command", "python3 -m speciesnet.scripts.run_model")
	viper.SetDefault("speciesnet.threshold", 0.3)
	viper.SetDefault("speciesnet.batchsize", 32)
	viper.SetDefault("speciesnet.country", "JPN")
	viper.SetDefault("speciesnet.timeout", 300)
	viper.SetDefault("speciesnet.runmode", RunModeMultiThread)

	viper.SetDefault("processing.maxworkers", 4)
	viper.SetDefault("processing.gcinterval", 100)
	viper.SetDefault("processing.saveinterval", 100)
	viper.SetDefault("processing.consecutiveerrorlimit", 3)
	viper.SetDefault("processing.consecutiveerrorpolicy", ErrorPolicyAllFailures)

	viper.SetDefault("input.path", "")
	viper.SetDefault("input.recursive", true)

	viper.SetDefault("output.path", "")
	viper.SetDefault("output.sqlite.enabled", false)
	viper.SetDefault("output.sqlite.path", "speciesnet.db")
	viper.SetDefault("output.organize.enabled", false)
	viper.SetDefault("output.organize.copy", true)
}
