// conf/validate.go settings validation
package conf

import (
	"fmt"
	"strings"
)

// ValidateSettings checks settings for values that would break a run and
// normalizes fields where a forgiving interpretation exists.
func ValidateSettings(s *Settings) error {
	if s.SpeciesNet.Threshold < 0.0 || s.SpeciesNet.Threshold > 1.0 {
		return fmt.Errorf("speciesnet.threshold must be between 0.0 and 1.0, got %f", s.SpeciesNet.Threshold)
	}

	if s.SpeciesNet.BatchSize < 1 {
		return fmt.Errorf("speciesnet.batchsize must be at least 1, got %d", s.SpeciesNet.BatchSize)
	}

	if s.SpeciesNet.Timeout < 1 {
		return fmt.Errorf("speciesnet.timeout must be at least 1 second, got %d", s.SpeciesNet.Timeout)
	}

	if strings.TrimSpace(s.SpeciesNet.Command) == "" {
		return fmt.Errorf("speciesnet.command must not be empty")
	}

	if s.Processing.SaveInterval < 1 {
		return fmt.Errorf("processing.saveinterval must be at least 1, got %d", s.Processing.SaveInterval)
	}

	if s.Processing.ConsecutiveErrorLimit < 1 {
		return fmt.Errorf("processing.consecutiveerrorlimit must be at least 1, got %d", s.Processing.ConsecutiveErrorLimit)
	}

	switch s.Processing.ConsecutiveErrorPolicy {
	case ErrorPolicyAllFailures, ErrorPolicyBackendOnly:
	case "":
		s.Processing.ConsecutiveErrorPolicy = ErrorPolicyAllFailures
	default:
		return fmt.Errorf("processing.consecutiveerrorpolicy must be %q or %q, got %q",
			ErrorPolicyAllFailures, ErrorPolicyBackendOnly, s.Processing.ConsecutiveErrorPolicy)
	}

	if s.Processing.MaxWorkers < 1 {
		s.Processing.MaxWorkers = 1
	}

	// An empty country means no region filter; normalize the sentinel.
	if strings.EqualFold(s.SpeciesNet.Country, "none") {
		s.SpeciesNet.Country = ""
	}

	return nil
}
