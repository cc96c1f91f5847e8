package envutil

import (
	"os"
	"strconv"
	"strings"

	"github.com/scanwf/scanwf/pkg/logger"
)

// GetIntFromEnv reads an integer from envVar, falling back to defaultValue when
// the variable is unset, unparsable, or outside [minValue, maxValue].
// log may be nil.
func GetIntFromEnv(envVar string, defaultValue, minValue, maxValue int, log *logger.Logger) int {
	raw := os.Getenv(envVar)
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		if log != nil {
			log.Printf("Invalid %s=%q, using default %d: %v", envVar, raw, defaultValue, err)
		}
		return defaultValue
	}
	if v < minValue || v > maxValue {
		if log != nil {
			log.Printf("%s=%d out of range [%d, %d], using default %d", envVar, v, minValue, maxValue, defaultValue)
		}
		return defaultValue
	}
	if log != nil {
		log.Printf("Using %s=%d", envVar, v)
	}
	return v
}

// GetBoolFromEnv reads a boolean switch. "1", "true", "yes" and "on" (any case)
// are true, "0", "false", "no" and "off" are false, anything else yields defaultValue.
func GetBoolFromEnv(envVar string, defaultValue bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(envVar))) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return defaultValue
	}
}
