//go:build !integration

package envutil

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/scanwf/scanwf/pkg/logger"
)

func TestGetIntFromEnv(t *testing.T) {
	const testEnvVar = "SCANWF_TEST_INT_VALUE"

	tests := []struct {
		name         string
		envValue     string
		defaultValue int
		minValue     int
		maxValue     int
		expected     int
	}{
		{"default when unset", "", 10, 1, 100, 10},
		{"valid value within range", "50", 10, 1, 100, 50},
		{"valid value at minimum", "1", 10, 1, 100, 1},
		{"valid value at maximum", "100", 10, 1, 100, 100},
		{"below minimum uses default", "0", 10, 1, 100, 10},
		{"above maximum uses default", "101", 10, 1, 100, 10},
		{"not a number", "abc", 10, 1, 100, 10},
		{"whitespace is not trimmed", " 50 ", 10, 1, 100, 10},
		{"leading zeros", "0050", 10, 1, 100, 50},
		{"plus sign prefix", "+50", 10, 1, 100, 50},
		{"float value", "50.5", 10, 1, 100, 10},
		{"hex value", "0x32", 10, 1, 100, 10},
		{"min equals max", "5", 1, 5, 5, 5},
		{"negative range", "-10", 0, -20, -5, -10},
	}

	log := logger.New("test:envutil")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(testEnvVar, tt.envValue)
			assert.Equal(t, tt.expected, GetIntFromEnv(testEnvVar, tt.defaultValue, tt.minValue, tt.maxValue, log))
		})
	}
}

func TestGetIntFromEnv_WithoutLogger(t *testing.T) {
	t.Setenv("SCANWF_TEST_INT_NO_LOG", "42")
	assert.Equal(t, 42, GetIntFromEnv("SCANWF_TEST_INT_NO_LOG", 10, 1, 100, nil))
}

func TestGetBoolFromEnv(t *testing.T) {
	const testEnvVar = "SCANWF_TEST_BOOL"
	tests := []struct {
		value string
		def   bool
		want  bool
	}{
		{"", true, true},
		{"", false, false},
		{"1", false, true},
		{"TRUE", false, true},
		{"yes", false, true},
		{"off", true, false},
		{"0", true, false},
		{"maybe", true, true},
	}
	for _, tt := range tests {
		t.Setenv(testEnvVar, tt.value)
		assert.Equal(t, tt.want, GetBoolFromEnv(testEnvVar, tt.def), "value %q", tt.value)
	}
}
