//go:build !integration

package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		name string
		in   time.Duration
		want string
	}{
		{"nanoseconds", 500 * time.Nanosecond, "500ns"},
		{"microseconds", 250 * time.Microsecond, "250µs"},
		{"milliseconds", 12 * time.Millisecond, "12ms"},
		{"seconds", 1500 * time.Millisecond, "1.5s"},
		{"minutes", 90 * time.Second, "1.5m"},
		{"zero", 0, "0ns"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatDuration(tt.in))
		})
	}
}
