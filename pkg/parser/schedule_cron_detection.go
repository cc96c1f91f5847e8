package parser

import (
	"regexp"
	"strings"

	"github.com/scanwf/scanwf/pkg/logger"
)

var scheduleCronLog = logger.New("parser:schedule_cron_detection")

var cronFieldPattern = regexp.MustCompile(`^[\d\*\-/,]+$`)

// IsCronExpression checks if the input looks like a valid cron expression
// A valid cron expression has exactly 5 fields (minute, hour, day of month, month, day of week)
func IsCronExpression(input string) bool {
	fields := strings.Fields(input)
	if len(fields) != 5 {
		scheduleCronLog.Printf("Invalid cron %q: expected 5 fields, got %d", input, len(fields))
		return false
	}
	for _, field := range fields {
		if !cronFieldPattern.MatchString(field) {
			scheduleCronLog.Printf("Invalid cron field: %s", field)
			return false
		}
	}
	return true
}

// IsDailyCron reports a fixed-time daily schedule such as "30 14 * * *".
func IsDailyCron(cron string) bool {
	fields := strings.Fields(cron)
	return len(fields) == 5 && isDigits(fields[0]) && isDigits(fields[1]) &&
		fields[2] == "*" && fields[3] == "*" && fields[4] == "*"
}

// IsHourlyCron reports an hourly interval with a fixed minute such as "0 */2 * * *".
func IsHourlyCron(cron string) bool {
	fields := strings.Fields(cron)
	return len(fields) == 5 && isDigits(fields[0]) && strings.HasPrefix(fields[1], "*/") &&
		fields[2] == "*" && fields[3] == "*" && fields[4] == "*"
}

// IsWeeklyCron reports a fixed-time weekly schedule such as "0 9 * * 1".
func IsWeeklyCron(cron string) bool {
	fields := strings.Fields(cron)
	if len(fields) != 5 || !isDigits(fields[0]) || !isDigits(fields[1]) || fields[2] != "*" || fields[3] != "*" {
		return false
	}
	dow := fields[4]
	return dow != "" && strings.Trim(dow, "0123456") == ""
}

// DescribeCron returns "daily", "hourly", "weekly" or "custom" for a valid
// expression and "" otherwise.
func DescribeCron(cron string) string {
	switch {
	case !IsCronExpression(cron):
		return ""
	case IsDailyCron(cron):
		return "daily"
	case IsHourlyCron(cron):
		return "hourly"
	case IsWeeklyCron(cron):
		return "weekly"
	default:
		return "custom"
	}
}

func isDigits(s string) bool {
	return s != "" && strings.Trim(s, "0123456789") == ""
}
