// Package types holds small value types shared by the validators.
package types

// Severity classifies a finding. Only SeverityError blocks a save.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Blocking reports whether a finding of this severity prevents persisting a document.
func (s Severity) Blocking() bool {
	return s == SeverityError
}

func (s Severity) String() string {
	return string(s)
}
