// This file provides error aggregation for configuration checks and batch
// validation, so users see every problem in one run instead of one at a time.
//
//	collector := NewErrorCollector(failFast)
//	for _, f := range files {
//	    if err := check(f); err != nil {
//	        if returnErr := collector.Add(err); returnErr != nil {
//	            return returnErr // fail-fast mode
//	        }
//	    }
//	}
//	return collector.Error()
//
// With failFast the first error is returned from Add. Otherwise errors are
// kept and joined with errors.Join.

package workflow

import (
	"errors"
	"fmt"
	"strings"

	"github.com/scanwf/scanwf/pkg/logger"
)

var errorAggregationLog = logger.New("workflow:error_aggregation")

// ErrorCollector collects multiple validation errors
type ErrorCollector struct {
	errors   []error
	failFast bool
}

// NewErrorCollector creates a new error collector.
// If failFast is true, Add returns the first error instead of storing it.
func NewErrorCollector(failFast bool) *ErrorCollector {
	return &ErrorCollector{failFast: failFast}
}

// Add records err. In fail-fast mode it returns err immediately; nil errors are ignored.
func (c *ErrorCollector) Add(err error) error {
	if err == nil {
		return nil
	}
	if c.failFast {
		errorAggregationLog.Printf("Fail-fast on: %v", err)
		return err
	}
	c.errors = append(c.errors, err)
	return nil
}

// HasErrors returns true if any errors have been collected
func (c *ErrorCollector) HasErrors() bool {
	return len(c.errors) > 0
}

// Count returns the number of errors collected
func (c *ErrorCollector) Count() int {
	return len(c.errors)
}

// Errors returns the collected errors in insertion order.
func (c *ErrorCollector) Errors() []error {
	return c.errors
}

// Error returns the collected errors joined with errors.Join, or nil.
func (c *ErrorCollector) Error() error {
	switch len(c.errors) {
	case 0:
		return nil
	case 1:
		return c.errors[0]
	default:
		return errors.Join(c.errors...)
	}
}

// FormattedError is like Error but prefixes multiple errors with a count
// header and renders them as a bullet list.
func (c *ErrorCollector) FormattedError(category string) error {
	if len(c.errors) <= 1 {
		return c.Error()
	}
	errorAggregationLog.Printf("Formatting %d %s errors", len(c.errors), category)

	var sb strings.Builder
	fmt.Fprintf(&sb, "found %d %s errors:", len(c.errors), category)
	for _, err := range c.errors {
		sb.WriteString("\n  • ")
		sb.WriteString(err.Error())
	}
	return &aggregatedError{msg: sb.String(), errs: c.errors}
}

// aggregatedError keeps the individual errors reachable through errors.Is/As.
type aggregatedError struct {
	msg  string
	errs []error
}

func (e *aggregatedError) Error() string   { return e.msg }
func (e *aggregatedError) Unwrap() []error { return e.errs }
