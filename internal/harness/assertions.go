package harness

import (
	"fmt"
	"strings"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	return fmt.Sprintf("assertion failed: %s: expected %s, got %s", e.Type, e.Expected, e.Actual)
}

// evaluateAssertion checks one assertion against a completed run.
func evaluateAssertion(result *Result, a Assertion) error {
	switch a.Type {
	case AssertOutputContains:
		if !strings.Contains(result.Output, a.Text) {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("output containing %q", a.Text),
				Actual:   fmt.Sprintf("%q", result.Output),
			}
		}
	case AssertOutputLacks:
		if strings.Contains(result.Output, a.Text) {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("output without %q", a.Text),
				Actual:   fmt.Sprintf("%q", result.Output),
			}
		}
	case AssertRowErrors:
		if result.RowErrors != a.Count {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("%d reported rows", a.Count),
				Actual:   fmt.Sprintf("%d", result.RowErrors),
			}
		}
	case AssertSpawned:
		if result.Spawned != int64(a.Count) {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("%d spawned jobs", a.Count),
				Actual:   fmt.Sprintf("%d", result.Spawned),
			}
		}
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}
