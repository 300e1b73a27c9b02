package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/crush/internal/printer"
)

// Scenario defines a conformance test scenario: a sequence of pipelines run
// in one session, with expectations on each step and on the whole run.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Format is the printer format, "text" (default) or "json".
	Format string `yaml:"format,omitempty"`

	// Vars are bound with let before the first step.
	Vars map[string]any `yaml:"vars,omitempty"`

	// Files are written into the scenario's working directory before the
	// first step. Keys are relative slash-separated paths.
	Files map[string]string `yaml:"files,omitempty"`

	// History enables the history store in the scenario directory.
	History bool `yaml:"history,omitempty"`

	// Steps are run in order in one session.
	Steps []Step `yaml:"steps"`

	// Assertions validate the run as a whole.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step is one pipeline.
type Step struct {
	// Run is the pipeline source.
	Run string `yaml:"run"`

	// Error, when set, means the pipeline must fail with a message
	// containing this text.
	Error string `yaml:"error,omitempty"`
}

// Assertion validates the completed run.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Text is used by output_contains and output_lacks.
	Text string `yaml:"text,omitempty"`

	// Count is used by row_errors and spawned.
	Count int `yaml:"count"`
}

// Assertion type constants.
const (
	AssertOutputContains = "output_contains"
	AssertOutputLacks    = "output_lacks"
	AssertRowErrors      = "row_errors"
	AssertSpawned        = "spawned"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "step:" vs "steps:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if strings.ContainsAny(s.Name, `/\ `) {
		return fmt.Errorf("name %q must not contain path separators or spaces", s.Name)
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	switch s.Format {
	case "":
		s.Format = printer.FormatText
	case printer.FormatText, printer.FormatJSON:
	default:
		return fmt.Errorf("format %q: must be text or json", s.Format)
	}

	for name := range s.Files {
		if filepath.IsAbs(name) || !filepath.IsLocal(filepath.FromSlash(name)) {
			return fmt.Errorf("files: %q must be a relative path inside the scenario directory", name)
		}
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	for i, step := range s.Steps {
		if strings.TrimSpace(step.Run) == "" {
			return fmt.Errorf("steps[%d]: run is required", i)
		}
	}

	for i, a := range s.Assertions {
		switch a.Type {
		case AssertOutputContains, AssertOutputLacks:
			if a.Text == "" {
				return fmt.Errorf("assertions[%d]: %s requires text", i, a.Type)
			}
		case AssertRowErrors, AssertSpawned:
			if a.Count < 0 {
				return fmt.Errorf("assertions[%d]: count must be >= 0", i)
			}
		case "":
			return fmt.Errorf("assertions[%d]: type is required", i)
		default:
			return fmt.Errorf("assertions[%d]: unknown type %q", i, a.Type)
		}
	}
	return nil
}
