// Package harness provides conformance testing for crush pipelines.
//
// The harness runs a scenario's pipelines through a fresh shell session in
// an isolated working directory, checks each step's expected outcome, then
// evaluates the scenario's assertions. The rendered transcript can be
// compared against a golden file.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	format: text            # or json
//	vars:
//	  limit: 10
//	files:
//	  data.csv: |
//	    a,1
//	steps:
//	  - run: csv file=data.csv name=text n=integer | where n > $limit
//	  - run: set missing=1
//	    error: unknown variable
//	assertions:
//	  - type: output_contains
//	    text: "a"
//	  - type: row_errors
//	    count: 0
//
// A step without error must succeed. A step with error must fail with a
// message containing that text.
//
// # Assertion Types
//
//   - output_contains: the rendered output contains text
//   - output_lacks: the rendered output does not contain text
//   - row_errors: exactly count rows were reported and skipped
//   - spawned: exactly count Run jobs were started
//
// # Deterministic Testing
//
// Job IDs and history IDs come from sequence generators, files are written
// fresh into a temporary directory, and each step's output is captured
// separately, so the transcript is identical across runs.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/where.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, e := range result.Errors {
//	        log.Println(e)
//	    }
//	}
package harness
