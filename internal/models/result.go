package models

import (
	"fmt"
	"time"
)

// Outcome is what happened to a library during assembly.
type Outcome string

const (
	OutcomeCopied         Outcome = "copied"
	OutcomeExcluded       Outcome = "excluded"
	OutcomeSkippedTooling Outcome = "skipped-tooling"
	OutcomeNothingToCopy  Outcome = "nothing-to-copy"
	OutcomeFailed         Outcome = "failed"
)

// IsValid checks if the outcome is known
func (o Outcome) IsValid() bool {
	switch o {
	case OutcomeCopied, OutcomeExcluded, OutcomeSkippedTooling, OutcomeNothingToCopy, OutcomeFailed:
		return true
	default:
		return false
	}
}

// String returns the string representation of Outcome
func (o Outcome) String() string {
	return string(o)
}

// Result records how one library was processed.
type Result struct {
	Library string  `json:"library"`
	Outcome Outcome `json:"outcome"`

	// ResourcesFrom and TestResourcesFrom hold the matched candidates,
	// empty when nothing was copied.
	ResourcesFrom     string `json:"resourcesFrom,omitempty"`
	TestResourcesFrom string `json:"testResourcesFrom,omitempty"`

	// Files is the number of files written into the staging tree.
	Files int `json:"files"`

	Warnings []string `json:"warnings,omitempty"`
	Error    string   `json:"error,omitempty"`
}

// Warn appends a formatted warning.
func (r *Result) Warn(format string, args ...interface{}) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Fail marks the result failed with err's message.
func (r *Result) Fail(err error) {
	r.Outcome = OutcomeFailed
	r.Error = err.Error()
}

// Report collects the results of one run, in manifest order.
type Report struct {
	RunID     string    `json:"runId"`
	Deploy    bool      `json:"deploy"`
	StartedAt time.Time `json:"startedAt"`
	Results   []*Result `json:"results"`

	// Deployed is set once the deploy tree has been assembled.
	Deployed bool `json:"deployed"`
}

// NewReport creates an empty report.
func NewReport(runID string, deploy bool, startedAt time.Time) *Report {
	return &Report{
		RunID:     runID,
		Deploy:    deploy,
		StartedAt: startedAt,
		Results:   []*Result{},
	}
}

// Add appends a result.
func (r *Report) Add(result *Result) {
	r.Results = append(r.Results, result)
}

// Get returns the result for a library, or nil.
func (r *Report) Get(library string) *Result {
	for _, res := range r.Results {
		if res.Library == library {
			return res
		}
	}
	return nil
}

// Count returns how many results have the given outcome.
func (r *Report) Count(outcome Outcome) int {
	n := 0
	for _, res := range r.Results {
		if res.Outcome == outcome {
			n++
		}
	}
	return n
}

// Failed returns the names of libraries that failed.
func (r *Report) Failed() []string {
	var names []string
	for _, res := range r.Results {
		if res.Outcome == OutcomeFailed {
			names = append(names, res.Library)
		}
	}
	return names
}

// WarningCount returns the total number of warnings across results.
func (r *Report) WarningCount() int {
	n := 0
	for _, res := range r.Results {
		n += len(res.Warnings)
	}
	return n
}
