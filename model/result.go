package model

import "time"

// Status classifies the outcome of one test case.
type Status string

const (
	// StatusPass means the program's verdict matched the expected validity.
	StatusPass Status = "pass"
	// StatusFail means the program returned a well-formed verdict that
	// disagreed with the expected validity.
	StatusFail Status = "fail"
	// StatusError means no usable verdict was obtained: launch failure,
	// timeout, or a violation of the verdict protocol.
	StatusError Status = "error"
)

// Result is the evaluated outcome of one test case execution. Results are
// handed to the reporter as soon as they are produced; there is no
// persistent store.
type Result struct {
	// Case that was executed
	Case TestCase `json:"case"`
	// Verdict classification
	Status Status `json:"status"`
	// Detail text: the program's own message for pass/fail verdicts, the
	// failure reason for error verdicts
	Message string `json:"message,omitempty"`
	// Stderr captured from the program under test, attached for diagnostics
	// regardless of status
	Stderr string `json:"stderr,omitempty"`
	// Exit code of the program under test; meaningful only when it launched
	ExitCode int `json:"exit_code"`
	// Wall-clock execution time of the program under test
	Duration time.Duration `json:"duration"`
}

// Tally aggregates verdict counts for a run or a subset of one.
type Tally struct {
	Pass  int `json:"pass"`
	Fail  int `json:"fail"`
	Error int `json:"error"`
}

// Add counts one result.
func (t *Tally) Add(r Result) {
	switch r.Status {
	case StatusPass:
		t.Pass++
	case StatusFail:
		t.Fail++
	case StatusError:
		t.Error++
	}
}

// Total returns the number of counted results.
func (t *Tally) Total() int {
	return t.Pass + t.Fail + t.Error
}
