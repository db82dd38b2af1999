package main

import "sync"

// Status is the verdict recorded for one counted command.
type Status string

const (
	StatusOK   Status = "ok"
	StatusFail Status = "fail"
	StatusSkip Status = "skip"
)

// CommandResult holds the structured result for a single counted command.
type CommandResult struct {
	Suite     string    `json:"suite"`
	Location  string    `json:"location"`
	Call      string    `json:"call,omitempty"`
	Status    Status    `json:"status"`
	Expected  string    `json:"expected,omitempty"`
	Actual    string    `json:"actual,omitempty"`
	Command   []string  `json:"command,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	ErrorKind ErrorKind `json:"error_kind,omitempty"`
}

// Counts are the four aggregate counters of a run or suite.
type Counts struct {
	Total      int `json:"total"`
	Skipped    int `json:"skipped"`
	Failed     int `json:"failed"`
	Successful int `json:"successful"`
}

func (c *Counts) add(status Status) {
	c.Total++
	switch status {
	case StatusOK:
		c.Successful++
	case StatusFail:
		c.Failed++
	case StatusSkip:
		c.Skipped++
	}
}

// SuiteReport holds the results of replaying one suite.
type SuiteReport struct {
	Name       string          `json:"name"`
	SourceFile string          `json:"source_file,omitempty"`
	Error      string          `json:"error,omitempty"`
	Counts     Counts          `json:"counts"`
	Results    []CommandResult `json:"results"`
}

func (s *SuiteReport) record(result CommandResult) {
	s.Counts.add(result.Status)
	s.Results = append(s.Results, result)
}

// RunReport holds the complete report for a run.
type RunReport struct {
	Counts
	Suites []SuiteReport `json:"suites"`
}

// RunState accumulates the run counters. Each Record updates total and one
// outcome counter together, so total == skipped + failed + successful holds
// for every observer, including suites replayed in parallel.
type RunState struct {
	mu     sync.Mutex
	counts Counts
}

// Record counts one command outcome.
func (s *RunState) Record(status Status) {
	s.mu.Lock()
	s.counts.add(status)
	s.mu.Unlock()
}

// Counts returns a snapshot of the counters.
func (s *RunState) Counts() Counts {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts
}
