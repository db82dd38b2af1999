package main

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Runner replays suites against an interpreter and records verdicts.
type Runner struct {
	Loader      SuiteLoader
	Invoker     Invoker
	Adjudicator Adjudicator
	Reporter    *Reporter
	// SkipSuites names suites whose counted commands are all skipped
	// without invoking the interpreter.
	SkipSuites map[string]bool
	// Jobs bounds how many suites are replayed concurrently.
	Jobs int

	state *RunState
}

// SelectSuites returns the discovered suites included by filter, in discovery
// order, and the filter entries that matched nothing. An empty filter selects
// every suite.
func SelectSuites(discovered, filter []string) (selected, missing []string) {
	if len(filter) == 0 {
		return discovered, nil
	}
	want := make(map[string]bool, len(filter))
	for _, name := range filter {
		want[name] = true
	}
	found := make(map[string]bool, len(filter))
	for _, name := range discovered {
		if want[name] {
			selected = append(selected, name)
			found[name] = true
		}
	}
	for _, name := range filter {
		if !found[name] {
			missing = append(missing, name)
			found[name] = true
		}
	}
	return selected, missing
}

// Run replays the selected suites and returns the report. Per-suite errors
// are recorded in the report and never abort the run.
func (r *Runner) Run(ctx context.Context, filter []string) (*RunReport, error) {
	r.state = &RunState{}

	discovered, err := r.Loader.ListSuiteNames()
	if err != nil {
		return nil, err
	}
	selected, missing := SelectSuites(discovered, filter)

	report := &RunReport{Suites: make([]SuiteReport, 0, len(selected)+len(missing))}
	for _, name := range missing {
		herr := &HarnessError{Kind: KindSuiteNotFound, Suite: name, Message: "no test script in " + r.Loader.TestDir}
		r.Reporter.SuiteError(name, herr)
		report.Suites = append(report.Suites, SuiteReport{Name: name, Error: herr.Error()})
	}

	if r.Jobs <= 1 {
		for _, name := range selected {
			report.Suites = append(report.Suites, r.runSuite(ctx, name, r.Reporter.Result))
		}
	} else {
		report.Suites = append(report.Suites, r.runParallel(ctx, selected)...)
	}

	report.Counts = r.state.Counts()
	return report, nil
}

// runParallel replays suites on up to Jobs goroutines and reports each suite
// as soon as it and all suites before it have finished.
func (r *Runner) runParallel(ctx context.Context, names []string) []SuiteReport {
	reports := make([]SuiteReport, len(names))
	done := make([]chan struct{}, len(names))
	for i := range done {
		done[i] = make(chan struct{})
	}

	var g errgroup.Group
	g.SetLimit(r.Jobs)
	go func() {
		for i, name := range names {
			g.Go(func() error {
				defer close(done[i])
				reports[i] = r.runSuite(ctx, name, nil)
				return nil
			})
		}
	}()

	for i := range names {
		<-done[i]
		if reports[i].Error != "" {
			r.Reporter.SuiteError(reports[i].Name, errors.New(reports[i].Error))
			continue
		}
		for _, result := range reports[i].Results {
			r.Reporter.Result(result)
		}
	}
	_ = g.Wait()
	return reports
}

// runSuite replays one suite in command order. current module is local to the
// suite. emit, when set, receives each result as soon as it is recorded.
func (r *Runner) runSuite(ctx context.Context, name string, emit func(CommandResult)) SuiteReport {
	report := SuiteReport{Name: name, Results: []CommandResult{}}

	suite, err := r.Loader.LoadCommands(name)
	if err != nil {
		report.Error = err.Error()
		if emit != nil {
			r.Reporter.SuiteError(name, err)
		}
		return report
	}
	report.SourceFile = suite.SourceFilename

	currentModule := ""
	for _, command := range suite.Commands {
		if module, ok := command.(*ModuleCommand); ok {
			currentModule = module.Filename
			continue
		}

		result := r.runCommand(ctx, name, suite.SourceFilename, currentModule, command)
		r.state.Record(result.Status)
		report.record(result)
		if emit != nil {
			emit(result)
		}
	}
	return report
}

// runCommand adjudicates one counted command. It never panics: a panic is
// recorded as a failure of that command.
func (r *Runner) runCommand(ctx context.Context, suiteName, source, currentModule string, command Command) (result CommandResult) {
	result = CommandResult{
		Suite:    suiteName,
		Location: fmt.Sprintf("%s:%d", source, command.CommandLine()),
	}

	defer func() {
		if rec := recover(); rec != nil {
			result.Status = StatusFail
			result.Reason = fmt.Sprintf("panic recovered: %v", rec)
		}
	}()

	if r.SkipSuites[suiteName] {
		result.Status = StatusSkip
		result.Reason = "Skipping test due to exclude " + suiteName
		return result
	}

	var action Action
	switch c := command.(type) {
	case *AssertReturnCommand:
		action = c.Action
	case *AssertNaNCommand:
		action = c.Action
	case *UnsupportedCommand:
		result.Status = StatusSkip
		result.ErrorKind = KindUnsupportedCommand
		result.Reason = fmt.Sprintf("Skipping test with command type %s (%s)", c.RawType, c.Raw)
		return result
	default:
		result.Status = StatusSkip
		result.ErrorKind = KindUnsupportedCommand
		result.Reason = fmt.Sprintf("Skipping test with command type %T", command)
		return result
	}

	if action.Kind != ActionInvoke {
		result.Status = StatusSkip
		result.ErrorKind = KindUnsupportedAction
		result.Reason = fmt.Sprintf("Skipping test with action type %s (%s)", action.RawType, action.Raw)
		return result
	}

	result.Call = FormatCall(action.Field, action.Args)
	if currentModule == "" {
		result.Status = StatusFail
		result.ErrorKind = KindNoModule
		result.Reason = "no module loaded"
		return result
	}

	out := r.Invoker.Invoke(ctx, Invocation{
		ModulePath: r.Loader.ModulePath(suiteName, currentModule),
		Function:   action.Field,
		Args:       action.Args,
	})
	result.Command = out.Argv

	var verdict Verdict
	switch c := command.(type) {
	case *AssertReturnCommand:
		verdict = r.Adjudicator.AssertReturn(c.Expected, out)
	case *AssertNaNCommand:
		verdict = r.Adjudicator.AssertNaN(c.Kind, out)
	}

	result.Expected = verdict.Expected
	result.Actual = verdict.Actual
	result.ErrorKind = verdict.Kind
	if verdict.Passed {
		result.Status = StatusOK
	} else {
		result.Status = StatusFail
	}
	return result
}
