package harness

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/rwtracker/internal/model"
	"github.com/roach88/rwtracker/internal/store"
)

// AssertionContext gives assertions access to the scenario's final state.
type AssertionContext struct {
	Store   *store.Store
	Ctx     context.Context
	Parties map[string]model.Party
}

// AssertionError is returned when an assertion fails.
// It includes the full trace to help debug the failure.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Trace    []TraceEvent
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for i, event := range e.Trace {
		fmt.Fprintf(&buf, "  [%d] %s %q %s (%s)\n", i+1, event.Party, event.Term, event.Published, event.Field)
	}

	return buf.String()
}

// EvaluateAssertions runs every assertion and returns the failure messages.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errs []string
	for _, a := range assertions {
		if err := evaluateAssertion(result, a, actx); err != nil {
			errs = append(errs, err.Error())
		}
	}
	return errs
}

func evaluateAssertion(result *Result, a Assertion, actx *AssertionContext) error {
	switch a.Type {
	case AssertMatchContains:
		return assertMatchContains(result, a)
	case AssertMatchCount:
		return assertMatchCount(result, a)
	case AssertDecisionExists:
		return assertDecision(result, a, actx, true)
	case AssertNoDecision:
		return assertDecision(result, a, actx, false)
	case AssertDecisionCount:
		return assertDecisionCount(result, a, actx)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

// selectRuns returns the matches of run n, or of every run when n is 0.
func selectRuns(result *Result, n int) []TraceEvent {
	if n == 0 {
		return result.Trace()
	}
	for _, run := range result.Runs {
		if run.Run == n {
			return run.Matches
		}
	}
	return nil
}

func assertMatchContains(result *Result, a Assertion) error {
	for _, ev := range selectRuns(result, a.Run) {
		if ev.Party == a.Party && ev.Term == a.Term && ev.Published == a.Published &&
			(a.Field == "" || ev.Field == a.Field) {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertMatchContains,
		Expected: fmt.Sprintf("%s %q %s in %s", a.Party, a.Term, a.Published, runLabel(a.Run)),
		Actual:   "not found in trace",
		Trace:    result.Trace(),
	}
}

func assertMatchCount(result *Result, a Assertion) error {
	got := len(selectRuns(result, a.Run))
	if got == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertMatchCount,
		Expected: fmt.Sprintf("%d matches in %s", a.Count, runLabel(a.Run)),
		Actual:   fmt.Sprintf("%d matches", got),
		Trace:    result.Trace(),
	}
}

func assertDecision(result *Result, a Assertion, actx *AssertionContext, want bool) error {
	party, ok := actx.Parties[a.Party]
	if !ok {
		return fmt.Errorf("%s: unknown party %q", a.Type, a.Party)
	}
	got, err := actx.Store.HasDecision(actx.Ctx, a.Published, a.Term, party.ID)
	if err != nil {
		return fmt.Errorf("%s: %w", a.Type, err)
	}
	if got == want {
		return nil
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: fmt.Sprintf("decision %s %q %s present=%t", a.Party, a.Term, a.Published, want),
		Actual:   fmt.Sprintf("present=%t", got),
		Trace:    result.Trace(),
	}
}

func assertDecisionCount(result *Result, a Assertion, actx *AssertionContext) error {
	decisions, err := actx.Store.ListDecisions(actx.Ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", a.Type, err)
	}
	if len(decisions) == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertDecisionCount,
		Expected: fmt.Sprintf("%d decisions", a.Count),
		Actual:   fmt.Sprintf("%d decisions", len(decisions)),
		Trace:    result.Trace(),
	}
}

func runLabel(n int) string {
	if n == 0 {
		return "any run"
	}
	return fmt.Sprintf("run %d", n)
}
