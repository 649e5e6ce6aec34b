package harness

// TraceEvent is one newly discovered match.
type TraceEvent struct {
	Party     string `json:"party"`
	Term      string `json:"term"`
	Published string `json:"published"`
	Field     string `json:"field"`
}

// RunTrace records what one engine run saw and emitted.
type RunTrace struct {
	Run          int          `json:"run"`
	RunID        string       `json:"run_id"`
	RecordsAdded int          `json:"records_added"`
	TermsAdded   int          `json:"terms_added"`
	TermsSkipped int          `json:"terms_skipped"`
	Evaluated    int          `json:"evaluated"`
	Malformed    int          `json:"malformed"`
	Matches      []TraceEvent `json:"matches"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every expectation and assertion held.
	Pass bool `json:"pass"`

	// Runs holds one trace per engine run, in order.
	Runs []RunTrace `json:"runs"`

	// Errors contains expectation and assertion failures.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Runs:   []RunTrace{},
		Errors: []string{},
	}
}

// AddError adds a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Trace returns the matches of all runs, in order.
func (r *Result) Trace() []TraceEvent {
	events := []TraceEvent{}
	for _, run := range r.Runs {
		events = append(events, run.Matches...)
	}
	return events
}
