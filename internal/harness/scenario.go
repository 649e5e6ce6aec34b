package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/rwtracker/internal/model"
)

// Scenario defines an engine scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Parallelism is passed to the engine. Zero means sequential.
	Parallelism int `yaml:"parallelism,omitempty"`

	// Parties are registered, with their terms, before the first run.
	Parties []PartySpec `yaml:"parties"`

	// Records are stored before the first run.
	Records []RecordSpec `yaml:"records,omitempty"`

	// Runs are engine invocations in order.
	Runs []RunStep `yaml:"runs"`

	// Assertions validate the trace and the final decision log.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// PartySpec is a watched party and its initial terms.
type PartySpec struct {
	Name         string   `yaml:"name"`
	Destinations []string `yaml:"destinations"`
	Terms        []string `yaml:"terms,omitempty"`
}

// RecordSpec is a feed record. A nil PostTitle means the feed sent no title.
type RecordSpec struct {
	Published string  `yaml:"published"`
	PostTitle *string `yaml:"post_title"`
	PostURL   string  `yaml:"post_url,omitempty"`
	Website   string  `yaml:"website,omitempty"`
	GroupName string  `yaml:"group_name,omitempty"`
}

func (r RecordSpec) record() model.Record {
	rec := model.Record{
		Published: r.Published,
		PostURL:   r.PostURL,
		Website:   r.Website,
		GroupName: r.GroupName,
	}
	if r.PostTitle == nil {
		rec.TitleMissing = true
	} else {
		rec.PostTitle = *r.PostTitle
	}
	return rec
}

// TermSpec registers a term for a party between runs.
type TermSpec struct {
	Party string `yaml:"party"`
	Term  string `yaml:"term"`
}

// RunStep is one engine invocation, preceded by optional additions.
type RunStep struct {
	Records []RecordSpec `yaml:"records,omitempty"`
	Terms   []TermSpec   `yaml:"terms,omitempty"`

	// ExpectMatches, when set, is the number of new matches the run must emit.
	ExpectMatches *int `yaml:"expect_matches,omitempty"`
}

// Assertion validates the trace or the decision log.
type Assertion struct {
	Type string `yaml:"type"`

	// Run selects a run (1-based) for match_contains and match_count.
	// Zero means every run.
	Run int `yaml:"run,omitempty"`

	Party     string `yaml:"party,omitempty"`
	Term      string `yaml:"term,omitempty"`
	Published string `yaml:"published,omitempty"`

	// Field optionally narrows match_contains to title or domain.
	Field string `yaml:"field,omitempty"`

	// Count is used by match_count and decision_count.
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertMatchContains  = "match_contains"
	AssertMatchCount     = "match_count"
	AssertDecisionExists = "decision_exists"
	AssertNoDecision     = "no_decision"
	AssertDecisionCount  = "decision_count"
)

// LoadScenario reads and parses a scenario YAML file.
// Unknown fields are rejected so typos surface as errors.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
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

// validateScenario checks that required fields are present and that every
// party reference resolves.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Parties) == 0 {
		return fmt.Errorf("parties list is required and must be non-empty")
	}
	if len(s.Runs) == 0 {
		return fmt.Errorf("runs list is required and must be non-empty")
	}
	if s.Parallelism < 0 {
		return fmt.Errorf("parallelism must be non-negative")
	}

	parties := make(map[string]bool, len(s.Parties))
	for i, p := range s.Parties {
		if p.Name == "" {
			return fmt.Errorf("parties[%d]: name is required", i)
		}
		if parties[p.Name] {
			return fmt.Errorf("parties[%d]: duplicate party %q", i, p.Name)
		}
		parties[p.Name] = true
	}

	if err := validateRecords("records", s.Records); err != nil {
		return err
	}
	for i, run := range s.Runs {
		if err := validateRecords(fmt.Sprintf("runs[%d].records", i), run.Records); err != nil {
			return err
		}
		for j, ts := range run.Terms {
			if !parties[ts.Party] {
				return fmt.Errorf("runs[%d].terms[%d]: unknown party %q", i, j, ts.Party)
			}
			if ts.Term == "" {
				return fmt.Errorf("runs[%d].terms[%d]: term is required", i, j)
			}
		}
		if run.ExpectMatches != nil && *run.ExpectMatches < 0 {
			return fmt.Errorf("runs[%d]: expect_matches must be non-negative", i)
		}
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i], parties, len(s.Runs)); err != nil {
			return err
		}
	}
	return nil
}

func validateRecords(where string, recs []RecordSpec) error {
	for i, r := range recs {
		if r.Published == "" {
			return fmt.Errorf("%s[%d]: published is required", where, i)
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion, parties map[string]bool, runs int) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}
	if a.Run < 0 || a.Run > runs {
		return fmt.Errorf("assertions[%d]: run %d out of range 1..%d", index, a.Run, runs)
	}
	if a.Count < 0 {
		return fmt.Errorf("assertions[%d]: count must be non-negative", index)
	}

	switch a.Type {
	case AssertMatchContains, AssertDecisionExists, AssertNoDecision:
		if a.Party == "" || a.Term == "" || a.Published == "" {
			return fmt.Errorf("assertions[%d]: party, term and published are required for %s", index, a.Type)
		}
		if !parties[a.Party] {
			return fmt.Errorf("assertions[%d]: unknown party %q", index, a.Party)
		}
		if a.Field != "" && a.Field != string(model.FieldTitle) && a.Field != string(model.FieldDomain) {
			return fmt.Errorf("assertions[%d]: field must be title or domain, got %q", index, a.Field)
		}
	case AssertMatchCount, AssertDecisionCount:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
