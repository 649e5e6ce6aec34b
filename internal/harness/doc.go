// Package harness runs match engine scenarios described in YAML.
//
// A scenario seeds parties, terms and records into a fresh in-memory store,
// then runs the engine one or more times, optionally adding records and
// terms between runs. Every run's newly discovered matches are collected
// into a trace that can be asserted on and compared with a golden file.
//
// # Scenario Format
//
//	name: title_rule
//	description: "Term inside the post title matches once"
//	parallelism: 2            # optional, engine party parallelism
//	parties:
//	  - name: Acme
//	    destinations: [soc@acme.co]
//	    terms: ["Acme Corp"]
//	records:
//	  - published: "2024-01-01T00:00Z"
//	    post_title: Acme Corp Breach
//	    post_url: http://acme.co/post/1
//	runs:
//	  - expect_matches: 1
//	  - records: [...]        # stored before this run
//	    terms:                # registered before this run
//	      - {party: Acme, term: acme.co}
//	    expect_matches: 0
//	assertions:
//	  - type: match_contains
//	    run: 1
//	    party: Acme
//	    term: Acme Corp
//	    published: "2024-01-01T00:00Z"
//	    field: title
//	  - type: decision_exists
//	    party: Acme
//	    term: Acme Corp
//	    published: "2024-01-01T00:00Z"
//
// A record without post_title is stored as having no title, so only the
// domain rule can match it.
//
// # Assertion Types
//
//   - match_contains: a run (or any run when run is 0) emitted the match
//   - match_count: a run (or all runs) emitted exactly count matches
//   - decision_exists: the decision log holds the triple
//   - no_decision: the decision log does not hold the triple
//   - decision_count: the decision log holds exactly count decisions
//
// # Deterministic Testing
//
// Runs are stamped with ids run-1, run-2, ... and decisions with a stepping
// clock, so traces are identical across executions and suitable for golden
// comparison.
package harness
