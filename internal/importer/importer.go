// Package importer loads parties and watch terms from JSON documents.
//
// Documents are validated against an embedded CUE schema before anything is
// written, so a malformed file never leaves a partial import behind.
package importer

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

//go:embed schema.cue
var schemaSource string

// ErrInvalidInput is returned when a document does not match the schema.
var ErrInvalidInput = errors.New("invalid import document")

// Registry is the write side of the watch registry. Implemented by *store.Store.
type Registry interface {
	AddParty(ctx context.Context, name string, destinations []string) (int64, error)
	AddTerm(ctx context.Context, partyID int64, term string) (bool, error)
}

// Report summarizes an import.
type Report struct {
	Added   int     `json:"added"`
	Skipped int     `json:"skipped"`
	IDs     []int64 `json:"ids,omitempty"`
}

// PartyInput is one entry of a parties document. Older files name the
// destination list recipient_list; both keys are accepted and merged.
type PartyInput struct {
	Name          string   `json:"name"`
	RecipientList []string `json:"recipient_list,omitempty"`
	Destinations  []string `json:"destinations,omitempty"`
}

// AllDestinations returns destinations followed by recipient_list entries.
func (p PartyInput) AllDestinations() []string {
	out := make([]string, 0, len(p.Destinations)+len(p.RecipientList))
	out = append(out, p.Destinations...)
	return append(out, p.RecipientList...)
}

// ParseParties validates and decodes a parties document.
func ParseParties(data []byte) ([]PartyInput, error) {
	var parties []PartyInput
	if err := decode(data, "#Parties", &parties); err != nil {
		return nil, err
	}
	for i, p := range parties {
		if len(p.AllDestinations()) == 0 {
			return nil, fmt.Errorf("%w: party %d (%s): at least one destination is required", ErrInvalidInput, i, p.Name)
		}
	}
	return parties, nil
}

// ParseTerms validates and decodes a terms document.
func ParseTerms(data []byte) ([]string, error) {
	var terms []string
	if err := decode(data, "#Terms", &terms); err != nil {
		return nil, err
	}
	return terms, nil
}

func decode(data []byte, definition string, out any) error {
	cctx := cuecontext.New()

	schema := cctx.CompileString(schemaSource)
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile import schema: %w", err)
	}

	doc := cctx.CompileBytes(data)
	if err := doc.Err(); err != nil {
		return fmt.Errorf("%w: parse: %v", ErrInvalidInput, err)
	}

	v := schema.LookupPath(cue.ParsePath(definition)).Unify(doc)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := v.Decode(out); err != nil {
		return fmt.Errorf("%w: decode: %v", ErrInvalidInput, err)
	}
	return nil
}

// ImportParties adds every party of the document. Parties are not
// deduplicated; importing the same file twice creates the parties twice.
func ImportParties(ctx context.Context, reg Registry, data []byte) (Report, error) {
	parties, err := ParseParties(data)
	if err != nil {
		return Report{}, err
	}

	report := Report{IDs: []int64{}}
	for _, p := range parties {
		id, err := reg.AddParty(ctx, p.Name, p.AllDestinations())
		if err != nil {
			return report, fmt.Errorf("import party %q: %w", p.Name, err)
		}
		report.Added++
		report.IDs = append(report.IDs, id)
	}
	return report, nil
}

// ImportTerms adds the document's terms to a party. Terms already present
// anywhere in the registry are skipped.
func ImportTerms(ctx context.Context, reg Registry, partyID int64, data []byte) (Report, error) {
	terms, err := ParseTerms(data)
	if err != nil {
		return Report{}, err
	}

	var report Report
	for _, term := range terms {
		added, err := reg.AddTerm(ctx, partyID, term)
		if err != nil {
			return report, fmt.Errorf("import term %q: %w", term, err)
		}
		if added {
			report.Added++
		} else {
			report.Skipped++
		}
	}
	return report, nil
}
