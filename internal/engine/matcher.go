package engine

import (
	"fmt"
	"unicode/utf8"

	"github.com/roach88/rwtracker/internal/fuzzy"
	"github.com/roach88/rwtracker/internal/model"
)

// preparedRecord caches the case-folded fields the rules compare against.
type preparedRecord struct {
	model.Record
	titleLen       int
	foldedTitle    string
	foldedTitleLen int
	foldedDom      string
}

type preparedTerm struct {
	text         string
	length       int
	folded       string
	foldedLength int
}

func prepareCorpus(records []model.Record) []preparedRecord {
	corpus := make([]preparedRecord, len(records))
	for i, r := range records {
		foldedTitle := fuzzy.Fold(r.PostTitle)
		corpus[i] = preparedRecord{
			Record:         r,
			titleLen:       utf8.RuneCountInString(r.PostTitle),
			foldedTitle:    foldedTitle,
			foldedTitleLen: utf8.RuneCountInString(foldedTitle),
			foldedDom:      fuzzy.Fold(r.Domain),
		}
	}
	return corpus
}

func prepareTerm(text string) preparedTerm {
	folded := fuzzy.Fold(text)
	return preparedTerm{
		text:         text,
		length:       utf8.RuneCountInString(text),
		folded:       folded,
		foldedLength: utf8.RuneCountInString(folded),
	}
}

// evaluate applies the title rule, then the domain rule. A panic inside the
// scorer is reported as err and means no match for this pair only.
func (e *Engine) evaluate(term preparedTerm, rec preparedRecord) (field model.MatchField, matched bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			field, matched, err = "", false, fmt.Errorf("scorer panic: %v", r)
		}
	}()

	if titleRule(e.scorer, term, rec) {
		return model.FieldTitle, true, nil
	}
	if domainRule(e.scorer, term, rec) {
		return model.FieldDomain, true, nil
	}
	return "", false, nil
}

// titleRule: len(term) <= len(title) and a perfect partial ratio.
// The length precondition is checked first and dominates. It must also hold
// after folding, which can lengthen a string ("ß" folds to "ss"); otherwise
// PartialRatio would slide the title over the term instead.
func titleRule(s fuzzy.Scorer, term preparedTerm, rec preparedRecord) bool {
	if rec.TitleMissing {
		return false
	}
	if term.length > rec.titleLen || term.foldedLength > rec.foldedTitleLen {
		return false
	}
	return s.PartialRatio(term.folded, rec.foldedTitle) == fuzzy.MaxScore
}

// domainRule: a perfect whole-string ratio against the extracted domain.
func domainRule(s fuzzy.Scorer, term preparedTerm, rec preparedRecord) bool {
	return s.Ratio(term.folded, rec.foldedDom) == fuzzy.MaxScore
}
