package engine

import (
	"errors"
	"fmt"
)

// MatchError represents a problem detected while evaluating a run.
//
// Match errors include:
//   - Malformed input: the scorer failed on a (record, term) pair
//   - Decision log failure: the decision could not be read or written
type MatchError struct {
	// Code identifies the error category.
	Code MatchErrorCode

	// Message is a human-readable description.
	Message string

	// Published identifies the record, when known.
	Published string

	// Term is the watch term being evaluated, when known.
	Term string

	// PartyID identifies the party, when known.
	PartyID int64

	// Err is the underlying cause.
	Err error
}

// MatchErrorCode categorizes match errors.
type MatchErrorCode string

const (
	// ErrCodeMalformedInput indicates the comparison failed on a single pair.
	// Never returned from FindNewMatches; only logged.
	ErrCodeMalformedInput MatchErrorCode = "MALFORMED_INPUT"

	// ErrCodeDecisionLog indicates the decision log could not be used.
	ErrCodeDecisionLog MatchErrorCode = "DECISION_LOG"

	// ErrCodeRegistry indicates parties or terms could not be read.
	ErrCodeRegistry MatchErrorCode = "REGISTRY"
)

// Error implements the error interface.
func (e *MatchError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Published != "" || e.Term != "" {
		msg = fmt.Sprintf("%s (record=%s, term=%q, party=%d)", msg, e.Published, e.Term, e.PartyID)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *MatchError) Unwrap() error {
	return e.Err
}

// IsMalformedInput returns true if the error is a malformed comparison input error.
// Uses errors.As to handle wrapped errors.
func IsMalformedInput(err error) bool {
	var me *MatchError
	if errors.As(err, &me) {
		return me.Code == ErrCodeMalformedInput
	}
	return false
}

// IsDecisionLogError returns true if the error came from the decision log.
func IsDecisionLogError(err error) bool {
	var me *MatchError
	if errors.As(err, &me) {
		return me.Code == ErrCodeDecisionLog
	}
	return false
}

func newMalformedInputError(published, term string, partyID int64, cause any) *MatchError {
	return &MatchError{
		Code:      ErrCodeMalformedInput,
		Message:   "comparison failed",
		Published: published,
		Term:      term,
		PartyID:   partyID,
		Err:       fmt.Errorf("%v", cause),
	}
}

func newDecisionLogError(published, term string, partyID int64, err error) *MatchError {
	return &MatchError{
		Code:      ErrCodeDecisionLog,
		Message:   "decision log unavailable",
		Published: published,
		Term:      term,
		PartyID:   partyID,
		Err:       err,
	}
}
