package store

import (
	"context"
	"fmt"

	"github.com/roach88/rwtracker/internal/model"
)

// HasDecision reports whether a match decision exists for the triple.
func (s *Store) HasDecision(ctx context.Context, published, term string, partyID int64) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM decisions
		WHERE published = ? AND term = ? AND party_id = ?
	`, published, term, partyID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("has decision: %w", err)
	}
	return count > 0, nil
}

// RecordDecision durably claims the (published, term, party) triple.
//
// The insert and the existence check are a single statement guarded by the
// UNIQUE constraint, so two callers racing on the same triple cannot both
// see inserted=true. Replaying an existing decision is a no-op that returns
// inserted=false.
func (s *Store) RecordDecision(ctx context.Context, d model.Decision) (inserted bool, err error) {
	decidedAt := d.DecidedAt
	if decidedAt.IsZero() {
		decidedAt = s.now()
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO decisions (published, term, party_id, run_id, decided_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(published, term, party_id) DO NOTHING
	`, d.Published, d.Term, d.PartyID, d.RunID, formatTime(decidedAt))
	if err != nil {
		return false, fmt.Errorf("record decision: insert: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("record decision: rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// DecidedPublished returns the published values already decided for a
// (term, party) pair. It is the batched form of HasDecision used to skip
// records before scoring them.
func (s *Store) DecidedPublished(ctx context.Context, term string, partyID int64) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT published FROM decisions
		WHERE term = ? AND party_id = ?
	`, term, partyID)
	if err != nil {
		return nil, fmt.Errorf("decided published: %w", err)
	}
	defer rows.Close()

	decided := make(map[string]struct{})
	for rows.Next() {
		var published string
		if err := rows.Scan(&published); err != nil {
			return nil, fmt.Errorf("decided published: scan: %w", err)
		}
		decided[published] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("decided published: iterate: %w", err)
	}
	return decided, nil
}

// ListDecisions returns every decision with its party name, oldest first.
func (s *Store) ListDecisions(ctx context.Context) ([]model.Decision, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT d.id, d.published, d.term, d.party_id, p.name, d.run_id, d.decided_at
		FROM decisions d
		JOIN parties p ON p.id = d.party_id
		ORDER BY d.id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list decisions: %w", err)
	}
	defer rows.Close()

	decisions := []model.Decision{}
	for rows.Next() {
		var (
			d         model.Decision
			decidedAt string
		)
		if err := rows.Scan(&d.ID, &d.Published, &d.Term, &d.PartyID, &d.PartyName, &d.RunID, &decidedAt); err != nil {
			return nil, fmt.Errorf("list decisions: scan: %w", err)
		}
		d.DecidedAt = parseTime(decidedAt)
		decisions = append(decisions, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list decisions: iterate: %w", err)
	}
	return decisions, nil
}
