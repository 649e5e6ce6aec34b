package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/roach88/rwtracker/internal/model"
)

// AddParty creates a watched party and returns its assigned id.
// Parties are not deduplicated; callers avoid importing the same party twice.
func (s *Store) AddParty(ctx context.Context, name string, destinations []string) (int64, error) {
	if destinations == nil {
		destinations = []string{}
	}
	destJSON, err := json.Marshal(destinations)
	if err != nil {
		return 0, fmt.Errorf("add party: marshal destinations: %w", err)
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO parties (name, destinations) VALUES (?, ?)
	`, name, string(destJSON))
	if err != nil {
		return 0, fmt.Errorf("add party: insert: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("add party: last insert id: %w", err)
	}
	return id, nil
}

// GetParty returns the party with the given id, or ErrPartyNotFound.
func (s *Store) GetParty(ctx context.Context, id int64) (model.Party, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, name, destinations FROM parties WHERE id = ?`, id)
	p, err := scanParty(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Party{}, fmt.Errorf("get party %d: %w", id, ErrPartyNotFound)
	}
	if err != nil {
		return model.Party{}, fmt.Errorf("get party %d: %w", id, err)
	}
	return p, nil
}

// ListParties returns all parties ordered by id.
func (s *Store) ListParties(ctx context.Context) ([]model.Party, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, destinations FROM parties ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list parties: %w", err)
	}
	defer rows.Close()

	parties := []model.Party{}
	for rows.Next() {
		p, err := scanParty(rows)
		if err != nil {
			return nil, fmt.Errorf("list parties: %w", err)
		}
		parties = append(parties, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list parties: iterate: %w", err)
	}
	return parties, nil
}

// AddTerm registers a watch term for a party. Term text is unique across
// the whole registry: if the term already exists under any party, nothing
// is written and added is false.
//
// Returns ErrPartyNotFound if the party does not exist.
func (s *Store) AddTerm(ctx context.Context, partyID int64, term string) (added bool, err error) {
	if term == "" {
		return false, fmt.Errorf("add term: empty term")
	}
	if _, err := s.GetParty(ctx, partyID); err != nil {
		return false, fmt.Errorf("add term: %w", err)
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO terms (party_id, term) VALUES (?, ?)
		ON CONFLICT(term) DO NOTHING
	`, partyID, term)
	if err != nil {
		return false, fmt.Errorf("add term: insert: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("add term: rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// TermsOf returns the terms owned by a party in registration order.
func (s *Store) TermsOf(ctx context.Context, partyID int64) ([]model.Term, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, party_id, term FROM terms
		WHERE party_id = ?
		ORDER BY id ASC
	`, partyID)
	if err != nil {
		return nil, fmt.Errorf("terms of %d: %w", partyID, err)
	}
	defer rows.Close()

	terms := []model.Term{}
	for rows.Next() {
		var t model.Term
		if err := rows.Scan(&t.ID, &t.PartyID, &t.Text); err != nil {
			return nil, fmt.Errorf("terms of %d: scan: %w", partyID, err)
		}
		terms = append(terms, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("terms of %d: iterate: %w", partyID, err)
	}
	return terms, nil
}

func scanParty(row rowScanner) (model.Party, error) {
	var (
		p        model.Party
		destJSON string
	)
	if err := row.Scan(&p.ID, &p.Name, &destJSON); err != nil {
		return model.Party{}, err
	}
	p.Destinations = []string{}
	if destJSON != "" {
		if err := json.Unmarshal([]byte(destJSON), &p.Destinations); err != nil {
			return model.Party{}, fmt.Errorf("unmarshal destinations of party %d: %w", p.ID, err)
		}
	}
	return p, nil
}
