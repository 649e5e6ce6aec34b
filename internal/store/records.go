package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/rwtracker/internal/model"
)

const insertRecordSQL = `
	INSERT INTO records
	(published, activity, country, description, discovered, group_name,
	 infostealer, post_title, post_url, screenshot, website, domain, ingested_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(published) DO NOTHING
`

const selectRecordColumns = `
	r.id, r.published, r.activity, r.country, r.description, r.discovered, r.group_name,
	r.infostealer, r.post_title, r.post_url, r.screenshot, r.website, r.domain
`

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// UpsertRecord inserts a record unless one with the same published value
// already exists. Existing rows are never overwritten.
//
// A duplicate is a successful no-op reported as inserted=false. The domain is
// derived from the record's website (or post URL) when not already set.
func (s *Store) UpsertRecord(ctx context.Context, rec model.Record) (inserted bool, err error) {
	inserted, err = s.upsertRecord(ctx, s.db, rec)
	if err != nil {
		return false, fmt.Errorf("upsert record: %w", err)
	}
	return inserted, nil
}

// UpsertRecords inserts a batch of records in one transaction and returns how
// many were new. Records without a published value are skipped.
func (s *Store) UpsertRecords(ctx context.Context, recs []model.Record) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("upsert records: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	count := 0
	for _, rec := range recs {
		if rec.Published == "" {
			continue
		}
		inserted, err := s.upsertRecord(ctx, tx, rec)
		if err != nil {
			return 0, fmt.Errorf("upsert records: %s: %w", rec.Published, err)
		}
		if inserted {
			count++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("upsert records: commit: %w", err)
	}
	return count, nil
}

func (s *Store) upsertRecord(ctx context.Context, db execer, rec model.Record) (bool, error) {
	if rec.Published == "" {
		return false, fmt.Errorf("record has no published value")
	}
	if rec.Domain == "" {
		rec.Domain = model.ExtractDomain(rec.DomainSource())
	}

	title := nullString(rec.PostTitle)
	if !rec.TitleMissing {
		title.Valid = true
	}

	result, err := db.ExecContext(ctx, insertRecordSQL,
		rec.Published,
		nullString(rec.Activity),
		nullString(rec.Country),
		nullString(rec.Description),
		nullString(rec.Discovered),
		nullString(rec.GroupName),
		nullString(rec.Infostealer),
		title,
		nullString(rec.PostURL),
		nullString(rec.Screenshot),
		nullString(rec.Website),
		rec.Domain,
		formatTime(s.now()),
	)
	if err != nil {
		return false, fmt.Errorf("insert: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// GetRecord returns the record with the given published value.
// The boolean is false when no such record exists.
func (s *Store) GetRecord(ctx context.Context, published string) (model.Record, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+selectRecordColumns+` FROM records r WHERE r.published = ?`, published)
	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return model.Record{}, false, nil
	}
	if err != nil {
		return model.Record{}, false, fmt.Errorf("get record: %w", err)
	}
	return rec, true, nil
}

// ListRecords returns every stored record in insertion order.
//
// Returns an empty slice (not nil) if the store has no records.
func (s *Store) ListRecords(ctx context.Context) ([]model.Record, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+selectRecordColumns+` FROM records r ORDER BY r.id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	records := []model.Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("list records: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list records: iterate: %w", err)
	}
	return records, nil
}

// CountRecords returns the number of stored records.
func (s *Store) CountRecords(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (model.Record, error) {
	var (
		rec                                              model.Record
		activity, country, description, discovered, grp  sql.NullString
		infostealer, title, postURL, screenshot, website sql.NullString
	)
	err := row.Scan(
		&rec.ID, &rec.Published, &activity, &country, &description, &discovered, &grp,
		&infostealer, &title, &postURL, &screenshot, &website, &rec.Domain,
	)
	if err != nil {
		return model.Record{}, err
	}

	rec.Activity = activity.String
	rec.Country = country.String
	rec.Description = description.String
	rec.Discovered = discovered.String
	rec.GroupName = grp.String
	rec.Infostealer = infostealer.String
	rec.PostTitle = title.String
	rec.TitleMissing = !title.Valid
	rec.PostURL = postURL.String
	rec.Screenshot = screenshot.String
	rec.Website = website.String
	return rec, nil
}
