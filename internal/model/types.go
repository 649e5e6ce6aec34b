package model

import "time"

// Record is a single disclosed incident as published by the feed.
// Published is the natural key: two records with the same Published value
// are the same record.
type Record struct {
	// ID is the store-assigned insertion sequence. Zero until persisted.
	ID int64 `json:"id,omitempty"`

	Published   string `json:"published"`
	Activity    string `json:"activity,omitempty"`
	Country     string `json:"country,omitempty"`
	Description string `json:"description,omitempty"`
	Discovered  string `json:"discovered,omitempty"`
	GroupName   string `json:"group_name,omitempty"`

	// Infostealer is the opaque auxiliary metadata, kept as serialized JSON.
	Infostealer string `json:"infostealer,omitempty"`

	PostTitle  string `json:"post_title,omitempty"`
	PostURL    string `json:"post_url,omitempty"`
	Screenshot string `json:"screenshot,omitempty"`
	Website    string `json:"website,omitempty"`

	// Domain is derived from Website, or PostURL when no website is known.
	Domain string `json:"domain,omitempty"`

	// TitleMissing is set when the feed item carried no title at all.
	// Such records can only match through the domain rule.
	TitleMissing bool `json:"-"`
}

// DomainSource returns the URL the record's domain is derived from.
func (r Record) DomainSource() string {
	if r.Website != "" {
		return r.Website
	}
	return r.PostURL
}

// Party is a watched entity that receives match notifications.
type Party struct {
	ID           int64    `json:"id"`
	Name         string   `json:"name"`
	Destinations []string `json:"destinations"`
}

// Term is a watch term owned by a party. Term text is unique across the
// whole registry.
type Term struct {
	ID      int64  `json:"id"`
	PartyID int64  `json:"party_id"`
	Text    string `json:"term"`
}

// Decision is the durable fact that a term matched a record for a party.
// The (Published, Term, PartyID) triple is unique.
type Decision struct {
	ID        int64     `json:"id"`
	Published string    `json:"published"`
	Term      string    `json:"term"`
	PartyID   int64     `json:"party_id"`
	PartyName string    `json:"party_name,omitempty"`
	RunID     string    `json:"run_id,omitempty"`
	DecidedAt time.Time `json:"decided_at"`
}

// MatchField names the sub-rule that produced a match.
type MatchField string

const (
	// FieldTitle is a perfect partial match of the term inside the post title.
	FieldTitle MatchField = "title"
	// FieldDomain is a whole-string match of the term against the domain.
	FieldDomain MatchField = "domain"
)

// MatchEvent is a newly discovered match, emitted exactly once per
// (record, term, party) over the lifetime of the store.
type MatchEvent struct {
	Record Record     `json:"record"`
	Term   string     `json:"term"`
	Party  Party      `json:"party"`
	Field  MatchField `json:"field"`
}

// PartyMatches groups the new matches of one run for a single party.
type PartyMatches struct {
	Party   Party        `json:"party"`
	Matches []MatchEvent `json:"matches"`
}
