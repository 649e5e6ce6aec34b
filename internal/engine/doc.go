// Package engine implements the match engine.
//
// FindNewMatches takes the stored records, the watch registry and the
// decision log and returns exactly the matches that have never been
// surfaced before.
//
// ALGORITHM:
//
// For every party (id order), for every term of that party (registration
// order), for every record (insertion order):
//  1. Skip the record if the (record, term, party) triple is already decided.
//  2. Apply the match rule. On a match, claim the triple in the decision log.
//  3. Emit a MatchEvent only if this run's claim created the decision.
//
// MATCH RULE:
//
// Title rule: the term is no longer than the post title and the
// case-folded partial ratio between them is exactly 100.
// Domain rule: the case-folded ratio between the term and the record's
// domain is exactly 100.
//
// There is no threshold below 100. A near miss is not a match.
//
// CONCURRENCY:
//
// Parties may be scanned in parallel (WithParallelism). Decision claims are
// serialized by the decision log's unique constraint, so a triple is never
// reported twice even when two runs overlap. Output is always reassembled in
// party order.
//
// A comparison that panics on malformed input is logged and treated as no
// match for that single pair; the scan continues.
package engine
