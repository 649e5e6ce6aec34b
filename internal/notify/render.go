package notify

import (
	"fmt"
	"strings"

	"github.com/roach88/rwtracker/internal/model"
)

const (
	// MatchSubject is the subject of the per-destination notification.
	MatchSubject = "New Ransomware Victim Matches"
	// SummarySubject is the subject of the administrator summary.
	SummarySubject = "Ransomware Victim Matches Summary"
)

// RenderMatches renders the plain-text body sent to each destination of a party.
func RenderMatches(matches []model.MatchEvent) string {
	var b strings.Builder
	b.WriteString("You have new matches for your keywords:\n\n")
	for _, m := range matches {
		writeMatch(&b, "", m)
		b.WriteString("\n")
	}
	return b.String()
}

// RenderSummary renders the administrator summary covering every party.
func RenderSummary(byParty []model.PartyMatches) string {
	var b strings.Builder
	b.WriteString("Summary of victim matches:\n\n")
	for _, pm := range byParty {
		fmt.Fprintf(&b, "+ Customer: %s\n\n", pm.Party.Name)
		for _, m := range pm.Matches {
			writeMatch(&b, "   - ", m)
			b.WriteString("\n\n")
		}
		b.WriteString(strings.Repeat("=", 40))
		b.WriteString("\n\n")
	}
	return b.String()
}

func writeMatch(b *strings.Builder, prefix string, m model.MatchEvent) {
	fmt.Fprintf(b, "%sKeyword: %s\n", prefix, m.Term)
	fmt.Fprintf(b, "%sPublished: %s\n", prefix, m.Record.Published)
	fmt.Fprintf(b, "%sPost Title: %s\n", prefix, m.Record.PostTitle)
	fmt.Fprintf(b, "%sDomain: %s\n", prefix, m.Record.Domain)
	fmt.Fprintf(b, "%sGroup Name: %s\n", prefix, m.Record.GroupName)
	fmt.Fprintf(b, "%sPost URL: %s\n", prefix, m.Record.PostURL)
}
