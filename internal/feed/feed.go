// Package feed fetches incident records from the upstream victim feed.
package feed

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/roach88/rwtracker/internal/model"
)

// RecentPath lists the most recently published victims.
const RecentPath = "/recentvictims"

// YearPath lists every victim published in the given year.
func YearPath(year int) string {
	return "/victims/" + strconv.Itoa(year)
}

// Source fetches records from a feed endpoint.
type Source interface {
	Name() string
	Fetch(ctx context.Context, path string) ([]model.Record, error)
}

// FetchError reports that the feed was unreachable or returned something
// unusable. Stored state is never touched when a fetch fails; the next
// scheduled cycle tries again.
type FetchError struct {
	URL        string
	StatusCode int // 0 when no response was received
	Temporary  bool
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// IsTransientFetch returns true if err is a feed fetch failure.
// Uses errors.As to handle wrapped errors.
func IsTransientFetch(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}
