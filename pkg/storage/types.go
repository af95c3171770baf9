package storage

import (
	"time"

	"github.com/plazareviews/revscope/pkg/period"
	"github.com/plazareviews/revscope/pkg/review"
)

// Record is a stored review with its database identity.
type Record struct {
	RowID int64
	Key   string // platform-scoped identity, see identityKey

	review.Review

	// Period is the cached classification from the last import or reclassify.
	Period period.Period
}

// ImportResult summarizes one UpsertReviews call.
type ImportResult struct {
	ID        int64
	Source    string
	Total     int
	Added     int
	Updated   int
	Unchanged int
}

// Import is a row of the imports audit log.
type Import struct {
	ID         int64
	OccurredAt time.Time
	Source     string
	Total      int
	Added      int
	Updated    int
}

// PlatformStats is the per-platform overview returned by GetStats.
type PlatformStats struct {
	Platform   string
	Reviews    int
	Rated      int
	Scored     int // reviews with a sentiment label
	MeanRating float64
	FirstDate  time.Time
	LastDate   time.Time
}

// Reviews strips the storage identity from records.
func Reviews(records []Record) []review.Review {
	out := make([]review.Review, len(records))
	for i, r := range records {
		out[i] = r.Review
	}
	return out
}
