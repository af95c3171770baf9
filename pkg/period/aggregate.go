package period

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/plazareviews/revscope/pkg/review"
)

// BucketBy selects how reviews are grouped by Aggregate.
type BucketBy string

const (
	ByPeriod  BucketBy = "period"
	ByMonth   BucketBy = "month"
	ByQuarter BucketBy = "quarter"
	ByYear    BucketBy = "year"
	ByDay     BucketBy = "day"
)

func ParseBucketBy(s string) (BucketBy, error) {
	switch b := BucketBy(strings.ToLower(strings.TrimSpace(s))); b {
	case ByPeriod, ByMonth, ByQuarter, ByYear, ByDay:
		return b, nil
	}
	return "", fmt.Errorf("invalid bucket %q (available: period, month, quarter, year, day)", s)
}

// Field extracts the numeric value aggregated for each review. ok == false
// excludes the review from the statistics but not from the bucket's Count.
type Field struct {
	Name  string
	Value func(r review.Review) (v float64, ok bool)
}

// RatingField aggregates star ratings; out-of-range ratings are skipped.
var RatingField = Field{
	Name: "rating",
	Value: func(r review.Review) (float64, bool) {
		if !r.Valid() {
			return 0, false
		}
		return float64(r.Rating), true
	},
}

// SentimentField aggregates sentiment as positive=1, neutral=0, negative=-1.
var SentimentField = Field{
	Name: "sentiment",
	Value: func(r review.Review) (float64, bool) {
		return r.Sentiment.Score()
	},
}

func ParseField(s string) (Field, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "rating":
		return RatingField, nil
	case "sentiment":
		return SentimentField, nil
	}
	return Field{}, fmt.Errorf("invalid field %q (available: rating, sentiment)", s)
}

// Bucket is the summary of one group of reviews. Statistics are NaN when the
// bucket has no valid values.
type Bucket struct {
	Key   string
	Start time.Time // first day of a time bucket; zero for period and missing_date buckets

	Count int // every review in the bucket
	Rated int // reviews with a valid value

	Mean   float64
	Median float64
	Std    float64
	Min    float64
	Max    float64
	Q1     float64
	Q3     float64

	Stars [review.MaxRating]int // rating histogram, Stars[0] is one star
}

// MarshalJSON writes NaN statistics as null.
func (b Bucket) MarshalJSON() ([]byte, error) {
	type out struct {
		Key    string                `json:"key"`
		Start  string                `json:"start,omitempty"`
		Count  int                   `json:"count"`
		Rated  int                   `json:"rated"`
		Mean   *float64              `json:"mean"`
		Median *float64              `json:"median"`
		Std    *float64              `json:"std"`
		Min    *float64              `json:"min"`
		Max    *float64              `json:"max"`
		Q1     *float64              `json:"q1"`
		Q3     *float64              `json:"q3"`
		Stars  [review.MaxRating]int `json:"stars"`
	}
	o := out{
		Key:    b.Key,
		Count:  b.Count,
		Rated:  b.Rated,
		Mean:   Nullable(b.Mean),
		Median: Nullable(b.Median),
		Std:    Nullable(b.Std),
		Min:    Nullable(b.Min),
		Max:    Nullable(b.Max),
		Q1:     Nullable(b.Q1),
		Q3:     Nullable(b.Q3),
		Stars:  b.Stars,
	}
	if !b.Start.IsZero() {
		o.Start = b.Start.Format(dateLayout)
	}
	return json.Marshal(o)
}

// Nullable returns nil for NaN and infinities so values survive encoding/json.
func Nullable(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// Aggregate groups reviews and summarizes their ratings.
func Aggregate(reviews []review.Review, b Boundary, by BucketBy) []Bucket {
	return AggregateField(reviews, b, by, RatingField)
}

// AggregateField groups reviews by period or calendar bucket and summarizes
// the given field. Buckets come back in reporting order: period order for
// ByPeriod, chronological for the calendar modes, with undated reviews in a
// trailing missing_date bucket. Empty buckets are omitted. An unknown by is
// treated as ByPeriod.
func AggregateField(reviews []review.Review, b Boundary, by BucketBy, f Field) []Bucket {
	type group struct {
		key    string
		start  time.Time
		order  int
		count  int
		values []float64
		stars  [review.MaxRating]int
	}

	groups := make(map[string]*group)
	for _, r := range reviews {
		key, start, order := bucketOf(r.Date, b, by)
		g, ok := groups[key]
		if !ok {
			g = &group{key: key, start: start, order: order}
			groups[key] = g
		}
		g.count++
		if r.Valid() {
			g.stars[r.Rating-1]++
		}
		if v, ok := f.Value(r); ok && !math.IsNaN(v) {
			g.values = append(g.values, v)
		}
	}

	sorted := make([]*group, 0, len(groups))
	for _, g := range groups {
		sorted = append(sorted, g)
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].order != sorted[j].order {
			return sorted[i].order < sorted[j].order
		}
		return sorted[i].start.Before(sorted[j].start)
	})

	out := make([]Bucket, 0, len(sorted))
	for _, g := range sorted {
		s := Describe(g.values)
		out = append(out, Bucket{
			Key:    g.key,
			Start:  g.start,
			Count:  g.count,
			Rated:  len(g.values),
			Mean:   s.Mean,
			Median: s.Median,
			Std:    s.Std,
			Min:    s.Min,
			Max:    s.Max,
			Q1:     s.Q1,
			Q3:     s.Q3,
			Stars:  g.stars,
		})
	}
	return out
}

// Index returns buckets keyed by Bucket.Key.
func Index(buckets []Bucket) map[string]Bucket {
	m := make(map[string]Bucket, len(buckets))
	for _, b := range buckets {
		m[b.Key] = b
	}
	return m
}

// bucketOf returns the group key, the bucket start (time modes only) and a
// sort rank for a review date.
func bucketOf(date time.Time, b Boundary, by BucketBy) (string, time.Time, int) {
	if by != ByMonth && by != ByQuarter && by != ByYear && by != ByDay {
		p := Classify(date, b)
		return string(p), time.Time{}, rank[p]
	}
	if date.IsZero() {
		return string(MissingDate), time.Time{}, 1
	}

	d := civil(date)
	switch by {
	case ByDay:
		return d.Format(dateLayout), d, 0
	case ByMonth:
		start := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
		return start.Format("2006-01"), start, 0
	case ByQuarter:
		q := (int(d.Month())-1)/3 + 1
		start := time.Date(d.Year(), time.Month((q-1)*3+1), 1, 0, 0, 0, 0, time.UTC)
		return fmt.Sprintf("%dQ%d", d.Year(), q), start, 0
	default:
		start := time.Date(d.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
		return start.Format("2006"), start, 0
	}
}
