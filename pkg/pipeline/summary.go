package pipeline

import (
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/plazareviews/revscope/pkg/period"
	"github.com/plazareviews/revscope/pkg/review"
)

// Summary describes a review dataset before any period analysis.
type Summary struct {
	Reviews        int
	Dated          int
	FirstDate      time.Time
	LastDate       time.Time
	Rated          int
	MeanRating     float64
	MedianRating   float64
	Stars          [review.MaxRating]int
	MissingText    int
	MissingRating  int
	MeanTextLength float64 // over reviews with text

	// Delay between the experience date and the written date, in days, for
	// reviews that have both.
	Delay period.Summary

	Platforms map[string]int
}

// Summarize computes dataset-level counts and rating statistics.
func Summarize(reviews []review.Review) Summary {
	s := Summary{Reviews: len(reviews), Platforms: make(map[string]int)}

	var ratings, delays []float64
	textLen, withText := 0, 0
	for _, r := range reviews {
		s.Platforms[r.Platform]++

		if r.HasDate() {
			s.Dated++
			if s.FirstDate.IsZero() || r.Date.Before(s.FirstDate) {
				s.FirstDate = r.Date
			}
			if r.Date.After(s.LastDate) {
				s.LastDate = r.Date
			}
			if !r.Written.IsZero() {
				delays = append(delays, math.Floor(r.Written.Sub(r.Date).Hours()/24))
			}
		}

		if r.Valid() {
			s.Rated++
			s.Stars[r.Rating-1]++
			ratings = append(ratings, float64(r.Rating))
		} else {
			s.MissingRating++
		}

		if strings.TrimSpace(r.Text) == "" {
			s.MissingText++
		} else {
			withText++
			textLen += utf8.RuneCountInString(r.Text)
		}
	}

	rs := period.Describe(ratings)
	s.MeanRating = rs.Mean
	s.MedianRating = rs.Median
	s.Delay = period.Describe(delays)
	s.MeanTextLength = math.NaN()
	if withText > 0 {
		s.MeanTextLength = float64(textLen) / float64(withText)
	}
	return s
}
