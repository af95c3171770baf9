// Package userstats computes per-reviewer activity statistics.
package userstats

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/plazareviews/revscope/pkg/review"
)

// User is the activity summary of one author.
type User struct {
	Author         string
	Reviews        int
	Ratings        int // reviews with a valid rating
	FirstReviews   int // reviews dated on the author's first review date
	Photos         int
	FirstDate      time.Time
	LastDate       time.Time
	DaysActive     int
	ReviewsPerDay  float64 // NaN when DaysActive is 0
	MeanTextLength float64
}

// Compute groups reviews by author. Reviews without an author or a date are
// skipped. Users are sorted by review count, most active first, then by name.
func Compute(reviews []review.Review) []User {
	type acc struct {
		u       User
		textLen int
		dates   []time.Time
	}
	byAuthor := make(map[string]*acc)
	for _, r := range reviews {
		author := strings.TrimSpace(r.Author)
		if author == "" || !r.HasDate() {
			continue
		}
		a, ok := byAuthor[author]
		if !ok {
			a = &acc{u: User{Author: author}}
			byAuthor[author] = a
		}
		a.u.Reviews++
		if r.Valid() {
			a.u.Ratings++
		}
		a.u.Photos += r.Photos
		a.textLen += utf8.RuneCountInString(r.Text)
		a.dates = append(a.dates, r.Date)
	}

	out := make([]User, 0, len(byAuthor))
	for _, a := range byAuthor {
		u := a.u
		u.FirstDate, u.LastDate = a.dates[0], a.dates[0]
		for _, d := range a.dates[1:] {
			if d.Before(u.FirstDate) {
				u.FirstDate = d
			}
			if d.After(u.LastDate) {
				u.LastDate = d
			}
		}
		for _, d := range a.dates {
			if d.Equal(u.FirstDate) {
				u.FirstReviews++
			}
		}
		u.DaysActive = int(u.LastDate.Sub(u.FirstDate).Hours() / 24)
		u.ReviewsPerDay = math.NaN()
		if u.DaysActive > 0 {
			u.ReviewsPerDay = float64(u.Reviews) / float64(u.DaysActive)
		}
		u.MeanTextLength = float64(a.textLen) / float64(u.Reviews)
		out = append(out, u)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Reviews != out[j].Reviews {
			return out[i].Reviews > out[j].Reviews
		}
		return out[i].Author < out[j].Author
	})
	return out
}

var sheetHeader = []interface{}{
	"user_name", "n_reviews", "n_ratings", "n_first_reviews", "n_photos",
	"first_review_date", "last_review_date", "days_active", "reviews_per_day_active", "avg_text_length",
}

// WriteXLSX saves users as a single-sheet Excel workbook.
func WriteXLSX(path string, users []User) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "user_stats"
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, "A1", &sheetHeader); err != nil {
		return err
	}
	for i, u := range users {
		var perDay interface{}
		if !math.IsNaN(u.ReviewsPerDay) {
			perDay = u.ReviewsPerDay
		}
		row := []interface{}{
			u.Author, u.Reviews, u.Ratings, u.FirstReviews, u.Photos,
			u.FirstDate.Format("2006-01-02"), u.LastDate.Format("2006-01-02"),
			u.DaysActive, perDay, u.MeanTextLength,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("row %d: %w", i+2, err)
		}
	}
	return f.SaveAs(path)
}
