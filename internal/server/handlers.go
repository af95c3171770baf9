package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/plazareviews/revscope/pkg/dashboard"
	"github.com/plazareviews/revscope/pkg/period"
	"github.com/plazareviews/revscope/pkg/review"
	"github.com/plazareviews/revscope/pkg/storage"
)

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// listOptions reads the platform, since and until query params.
func listOptions(r *http.Request) (storage.ListOptions, error) {
	q := r.URL.Query()
	opts := storage.ListOptions{Platform: q.Get("platform")}
	if v := q.Get("since"); v != "" {
		t, ok := period.ParseDate(v)
		if !ok {
			return opts, errors.New("invalid since date")
		}
		opts.Since = t
	}
	if v := q.Get("until"); v != "" {
		t, ok := period.ParseDate(v)
		if !ok {
			return opts, errors.New("invalid until date")
		}
		opts.Until = t
	}
	return opts, nil
}

// loadReviews reads reviews selected by listOptions.
// exclude_border=true drops reviews in the two border months.
func (s *Server) loadReviews(r *http.Request) ([]review.Review, error) {
	opts, err := listOptions(r)
	if err != nil {
		return nil, err
	}
	recs, err := s.DB.ListReviews(r.Context(), opts)
	if err != nil {
		return nil, err
	}
	reviews := storage.Reviews(recs)
	if r.URL.Query().Get("exclude_border") == "true" {
		reviews = period.ExcludeBorder(reviews, s.Boundary)
	}
	return reviews, nil
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.DB.GetStats(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, stats)
}

func (s *Server) handlePeriods(w http.ResponseWriter, r *http.Request) {
	field, err := period.ParseField(r.URL.Query().Get("field"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	reviews, err := s.loadReviews(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, period.AggregateField(reviews, s.Boundary, period.ByPeriod, field))
}

type timelinePoint struct {
	Key     string   `json:"key"`
	Count   int      `json:"count"`
	Value   *float64 `json:"value"`
	Rolling *float64 `json:"rolling"`
}

// handleTimeline serves per-bucket means with a rolling value. window and
// align override the configured rolling options.
func (s *Server) handleTimeline(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	by := period.ByMonth
	if v := q.Get("by"); v != "" {
		var err error
		if by, err = period.ParseBucketBy(v); err != nil || by == period.ByPeriod {
			http.Error(w, "by must be one of month, quarter, year, day", http.StatusBadRequest)
			return
		}
	}
	field, err := period.ParseField(q.Get("field"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	opts := s.Rolling
	if v := q.Get("window"); v != "" {
		if opts.Window, err = strconv.Atoi(v); err != nil {
			http.Error(w, "invalid window", http.StatusBadRequest)
			return
		}
	}
	if v := q.Get("align"); v != "" {
		if opts.Align, err = period.ParseAlign(v); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	reviews, err := s.loadReviews(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	points, err := period.RollingBuckets(period.AggregateField(reviews, s.Boundary, by, field), opts)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	out := make([]timelinePoint, len(points))
	for i, p := range points {
		out[i] = timelinePoint{Key: p.Key, Count: p.Count, Value: period.Nullable(p.Value), Rolling: period.Nullable(p.Rolling)}
	}
	writeJSON(w, out)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	reviews, err := s.loadReviews(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	d, err := dashboard.Build(reviews, dashboard.Options{Boundary: s.Boundary, Rolling: s.Rolling})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, d)
}

type reviewJSON struct {
	ID        int64            `json:"id"`
	Platform  string           `json:"platform"`
	Place     string           `json:"place,omitempty"`
	Author    string           `json:"author,omitempty"`
	Title     string           `json:"title,omitempty"`
	Text      string           `json:"text,omitempty"`
	Date      string           `json:"date,omitempty"`
	Rating    *int             `json:"rating"`
	Sentiment review.Sentiment `json:"sentiment"`
	Period    period.Period    `json:"period"`
}

func toReviewJSON(rec storage.Record, b period.Boundary) reviewJSON {
	out := reviewJSON{
		ID:        rec.RowID,
		Platform:  rec.Platform,
		Place:     rec.Place,
		Author:    rec.Author,
		Title:     rec.Title,
		Text:      rec.Text,
		Sentiment: rec.Sentiment,
		Period:    period.Classify(rec.Date, b),
	}
	if rec.HasDate() {
		out.Date = rec.Date.Format("2006-01-02")
	}
	if rec.Valid() {
		rating := rec.Rating
		out.Rating = &rating
	}
	return out
}

func (s *Server) handleReviews(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts, err := listOptions(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	limit, _ := strconv.Atoi(q.Get("limit"))
	excludeBorder := q.Get("exclude_border") == "true"
	if !excludeBorder {
		opts.Limit = limit
	}
	recs, err := s.DB.ListReviews(r.Context(), opts)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	out := make([]reviewJSON, 0, len(recs))
	for _, rec := range recs {
		if excludeBorder && period.Classify(rec.Date, s.Boundary).IsBorder() {
			continue
		}
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, toReviewJSON(rec, s.Boundary))
	}
	writeJSON(w, out)
}

func (s *Server) handleReview(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid review id", http.StatusBadRequest)
		return
	}
	rec, err := s.DB.GetReview(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, toReviewJSON(rec, s.Boundary))
}

func (s *Server) handleImports(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	imports, err := s.DB.ListImports(r.Context(), limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, imports)
}
