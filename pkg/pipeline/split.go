package pipeline

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/plazareviews/revscope/pkg/period"
	"github.com/plazareviews/revscope/pkg/review"
)

// SplitResult holds reviews grouped by the inclusive three-way split.
type SplitResult struct {
	Pre     []review.Review
	During  []review.Review
	Post    []review.Review
	Dropped int // reviews without text or date
}

// Split groups reviews into pre, during and post construction using
// period.ClassifyInclusive. Reviews with no text or no date are dropped.
func Split(reviews []review.Review, b period.Boundary) SplitResult {
	var res SplitResult
	for _, r := range reviews {
		if strings.TrimSpace(r.Text) == "" || !r.HasDate() {
			res.Dropped++
			continue
		}
		switch period.ClassifyInclusive(r.Date, b) {
		case period.Pre:
			res.Pre = append(res.Pre, r)
		case period.During:
			res.During = append(res.During, r)
		case period.Post:
			res.Post = append(res.Post, r)
		}
	}
	return res
}

// splitLine is one JSON line in a period file.
type splitLine struct {
	Date      string           `json:"date"`
	Platform  string           `json:"platform"`
	Rating    *int             `json:"rating"`
	Sentiment review.Sentiment `json:"sentiment"`
	Text      string           `json:"text"`
}

// WriteSplit writes pre.jsonl, during.jsonl and post.jsonl into dir and
// returns the paths written.
func WriteSplit(dir string, res SplitResult, log Logger) ([]string, error) {
	log = orNop(log)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	files := []struct {
		name    string
		reviews []review.Review
	}{
		{"pre.jsonl", res.Pre},
		{"during.jsonl", res.During},
		{"post.jsonl", res.Post},
	}

	var written []string
	for _, f := range files {
		path := filepath.Join(dir, f.name)
		if err := writeLines(path, f.reviews); err != nil {
			return written, fmt.Errorf("writing %s: %w", path, err)
		}
		log.Infof("%s: %d reviews", path, len(f.reviews))
		written = append(written, path)
	}
	return written, nil
}

func writeLines(path string, reviews []review.Review) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, r := range reviews {
		line := splitLine{
			Date:      r.Date.Format("2006-01-02"),
			Platform:  r.Platform,
			Sentiment: r.Sentiment,
			Text:      r.Text,
		}
		if r.Valid() {
			rating := r.Rating
			line.Rating = &rating
		}
		if err := enc.Encode(line); err != nil {
			return err
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return f.Close()
}
