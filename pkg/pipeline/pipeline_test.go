package pipeline

import (
	"bufio"
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/plazareviews/revscope/pkg/period"
	"github.com/plazareviews/revscope/pkg/review"
	"github.com/plazareviews/revscope/pkg/storage"
)

func day(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func boundary(t *testing.T) period.Boundary {
	t.Helper()
	b, err := period.ParseBoundary("2016-02-01", "2018-05-31")
	require.NoError(t, err)
	return b
}

// testLogger records warnings so tests can assert on them.
type testLogger struct {
	nopLogger
	warnings []string
}

func (l *testLogger) Warnf(format string, args ...interface{}) {
	l.warnings = append(l.warnings, format)
}

func TestSplit(t *testing.T) {
	reviews := []review.Review{
		{Text: "a", Date: day("2016-01-31"), Rating: 5},
		{Text: "b", Date: day("2016-02-01"), Rating: 4},
		{Text: "c", Date: day("2018-05-31"), Rating: 3},
		{Text: "d", Date: day("2018-06-01"), Rating: 2},
		{Text: "  ", Date: day("2017-01-01")},
		{Text: "no date"},
	}

	res := Split(reviews, boundary(t))
	assert.Len(t, res.Pre, 1)
	assert.Len(t, res.During, 2)
	assert.Len(t, res.Post, 1)
	assert.Equal(t, 2, res.Dropped)
}

func TestWriteSplit(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	res := Split([]review.Review{
		{Text: "before", Date: day("2015-05-05"), Rating: 5, Platform: "google"},
		{Text: "after", Date: day("2019-05-05"), Platform: "google"},
	}, boundary(t))

	paths, err := WriteSplit(dir, res, nil)
	require.NoError(t, err)
	require.Len(t, paths, 3)

	lines := readLines(t, paths[0])
	require.Len(t, lines, 1)
	assert.Equal(t, "2015-05-05", gjson.Get(lines[0], "date").String())
	assert.Equal(t, int64(5), gjson.Get(lines[0], "rating").Int())

	assert.Empty(t, readLines(t, paths[1]))

	post := readLines(t, paths[2])
	require.Len(t, post, 1)
	assert.Equal(t, gjson.Null, gjson.Get(post[0], "rating").Type)
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		out = append(out, sc.Text())
	}
	require.NoError(t, sc.Err())
	return out
}

func TestSummarize(t *testing.T) {
	s := Summarize([]review.Review{
		{Platform: "google", Date: day("2016-01-01"), Written: day("2016-01-11"), Rating: 5, Text: "abcd"},
		{Platform: "google", Date: day("2015-01-01"), Rating: 3, Text: "ab"},
		{Platform: "yelp", Rating: 0},
	})

	assert.Equal(t, 3, s.Reviews)
	assert.Equal(t, 2, s.Dated)
	assert.Equal(t, day("2015-01-01"), s.FirstDate)
	assert.Equal(t, day("2016-01-01"), s.LastDate)
	assert.Equal(t, 2, s.Rated)
	assert.Equal(t, 1, s.MissingRating)
	assert.Equal(t, 1, s.MissingText)
	assert.InDelta(t, 4.0, s.MeanRating, 1e-9)
	assert.InDelta(t, 4.0, s.MedianRating, 1e-9)
	assert.Equal(t, [review.MaxRating]int{0, 0, 1, 0, 1}, s.Stars)
	assert.InDelta(t, 3.0, s.MeanTextLength, 1e-9)
	assert.Equal(t, 1, s.Delay.N)
	assert.InDelta(t, 10.0, s.Delay.Mean, 1e-9)
	assert.Equal(t, map[string]int{"google": 2, "yelp": 1}, s.Platforms)
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	assert.Zero(t, s.Reviews)
	assert.True(t, math.IsNaN(s.MeanRating))
	assert.True(t, math.IsNaN(s.MeanTextLength))
}

func openDB(t *testing.T) *storage.DB {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "revscope.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestImportFiles(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "google.jsonl")
	b := filepath.Join(dir, "yelp.csv")
	require.NoError(t, os.WriteFile(a, []byte(`{"datetime": 1497484800, "stars": 4, "text": "ok", "author": "A"}`+"\n"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("date,rating,text,platform\n2015-03-03,5,great,yelp\n2017-03-03,2,fenced,yelp\n"), 0o644))

	db := openDB(t)
	log := &testLogger{}
	var done []string
	report, err := ImportFiles(context.Background(), ImportConfig{
		DB:         db,
		Files:      []string{a, filepath.Join(dir, "missing.json"), b},
		Boundary:   boundary(t),
		Log:        log,
		OnFileDone: func(path string, _ storage.ImportResult) { done = append(done, path) },
	})
	require.NoError(t, err)
	require.Len(t, report.Results, 2)
	assert.Len(t, report.Errors, 1)
	assert.Equal(t, []string{a, b}, done)
	assert.Equal(t, 2, report.Results[1].Added)
	assert.NotEmpty(t, log.warnings)

	recs, err := db.ListReviews(context.Background(), storage.ListOptions{})
	require.NoError(t, err)
	assert.Len(t, recs, 3)
}

// stubClassifier labels by keyword and never touches the network.
type stubClassifier struct{ calls int }

func (s *stubClassifier) Classify(_ context.Context, texts []string) ([]review.Sentiment, error) {
	s.calls++
	out := make([]review.Sentiment, len(texts))
	for i, t := range texts {
		switch {
		case strings.Contains(t, "great"):
			out[i] = review.SentimentPositive
		case strings.Contains(t, "fenced"):
			out[i] = review.SentimentNegative
		}
	}
	return out, nil
}

func TestScoreSentiment(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	_, err := db.UpsertReviews(ctx, "s", []review.Review{
		{ID: "1", Platform: "yelp", Text: "great plaza", Date: day("2015-01-01"), Rating: 5},
		{ID: "2", Platform: "yelp", Text: "fenced off", Date: day("2017-01-01"), Rating: 1},
		{ID: "3", Platform: "yelp", Text: "hmm", Date: day("2019-01-01"), Rating: 3},
		{ID: "4", Platform: "yelp", Date: day("2019-01-01"), Rating: 3},
	}, boundary(t))
	require.NoError(t, err)

	stub := &stubClassifier{}
	report, err := ScoreSentiment(ctx, ScoreConfig{DB: db, Classifier: stub, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, stub.calls)
	assert.Equal(t, 2, report.Scored)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 1, report.Counts[review.SentimentNegative])

	left, err := db.ListReviews(ctx, storage.ListOptions{OnlyUnscored: true})
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, "hmm", left[0].Text)

	_, err = ScoreSentiment(ctx, ScoreConfig{DB: db})
	assert.Error(t, err)
}
