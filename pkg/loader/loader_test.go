package loader

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/plazareviews/revscope/pkg/review"
)

func day(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func TestLoadJSONArrayTripAdvisor(t *testing.T) {
	in := `[
	  {"review_id": "r1", "user_name": "Ann", "rating": 5, "date_of_experience": "2015-06-01",
	   "date_written": "2015-06-10 00:00:00", "title": "Great", "text": "<p>Loved&nbsp;it</p><p>Again</p>",
	   "url": "https://www.tripadvisor.com/ShowUserReviews-g60795"},
	  {"review_id": "r2", "user_name": "Bob", "rating": "4.0", "date_of_experience": "NaT", "text": null},
	  {"review_id": "r3", "rating": 4.5, "date_of_experience": 1455494400000}
	]`

	got, err := Load(strings.NewReader(in), Options{Format: FormatJSON})
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "r1", got[0].ID)
	assert.Equal(t, 5, got[0].Rating)
	assert.Equal(t, day("2015-06-01"), got[0].Date)
	assert.Equal(t, day("2015-06-10"), got[0].Written)
	assert.Equal(t, "Loved it Again", got[0].Text)
	assert.Equal(t, review.PlatformTripAdvisor, got[0].Platform)

	assert.Equal(t, 4, got[1].Rating)
	assert.True(t, got[1].Date.IsZero())
	assert.Empty(t, got[1].Text)
	assert.Equal(t, review.PlatformUnknown, got[1].Platform)

	assert.Equal(t, 0, got[2].Rating, "fractional ratings are invalid")
	assert.Equal(t, day("2016-02-15"), got[2].Date, "pandas epoch milliseconds")
}

func TestLoadJSONLinesGoogle(t *testing.T) {
	in := `{"datetime": 1497484800, "google_maps_star_rating": 3, "text": "ok", "author": "C"}

{"datetime": null, "stars": 1, "text": "bad"}
`
	got, err := Load(strings.NewReader(in), Options{Format: FormatJSONL, Platform: "Google Maps", Place: "LOVE Park"})
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, day("2017-06-15"), got[0].Date)
	assert.Equal(t, 3, got[0].Rating)
	assert.Equal(t, review.PlatformGoogle, got[0].Platform)
	assert.Equal(t, "LOVE Park", got[0].Place)
	assert.True(t, got[1].Date.IsZero())
	assert.Equal(t, 1, got[1].Rating)
}

func TestLoadJSONInvalid(t *testing.T) {
	_, err := Load(strings.NewReader(`[{"rating": 5,`), Options{Format: FormatJSON})
	assert.Error(t, err)

	_, err = Load(strings.NewReader("{\"rating\": 5}\nnot json\n"), Options{Format: FormatJSONL})
	assert.Error(t, err)

	got, err := Load(strings.NewReader("  "), Options{Format: FormatJSON})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestLoadCSV(t *testing.T) {
	in := "\ufeffDate,Rating,Text,Platform,Sentiment\n" +
		"2019-01-05,5,\"Nice, clean\",yelp,Positive\n" +
		"bad date,x,,Yelp\n"

	got, err := Load(strings.NewReader(in), Options{Format: FormatCSV})
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, day("2019-01-05"), got[0].Date)
	assert.Equal(t, "Nice, clean", got[0].Text)
	assert.Equal(t, review.PlatformYelp, got[0].Platform)
	assert.Equal(t, review.SentimentPositive, got[0].Sentiment)
	assert.True(t, got[1].Date.IsZero())
	assert.Equal(t, 0, got[1].Rating)
}

func TestLoadXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tripadvisor.xlsx")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"review_id", "date_of_experience", "rating", "text"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"x1", time.Date(2016, 2, 15, 0, 0, 0, 0, time.UTC), 4, "Fine"}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]interface{}{"x2", "2019-07-04", 2, "Meh"}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	got, err := LoadFile(path, Options{Platform: "tripadvisor"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, day("2016-02-15"), got[0].Date)
	assert.Equal(t, 4, got[0].Rating)
	assert.Equal(t, day("2019-07-04"), got[1].Date)
	assert.Equal(t, review.PlatformTripAdvisor, got[1].Platform)
}

func TestLoadFilesAndDetectFormat(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.json")
	b := filepath.Join(dir, "b.jsonl")
	require.NoError(t, os.WriteFile(a, []byte(`[{"rating": 5, "date": "2015-01-01"}]`), 0o644))
	require.NoError(t, os.WriteFile(b, []byte(`{"rating": 1, "date": "2019-01-01"}`+"\n"), 0o644))

	got, err := LoadFiles([]string{a, b}, Options{})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	_, err = LoadFile(filepath.Join(dir, "reviews.parquet"), Options{})
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	f, err := ParseFormat("ndjson")
	require.NoError(t, err)
	assert.Equal(t, FormatJSONL, f)
}

func TestPlatformFromURL(t *testing.T) {
	tests := map[string]string{
		"https://www.tripadvisor.co.uk/Attraction_Review": review.PlatformTripAdvisor,
		"https://maps.google.com/?cid=123":                review.PlatformGoogle,
		"www.yelp.com/biz/love-park-philadelphia":         review.PlatformYelp,
		"":                                                review.PlatformUnknown,
		"not a url at all":                                review.PlatformUnknown,
	}
	for in, want := range tests {
		assert.Equal(t, want, PlatformFromURL(in), in)
	}
}

func TestCleanText(t *testing.T) {
	assert.Equal(t, "Fish & Chips", CleanText("Fish &amp; Chips"))
	assert.Equal(t, "line one line two", CleanText("line one<br>line two"))
	assert.Equal(t, "a b", CleanText("  a \n\t b "))
	// Decomposed e + combining acute becomes the single precomposed rune.
	assert.Equal(t, "caf\u00e9", CleanText("cafe\u0301"))
}

func TestCleanField(t *testing.T) {
	assert.Equal(t, "Great view of City Hall", CleanField("<b>Great</b> view of City&nbsp;Hall"))
	assert.Equal(t, "Tom & Jerry", CleanField("  Tom &amp; Jerry "))
	assert.Equal(t, "plain", CleanField("plain"))
}
