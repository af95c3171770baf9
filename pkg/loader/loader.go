// Package loader reads review dumps (JSON, JSON lines, CSV, Excel) and maps
// their loosely-typed columns onto review.Review.
package loader

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/plazareviews/revscope/internal/utils"
	"github.com/plazareviews/revscope/pkg/period"
	"github.com/plazareviews/revscope/pkg/review"
)

// ErrUnsupportedFormat is returned for files whose format can't be determined.
var ErrUnsupportedFormat = errors.New("unsupported input format")

// Format identifies an input encoding.
type Format string

const (
	FormatAuto  Format = ""
	FormatJSON  Format = "json"
	FormatJSONL Format = "jsonl"
	FormatCSV   Format = "csv"
	FormatXLSX  Format = "xlsx"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatAuto, FormatJSON, FormatJSONL, FormatCSV, FormatXLSX:
		return f, nil
	case "auto":
		return FormatAuto, nil
	case "ndjson":
		return FormatJSONL, nil
	case "excel", "xls":
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// Options controls how records are mapped.
type Options struct {
	Format Format
	// Platform overrides the platform of every review when set.
	Platform string
	// Place is stored on reviews that don't carry one.
	Place string
	// Sheet selects the Excel sheet; the first sheet is used when empty.
	Sheet string
}

// DetectFormat guesses the format from the file extension.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".jsonl", ".ndjson":
		return FormatJSONL, nil
	case ".csv":
		return FormatCSV, nil
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
}

// LoadFile reads all reviews in path.
func LoadFile(path string, opts Options) ([]review.Review, error) {
	format := opts.Format
	if format == FormatAuto {
		var err error
		if format, err = DetectFormat(path); err != nil {
			return nil, err
		}
	}

	if format == FormatXLSX {
		records, err := readXLSX(path, opts.Sheet)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		return mapRecords(records, opts), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	o := opts
	o.Format = format
	reviews, err := Load(f, o)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	utils.Log.Debugf("[loader] %s: %d reviews", path, len(reviews))
	return reviews, nil
}

// LoadFiles reads several files and concatenates their reviews.
func LoadFiles(paths []string, opts Options) ([]review.Review, error) {
	var all []review.Review
	for _, p := range paths {
		reviews, err := LoadFile(p, opts)
		if err != nil {
			return nil, err
		}
		all = append(all, reviews...)
	}
	return all, nil
}

// Load reads reviews from r. Format must be set; Excel input needs LoadFile.
func Load(r io.Reader, opts Options) ([]review.Review, error) {
	var (
		records []record
		err     error
	)
	switch opts.Format {
	case FormatJSON, FormatJSONL:
		data, rerr := io.ReadAll(r)
		if rerr != nil {
			return nil, rerr
		}
		records, err = readJSON(data)
	case FormatCSV:
		records, err = readCSV(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, opts.Format)
	}
	if err != nil {
		return nil, err
	}
	return mapRecords(records, opts), nil
}

// record is one input row with lowercased column names.
type record map[string]string

// get returns the first non-empty value among keys.
func (r record) get(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(r[k]); v != "" {
			return v
		}
	}
	return ""
}

// Column aliases seen across the TripAdvisor, Google and Yelp exports.
var (
	idKeys        = []string{"review_id", "id"}
	dateKeys      = []string{"date_of_experience", "date", "datetime", "published_at", "time"}
	writtenKeys   = []string{"date_written", "written", "published_date"}
	ratingKeys    = []string{"rating", "stars", "google_maps_star_rating", "star_rating", "review_rating"}
	authorKeys    = []string{"user_name", "author", "username", "reviewer", "name"}
	locationKeys  = []string{"user_location", "author_location", "location"}
	titleKeys     = []string{"title", "review_title"}
	textKeys      = []string{"text_processed", "text", "review_text", "content"}
	platformKeys  = []string{"platform", "source"}
	urlKeys       = []string{"url", "review_url", "link"}
	placeKeys     = []string{"place", "location_name", "business"}
	sentimentKeys = []string{"sentiment"}
	helpfulKeys   = []string{"helpful_votes", "helpful", "likes"}
	photoKeys     = []string{"photos", "photo_count"}
)

func mapRecords(records []record, opts Options) []review.Review {
	out := make([]review.Review, 0, len(records))
	for _, rec := range records {
		out = append(out, fromRecord(rec, opts))
	}
	return out
}

func fromRecord(rec record, opts Options) review.Review {
	r := review.Review{
		ID:             rec.get(idKeys...),
		URL:            rec.get(urlKeys...),
		Place:          rec.get(placeKeys...),
		Author:         CleanField(rec.get(authorKeys...)),
		AuthorLocation: CleanField(rec.get(locationKeys...)),
		Title:          CleanField(rec.get(titleKeys...)),
		Text:           CleanText(rec.get(textKeys...)),
		Rating:         parseRating(rec.get(ratingKeys...)),
		Sentiment:      review.ParseSentiment(rec.get(sentimentKeys...)),
		Helpful:        parseCount(rec.get(helpfulKeys...)),
		Photos:         parseCount(rec.get(photoKeys...)),
	}
	r.Date, _ = period.ParseDate(rec.get(dateKeys...))
	r.Written, _ = period.ParseDate(rec.get(writtenKeys...))

	switch {
	case opts.Platform != "":
		r.Platform = review.NormalizePlatform(opts.Platform)
	case rec.get(platformKeys...) != "":
		r.Platform = review.NormalizePlatform(rec.get(platformKeys...))
	default:
		r.Platform = PlatformFromURL(r.URL)
	}
	if r.Place == "" {
		r.Place = opts.Place
	}
	return r
}

// parseRating accepts whole-star ratings written as integers or floats ("4", "4.0").
// Fractional or unparseable values become 0, which is invalid.
func parseRating(s string) int {
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || f != math.Trunc(f) {
		utils.Log.Debugf("[loader] ignoring rating %q", s)
		return 0
	}
	return int(f)
}

func parseCount(s string) int {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 || math.IsNaN(f) {
		return 0
	}
	return int(f)
}
