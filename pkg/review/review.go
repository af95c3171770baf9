package review

import (
	"errors"
	"strings"
	"time"
)

// ErrNoReviews is returned by loaders and commands that need at least one review.
var ErrNoReviews = errors.New("no reviews")

const (
	MinRating = 1
	MaxRating = 5
)

// Review is a single normalized review, independent of the platform it came from.
// A zero Date means the review date was missing or unparseable. A Rating outside
// MinRating..MaxRating (including 0, used for "missing") is invalid.
type Review struct {
	// Source info
	ID       string
	Platform string
	Place    string
	URL      string

	// Author info
	Author         string
	AuthorLocation string

	// Content
	Title     string
	Text      string
	Date      time.Time // date of experience
	Written   time.Time // date the review was published, if known
	Rating    int
	Sentiment Sentiment
	Helpful   int
	Photos    int
}

// Valid reports whether the review carries a usable rating.
func (r Review) Valid() bool {
	return ValidRating(r.Rating)
}

// HasDate reports whether the review can be placed on a timeline.
func (r Review) HasDate() bool {
	return !r.Date.IsZero()
}

func ValidRating(rating int) bool {
	return rating >= MinRating && rating <= MaxRating
}

// Known platforms.
const (
	PlatformTripAdvisor = "tripadvisor"
	PlatformGoogle      = "google"
	PlatformYelp        = "yelp"
	PlatformUnknown     = "unknown"
)

var platformAliases = map[string][]string{
	PlatformTripAdvisor: {"tripadvisor", "trip advisor", "ta"},
	PlatformGoogle:      {"google", "google maps", "googlemaps", "gmaps"},
	PlatformYelp:        {"yelp"},
}

var platformMap map[string]string

func init() {
	platformMap = make(map[string]string)
	for platform, aliases := range platformAliases {
		for _, a := range aliases {
			platformMap[a] = platform
		}
	}
}

// NormalizePlatform maps free-form platform names onto the known platform set.
// Unknown non-empty names are lowercased and returned as-is.
func NormalizePlatform(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return PlatformUnknown
	}
	if p, ok := platformMap[n]; ok {
		return p
	}
	return n
}
