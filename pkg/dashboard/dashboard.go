// Package dashboard builds the JSON document consumed by the review analytics
// frontend.
package dashboard

import (
	"encoding/json"
	"io"
	"sort"

	"github.com/plazareviews/revscope/pkg/period"
	"github.com/plazareviews/revscope/pkg/review"
)

// Options controls what Build computes.
type Options struct {
	Boundary period.Boundary
	Rolling  period.RollingOptions
}

// Data is the dashboard export. Undated reviews never appear in it.
type Data struct {
	Construction           Construction     `json:"construction"`
	RatingsByPeriod        []PeriodRating   `json:"ratingsByPeriod"`
	RatingOverTime         []TimePoint      `json:"ratingOverTime"`
	MonthlyRolling         []RollingPoint   `json:"monthlyRolling"`
	MultiPlatformTimeline  []PlatformPoint  `json:"multiPlatformTimeline"`
	ReviewVolumeByPlatform []PlatformVolume `json:"reviewVolumeByPlatform"`
	SentimentByPeriod      []SentimentCount `json:"sentimentByPeriod"`
}

type Construction struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type PeriodRating struct {
	Key       period.Period `json:"key"`
	Period    string        `json:"period"`
	AvgRating *float64      `json:"avgRating"`
	Reviews   int           `json:"reviews"`
}

type TimePoint struct {
	Month   string   `json:"month"`
	Rating  *float64 `json:"rating"`
	Reviews int      `json:"reviews"`
}

type RollingPoint struct {
	Month   string   `json:"month"`
	Rating  *float64 `json:"rating"`
	Rolling *float64 `json:"rolling"`
	Reviews int      `json:"reviews"`
}

// PlatformPoint is one quarter of the multi-platform timeline. It encodes as
// {"month": ..., "<platform>Rating": ...} with null for platforms that have
// no rated review in the quarter.
type PlatformPoint struct {
	Month   string
	Ratings map[string]*float64
}

func (p PlatformPoint) MarshalJSON() ([]byte, error) {
	m := make(map[string]interface{}, len(p.Ratings)+1)
	m["month"] = p.Month
	for platform, v := range p.Ratings {
		m[platform+"Rating"] = v
	}
	return json.Marshal(m)
}

// PlatformVolume is the review count of each platform in one period, encoded
// as {"period": ..., "<platform>": count}.
type PlatformVolume struct {
	Period string
	Counts map[string]int
}

func (v PlatformVolume) MarshalJSON() ([]byte, error) {
	m := make(map[string]interface{}, len(v.Counts)+1)
	m["period"] = v.Period
	for platform, n := range v.Counts {
		m[platform] = n
	}
	return json.Marshal(m)
}

type SentimentCount struct {
	Period    string   `json:"period"`
	Positive  int      `json:"positive"`
	Neutral   int      `json:"neutral"`
	Negative  int      `json:"negative"`
	Unknown   int      `json:"unknown"`
	MeanScore *float64 `json:"meanScore"`
}

// Build computes every dashboard series from reviews.
func Build(reviews []review.Review, opts Options) (Data, error) {
	dated := make([]review.Review, 0, len(reviews))
	for _, r := range reviews {
		if r.HasDate() {
			dated = append(dated, r)
		}
	}

	b := opts.Boundary
	d := Data{
		Construction: Construction{
			Start: b.Start.Format("2006-01-02"),
			End:   b.End.Format("2006-01-02"),
		},
		RatingsByPeriod:        []PeriodRating{},
		RatingOverTime:         []TimePoint{},
		MonthlyRolling:         []RollingPoint{},
		MultiPlatformTimeline:  []PlatformPoint{},
		ReviewVolumeByPlatform: []PlatformVolume{},
		SentimentByPeriod:      []SentimentCount{},
	}

	for _, bk := range period.Aggregate(dated, b, period.ByPeriod) {
		p := period.Period(bk.Key)
		d.RatingsByPeriod = append(d.RatingsByPeriod, PeriodRating{
			Key:       p,
			Period:    p.Label(),
			AvgRating: period.Nullable(bk.Mean),
			Reviews:   bk.Count,
		})
	}

	for _, bk := range period.Aggregate(dated, b, period.ByQuarter) {
		d.RatingOverTime = append(d.RatingOverTime, TimePoint{
			Month:   bk.Key,
			Rating:  period.Nullable(bk.Mean),
			Reviews: bk.Count,
		})
	}

	points, err := period.RollingBuckets(period.Aggregate(dated, b, period.ByMonth), opts.Rolling)
	if err != nil {
		return Data{}, err
	}
	for _, pt := range points {
		d.MonthlyRolling = append(d.MonthlyRolling, RollingPoint{
			Month:   pt.Key,
			Rating:  period.Nullable(pt.Value),
			Rolling: period.Nullable(pt.Rolling),
			Reviews: pt.Count,
		})
	}

	platforms := period.Platforms(dated)
	sort.Strings(platforms)
	d.MultiPlatformTimeline = multiPlatform(dated, b, platforms)
	d.ReviewVolumeByPlatform = volumeByPlatform(dated, b, platforms)
	d.SentimentByPeriod = sentimentByPeriod(dated, b)
	return d, nil
}

func multiPlatform(reviews []review.Review, b period.Boundary, platforms []string) []PlatformPoint {
	perPlatform := make(map[string]map[string]period.Bucket, len(platforms))
	for _, p := range platforms {
		perPlatform[p] = period.Index(period.Aggregate(period.ByPlatform(reviews, p), b, period.ByQuarter))
	}

	out := []PlatformPoint{}
	for _, bk := range period.Aggregate(reviews, b, period.ByQuarter) {
		pt := PlatformPoint{Month: bk.Key, Ratings: make(map[string]*float64, len(platforms))}
		for _, p := range platforms {
			var v *float64
			if pb, ok := perPlatform[p][bk.Key]; ok {
				v = period.Nullable(pb.Mean)
			}
			pt.Ratings[p] = v
		}
		out = append(out, pt)
	}
	return out
}

func volumeByPlatform(reviews []review.Review, b period.Boundary, platforms []string) []PlatformVolume {
	counts := make(map[period.Period]map[string]int)
	for _, r := range reviews {
		p := period.Classify(r.Date, b)
		if counts[p] == nil {
			counts[p] = make(map[string]int, len(platforms))
			for _, name := range platforms {
				counts[p][name] = 0
			}
		}
		counts[p][r.Platform]++
	}

	out := []PlatformVolume{}
	for _, p := range period.Order {
		if c, ok := counts[p]; ok {
			out = append(out, PlatformVolume{Period: p.Label(), Counts: c})
		}
	}
	return out
}

func sentimentByPeriod(reviews []review.Review, b period.Boundary) []SentimentCount {
	counts := make(map[period.Period]*SentimentCount)
	for _, r := range reviews {
		p := period.Classify(r.Date, b)
		c, ok := counts[p]
		if !ok {
			c = &SentimentCount{Period: p.Label()}
			counts[p] = c
		}
		switch r.Sentiment {
		case review.SentimentPositive:
			c.Positive++
		case review.SentimentNeutral:
			c.Neutral++
		case review.SentimentNegative:
			c.Negative++
		default:
			c.Unknown++
		}
	}

	means := period.Index(period.AggregateField(reviews, b, period.ByPeriod, period.SentimentField))
	out := []SentimentCount{}
	for _, p := range period.Order {
		c, ok := counts[p]
		if !ok {
			continue
		}
		c.MeanScore = period.Nullable(means[string(p)].Mean)
		out = append(out, *c)
	}
	return out
}

// WriteJSON writes d as indented JSON.
func WriteJSON(w io.Writer, d Data) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(d)
}
