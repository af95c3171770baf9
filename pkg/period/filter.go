package period

import "github.com/plazareviews/revscope/pkg/review"

// ExcludeBorder drops reviews whose date falls in either border month.
// Undated reviews are kept.
func ExcludeBorder(reviews []review.Review, b Boundary) []review.Review {
	out := make([]review.Review, 0, len(reviews))
	for _, r := range reviews {
		if Classify(r.Date, b).IsBorder() {
			continue
		}
		out = append(out, r)
	}
	return out
}

// ByPlatform keeps reviews from one platform. An empty or "all" platform keeps everything.
func ByPlatform(reviews []review.Review, platform string) []review.Review {
	if platform == "" || platform == "all" {
		return reviews
	}
	platform = review.NormalizePlatform(platform)
	out := make([]review.Review, 0, len(reviews))
	for _, r := range reviews {
		if r.Platform == platform {
			out = append(out, r)
		}
	}
	return out
}

// Platforms returns the distinct platforms present, in first-seen order.
func Platforms(reviews []review.Review) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range reviews {
		if seen[r.Platform] {
			continue
		}
		seen[r.Platform] = true
		out = append(out, r.Platform)
	}
	return out
}
