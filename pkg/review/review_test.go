package review

import (
	"encoding/json"
	"testing"
)

func TestNormalizePlatform(t *testing.T) {
	tests := map[string]string{
		"TripAdvisor":  PlatformTripAdvisor,
		" google maps": PlatformGoogle,
		"YELP":         PlatformYelp,
		"":             PlatformUnknown,
		"Foursquare":   "foursquare",
	}
	for in, want := range tests {
		if got := NormalizePlatform(in); got != want {
			t.Errorf("NormalizePlatform(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestValidRating(t *testing.T) {
	for _, r := range []int{1, 2, 3, 4, 5} {
		if !ValidRating(r) {
			t.Errorf("rating %d should be valid", r)
		}
	}
	for _, r := range []int{-1, 0, 6} {
		if ValidRating(r) {
			t.Errorf("rating %d should be invalid", r)
		}
	}
}

func TestSentiment(t *testing.T) {
	if got := ParseSentiment(" Positive."); got != SentimentPositive {
		t.Fatalf("got %q", got)
	}
	if got := ParseSentiment("mixed"); got != SentimentUnknown {
		t.Fatalf("got %q", got)
	}
	if s, ok := SentimentNegative.Score(); !ok || s != -1 {
		t.Fatalf("negative score = %v, %v", s, ok)
	}
	if _, ok := SentimentUnknown.Score(); ok {
		t.Fatal("unknown sentiment should not score")
	}

	var out struct {
		A Sentiment `json:"a"`
		B Sentiment `json:"b"`
	}
	if err := json.Unmarshal([]byte(`{"a":"neutral","b":null}`), &out); err != nil {
		t.Fatal(err)
	}
	if out.A != SentimentNeutral || out.B != SentimentUnknown {
		t.Fatalf("unexpected decode: %+v", out)
	}
	data, _ := json.Marshal(out)
	if string(data) != `{"a":"neutral","b":null}` {
		t.Fatalf("unexpected encode: %s", data)
	}
}
