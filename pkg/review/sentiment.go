package review

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Sentiment is the polarity label assigned to a review's text.
type Sentiment string

const (
	SentimentUnknown  Sentiment = ""
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
	SentimentPositive Sentiment = "positive"
)

// ParseSentiment accepts the labels returned by the classifier, case-insensitive,
// tolerating trailing punctuation. Anything else is SentimentUnknown.
func ParseSentiment(s string) Sentiment {
	s = strings.Trim(strings.ToLower(strings.TrimSpace(s)), ".!\"' ")
	switch Sentiment(s) {
	case SentimentNegative, SentimentNeutral, SentimentPositive:
		return Sentiment(s)
	}
	return SentimentUnknown
}

// Score maps positive/neutral/negative to 1/0/-1. ok is false for unknown sentiment.
func (s Sentiment) Score() (score float64, ok bool) {
	switch s {
	case SentimentPositive:
		return 1, true
	case SentimentNeutral:
		return 0, true
	case SentimentNegative:
		return -1, true
	}
	return 0, false
}

func (s Sentiment) String() string {
	if s == SentimentUnknown {
		return "unknown"
	}
	return string(s)
}

func (s Sentiment) MarshalJSON() ([]byte, error) {
	if s == SentimentUnknown {
		return []byte("null"), nil
	}
	return json.Marshal(string(s))
}

func (s *Sentiment) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = SentimentUnknown
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return fmt.Errorf("sentiment: %w", err)
	}
	*s = ParseSentiment(str)
	return nil
}
