package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/plazareviews/revscope/pkg/review"
	"github.com/plazareviews/revscope/pkg/sentiment"
	"github.com/plazareviews/revscope/pkg/storage"
)

// ScoreConfig holds everything ScoreSentiment needs.
type ScoreConfig struct {
	DB         *storage.DB
	Classifier sentiment.Classifier
	Platform   string
	Limit      int // maximum reviews to score; 0 = all unscored
	PageSize   int // reviews per classifier call; defaults to 100 if <= 0
	Log        Logger
}

// ScoreReport holds the outcome of a scoring run.
type ScoreReport struct {
	Scored  int
	Counts  map[review.Sentiment]int
	Skipped int // reviews the classifier returned no usable label for
}

// ScoreSentiment labels stored reviews that have text and no sentiment yet.
// Results are written after every page so an interrupted run keeps its work.
func ScoreSentiment(ctx context.Context, cfg ScoreConfig) (*ScoreReport, error) {
	log := orNop(cfg.Log)
	if cfg.Classifier == nil {
		return nil, errors.New("no sentiment classifier configured")
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 100
	}

	pending, err := cfg.DB.ListReviews(ctx, storage.ListOptions{Platform: cfg.Platform, OnlyUnscored: true, Limit: cfg.Limit})
	if err != nil {
		return nil, err
	}
	log.Infof("%d reviews to score", len(pending))

	report := &ScoreReport{Counts: make(map[review.Sentiment]int)}
	for start := 0; start < len(pending); start += pageSize {
		end := start + pageSize
		if end > len(pending) {
			end = len(pending)
		}
		page := pending[start:end]

		texts := make([]string, len(page))
		for i, rec := range page {
			texts[i] = rec.Text
		}
		labels, err := cfg.Classifier.Classify(ctx, texts)
		if err != nil {
			return report, err
		}
		if len(labels) != len(page) {
			return report, fmt.Errorf("classifier returned %d labels for %d reviews", len(labels), len(page))
		}

		updates := make(map[int64]review.Sentiment, len(page))
		for i, rec := range page {
			if labels[i] == review.SentimentUnknown {
				report.Skipped++
				continue
			}
			updates[rec.RowID] = labels[i]
			report.Counts[labels[i]]++
		}
		n, err := cfg.DB.UpdateSentiment(ctx, updates)
		if err != nil {
			return report, err
		}
		report.Scored += n
		log.Debugf("scored %d/%d", end, len(pending))
	}
	return report, nil
}
