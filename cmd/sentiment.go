package cmd

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/plazareviews/revscope/internal/utils"
	"github.com/plazareviews/revscope/pkg/pipeline"
	"github.com/plazareviews/revscope/pkg/review"
	"github.com/plazareviews/revscope/pkg/sentiment"
)

var sentimentCmd = &cobra.Command{
	Use:   "sentiment",
	Short: "Label unscored reviews in the database as negative, neutral or positive",
	Long: `Sends the text of every stored review without a sentiment label to the
configured chat-completions API (sentiment.* in the config file, API key from
sentiment.api_key or OPENAI_API_KEY) and stores the labels.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		s, err := settings()
		if err != nil {
			return err
		}
		classifier, err := sentiment.New(sentiment.Config{
			Provider:       s.Sentiment.Provider,
			APIKey:         s.Sentiment.APIKey,
			Model:          s.Sentiment.Model,
			Endpoint:       s.Sentiment.Endpoint,
			MaxBatch:       s.Sentiment.MaxBatch,
			MaxConcurrency: s.Sentiment.MaxConcurrency,
		})
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		return utils.WithDBLock(ctx, s.DBPath, func() error {
			db, err := openDB(s.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()

			platform, _ := cmd.Flags().GetString("platform")
			limit, _ := cmd.Flags().GetInt("limit")
			pageSize, _ := cmd.Flags().GetInt("page-size")
			report, err := pipeline.ScoreSentiment(ctx, pipeline.ScoreConfig{
				DB:         db,
				Classifier: classifier,
				Platform:   platform,
				Limit:      limit,
				PageSize:   pageSize,
				Log:        utils.Log,
			})
			if report != nil {
				fmt.Printf("Scored %d reviews: %d positive, %d neutral, %d negative (%d without a usable label)\n",
					report.Scored, report.Counts[review.SentimentPositive], report.Counts[review.SentimentNeutral],
					report.Counts[review.SentimentNegative], report.Skipped)
			}
			return err
		})
	},
}

func init() {
	rootCmd.AddCommand(sentimentCmd)
	sentimentCmd.Flags().StringP("platform", "p", "all", "Only score reviews from this platform")
	sentimentCmd.Flags().Int("limit", 0, "Score at most N reviews (0 = all)")
	sentimentCmd.Flags().Int("page-size", 100, "Reviews stored per round trip")
}
