package cmd

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/plazareviews/revscope/internal/utils"
	"github.com/plazareviews/revscope/pkg/loader"
	"github.com/plazareviews/revscope/pkg/pipeline"
)

var summaryCmd = &cobra.Command{
	Use:   "summary <file>...",
	Short: "Describe review datasets: counts, date range, ratings, missing fields",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := loaderOptions(cmd)
		if err != nil {
			return err
		}

		for i, path := range args {
			reviews, err := loader.LoadFile(path, opts)
			if err != nil {
				return err
			}
			if i > 0 {
				fmt.Println()
			}
			printSummary(path, pipeline.Summarize(reviews))
		}
		return nil
	},
}

func printSummary(name string, s pipeline.Summary) {
	fmt.Printf("--- %s ---\n", name)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "reviews\t%d\n", s.Reviews)
	if s.Dated > 0 {
		fmt.Fprintf(w, "date range\t%s to %s\n", s.FirstDate.Format("2006-01-02"), s.LastDate.Format("2006-01-02"))
	}
	fmt.Fprintf(w, "missing date\t%d\n", s.Reviews-s.Dated)
	fmt.Fprintf(w, "avg rating\t%s\n", utils.FormatFloat(s.MeanRating, 2))
	fmt.Fprintf(w, "median rating\t%s\n", utils.FormatFloat(s.MedianRating, 1))
	fmt.Fprintf(w, "missing rating\t%d\n", s.MissingRating)
	fmt.Fprintf(w, "missing text\t%d\n", s.MissingText)
	fmt.Fprintf(w, "avg text length\t%s\n", utils.FormatFloat(s.MeanTextLength, 1))
	if s.Delay.N > 0 {
		fmt.Fprintf(w, "days to write (median)\t%s\n", utils.FormatFloat(s.Delay.Median, 0))
	}
	for star := len(s.Stars); star >= 1; star-- {
		pct := 0.0
		if s.Reviews > 0 {
			pct = float64(s.Stars[star-1]) / float64(s.Reviews) * 100
		}
		fmt.Fprintf(w, "rating %d\t%d (%.1f%%)\n", star, s.Stars[star-1], pct)
	}

	platforms := make([]string, 0, len(s.Platforms))
	for p := range s.Platforms {
		platforms = append(platforms, p)
	}
	sort.Strings(platforms)
	for _, p := range platforms {
		fmt.Fprintf(w, "platform %s\t%d\n", p, s.Platforms[p])
	}
	w.Flush()
}

func init() {
	rootCmd.AddCommand(summaryCmd)
	addInputFlags(summaryCmd)
}
