package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/plazareviews/revscope/internal/utils"
	"github.com/plazareviews/revscope/pkg/period"
)

var rollingCmd = &cobra.Command{
	Use:   "rolling [file...]",
	Short: "Print per-bucket means with a rolling average",
	Long: `Groups reviews by calendar bucket and prints each bucket's mean next to its
rolling average. Window and alignment come from rolling.window and
rolling.align, or --window and --align.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		byFlag, _ := cmd.Flags().GetString("by")
		by, err := period.ParseBucketBy(byFlag)
		if err != nil {
			return err
		}
		if by == period.ByPeriod {
			return fmt.Errorf("rolling averages need a calendar bucket (day, month, quarter, year)")
		}
		fieldFlag, _ := cmd.Flags().GetString("field")
		field, err := period.ParseField(fieldFlag)
		if err != nil {
			return err
		}

		s, b, err := boundaryAndSettings()
		if err != nil {
			return err
		}
		opts, err := s.Rolling()
		if err != nil {
			return err
		}
		reviews, err := loadReviews(cmd, args, s, b)
		if err != nil {
			return err
		}

		points, err := period.RollingBuckets(period.AggregateField(reviews, b, by, field), opts)
		if err != nil {
			return err
		}

		fmt.Printf("%s by %s, %s window of %d\n\n", field.Name, by, opts.Align, opts.Window)
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.AlignRight)
		fmt.Fprintln(w, "BUCKET\tCOUNT\tMEAN\tROLLING\tPERIOD\t")
		for _, p := range points {
			fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\t\n", p.Key, p.Count, utils.FormatFloat(p.Value, 2), utils.FormatFloat(p.Rolling, 2), period.Classify(p.Start, b))
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(rollingCmd)
	addInputFlags(rollingCmd)
	addFilterFlags(rollingCmd)
	rollingCmd.Flags().String("by", "month", "Group by: day, month, quarter, year")
	rollingCmd.Flags().String("field", "rating", "Value to average: rating or sentiment")
}
