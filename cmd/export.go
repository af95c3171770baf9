package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/plazareviews/revscope/internal/utils"
	"github.com/plazareviews/revscope/pkg/dashboard"
)

var exportCmd = &cobra.Command{
	Use:   "export [file...]",
	Short: "Export dashboard JSON (ratings by period, timelines, platform volume)",
	Long: `Builds the JSON document read by the review analytics dashboard. Reviews
without a date are left out. Reads the given files, or the database when no
file is given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, b, err := boundaryAndSettings()
		if err != nil {
			return err
		}
		rolling, err := s.Rolling()
		if err != nil {
			return err
		}
		reviews, err := loadReviews(cmd, args, s, b)
		if err != nil {
			return err
		}

		d, err := dashboard.Build(reviews, dashboard.Options{Boundary: b, Rolling: rolling})
		if err != nil {
			return err
		}

		out, _ := cmd.Flags().GetString("out")
		if out == "" || out == "-" {
			return dashboard.WriteJSON(os.Stdout, d)
		}
		f, err := os.Create(out)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := dashboard.WriteJSON(f, d); err != nil {
			return err
		}
		utils.Log.Infof("Exported %d periods and %d time points to %s", len(d.RatingsByPeriod), len(d.RatingOverTime), out)
		return f.Close()
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	addInputFlags(exportCmd)
	addFilterFlags(exportCmd)
	exportCmd.Flags().StringP("out", "o", "", "Output file (default: stdout)")
}
