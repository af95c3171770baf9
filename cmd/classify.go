package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/plazareviews/revscope/pkg/period"
)

var classifyCmd = &cobra.Command{
	Use:   "classify [file...]",
	Short: "Print every review with its construction period",
	Long: `Prints every review with the construction period it falls into. Reads the
given files, or the database when no file is given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, b, err := boundaryAndSettings()
		if err != nil {
			return err
		}
		reviews, err := loadReviews(cmd, args, s, b)
		if err != nil {
			return err
		}
		asJSON, _ := cmd.Flags().GetBool("json")

		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			for _, r := range reviews {
				line := map[string]interface{}{
					"id":       r.ID,
					"platform": r.Platform,
					"date":     nil,
					"rating":   nil,
					"period":   period.Classify(r.Date, b),
				}
				if r.HasDate() {
					line["date"] = r.Date.Format("2006-01-02")
				}
				if r.Valid() {
					line["rating"] = r.Rating
				}
				if err := enc.Encode(line); err != nil {
					return err
				}
			}
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "ID\tPLATFORM\tDATE\tRATING\tPERIOD\t")
		for _, r := range reviews {
			date, rating := "-", "-"
			if r.HasDate() {
				date = r.Date.Format("2006-01-02")
			}
			if r.Valid() {
				rating = fmt.Sprint(r.Rating)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t\n", r.ID, r.Platform, date, rating, period.Classify(r.Date, b))
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(classifyCmd)
	addInputFlags(classifyCmd)
	addFilterFlags(classifyCmd)
	classifyCmd.Flags().Bool("json", false, "Print JSON lines instead of a table")
}
