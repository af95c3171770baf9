package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/plazareviews/revscope/internal/utils"
	"github.com/plazareviews/revscope/pkg/userstats"
)

var usersCmd = &cobra.Command{
	Use:   "users [file...]",
	Short: "Print per-reviewer activity statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, b, err := boundaryAndSettings()
		if err != nil {
			return err
		}
		reviews, err := loadReviews(cmd, args, s, b)
		if err != nil {
			return err
		}
		users := userstats.Compute(reviews)

		if out, _ := cmd.Flags().GetString("xlsx"); out != "" {
			if err := userstats.WriteXLSX(out, users); err != nil {
				return err
			}
			utils.Log.Infof("User stats table saved as %s", out)
		}

		top, _ := cmd.Flags().GetInt("top")
		if top > 0 && top < len(users) {
			users = users[:top]
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "AUTHOR\tREVIEWS\tRATINGS\tFIRST\tLAST\tDAYS\tPER DAY\tAVG TEXT\tPHOTOS\t")
		for _, u := range users {
			fmt.Fprintf(w, "%s\t%d\t%d\t%s\t%s\t%d\t%s\t%s\t%d\t\n", u.Author, u.Reviews, u.Ratings,
				u.FirstDate.Format("2006-01-02"), u.LastDate.Format("2006-01-02"), u.DaysActive,
				utils.FormatFloat(u.ReviewsPerDay, 3), utils.FormatFloat(u.MeanTextLength, 0), u.Photos)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(usersCmd)
	addInputFlags(usersCmd)
	addFilterFlags(usersCmd)
	usersCmd.Flags().Int("top", 25, "Show only the N most active reviewers (0 = all)")
	usersCmd.Flags().String("xlsx", "", "Also save the full table to this Excel file")
}
