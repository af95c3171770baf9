package cmd

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/plazareviews/revscope/internal/utils"
	"github.com/plazareviews/revscope/pkg/pipeline"
	"github.com/plazareviews/revscope/pkg/storage"
)

// dbCmd represents the db command
var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Interact with the revscope database",
}

var importCmd = &cobra.Command{
	Use:   "import <file>...",
	Short: "Load review files into the database",
	Long: `Loads review files into the database. Reviews already stored (same platform
and review id, or same content when there is no id) are updated in place.
Every file is recorded in the imports log.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, b, err := boundaryAndSettings()
		if err != nil {
			return err
		}
		opts, err := loaderOptions(cmd)
		if err != nil {
			return err
		}
		concurrency, _ := cmd.Flags().GetInt("concurrency")

		return utils.WithDBLock(cmd.Context(), s.DBPath, func() error {
			db, err := storage.Open(s.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "FILE\tREVIEWS\tADDED\tUPDATED\tUNCHANGED\t")
			report, err := pipeline.ImportFiles(cmd.Context(), pipeline.ImportConfig{
				DB:          db,
				Files:       args,
				Load:        opts,
				Boundary:    b,
				Concurrency: concurrency,
				Log:         utils.Log,
				OnFileDone: func(path string, res storage.ImportResult) {
					fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t\n", path, res.Total, res.Added, res.Updated, res.Unchanged)
				},
			})
			w.Flush()
			if err != nil {
				return err
			}
			if len(report.Errors) > 0 {
				return fmt.Errorf("%d of %d files could not be loaded", len(report.Errors), len(args))
			}
			return nil
		})
	},
}

// dbStatsCmd represents the db stats command
var dbStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Prints statistics about the reviews in the database.",
	Long:  "Prints review counts, rating coverage, sentiment coverage and date ranges per platform.",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := settings()
		if err != nil {
			return err
		}
		db, err := openDB(s.DBPath)
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats(context.Background())
		if err != nil {
			return err
		}

		if len(stats) == 0 {
			fmt.Println("No data in the database to generate stats.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.AlignRight)
		fmt.Fprintln(w, "PLATFORM\tREVIEWS\tRATED\tSCORED\tMEAN\tFIRST\tLAST\t")

		var totalReviews, totalRated, totalScored int
		for _, st := range stats {
			first, last := "-", "-"
			if !st.FirstDate.IsZero() {
				first, last = st.FirstDate.Format("2006-01-02"), st.LastDate.Format("2006-01-02")
			}
			fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%.2f\t%s\t%s\t\n", st.Platform, st.Reviews, st.Rated, st.Scored, st.MeanRating, first, last)
			totalReviews += st.Reviews
			totalRated += st.Rated
			totalScored += st.Scored
		}

		fmt.Fprintln(w, " \t \t \t \t \t \t \t")
		fmt.Fprintf(w, "TOTAL\t%d\t%d\t%d\t\t\t\t\n", totalReviews, totalRated, totalScored)

		return w.Flush()
	},
}

var reclassifyCmd = &cobra.Command{
	Use:   "reclassify",
	Short: "Recompute stored periods after changing the construction dates",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, b, err := boundaryAndSettings()
		if err != nil {
			return err
		}

		return utils.WithDBLock(cmd.Context(), s.DBPath, func() error {
			db, err := openDB(s.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()

			n, err := db.UpdatePeriods(cmd.Context(), b)
			if err != nil {
				return err
			}
			fmt.Printf("Construction %s: %d reviews changed period\n", b, n)
			return nil
		})
	},
}

// shellCmd represents the shell command
var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start an interactive shell to the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := settings()
		if err != nil {
			return err
		}
		dbPath := s.DBPath

		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return fmt.Errorf("database file not found: %s", dbPath)
		}

		// Check if sqlite3 is in PATH
		sqlitePath, err := exec.LookPath("sqlite3")
		if err != nil {
			return fmt.Errorf("sqlite3 command not found in your PATH. Please install it to use the db shell")
		}

		// Print schema first
		fmt.Println("--> Database schema:")
		schemaCmd := exec.Command(sqlitePath, dbPath, ".schema")
		schemaCmd.Stdout = os.Stdout
		schemaCmd.Stderr = os.Stderr
		if err := schemaCmd.Run(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: couldn't retrieve schema: %v\n", err)
		}
		fmt.Println("\n--> Starting interactive shell... (Ctrl+D to exit)")

		c := exec.Command(sqlitePath, dbPath)
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr

		return c.Run()
	},
}

func init() {
	rootCmd.AddCommand(dbCmd)
	dbCmd.AddCommand(importCmd)
	dbCmd.AddCommand(dbStatsCmd)
	dbCmd.AddCommand(reclassifyCmd)
	dbCmd.AddCommand(shellCmd)

	addInputFlags(importCmd)
	importCmd.Flags().Int("concurrency", 4, "Files loaded in parallel")
}
