package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var importsCmd = &cobra.Command{
	Use:   "imports",
	Short: "Show recent imports (default 50)",
	RunE: func(cmd *cobra.Command, _ []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		s, err := settings()
		if err != nil {
			return err
		}
		db, err := openDB(s.DBPath)
		if err != nil {
			return err
		}
		defer db.Close()
		imports, err := db.ListImports(context.Background(), limit)
		if err != nil {
			return err
		}
		for _, im := range imports {
			ts := im.OccurredAt.Format("2006-01-02 15:04:05")
			fmt.Printf("%s  #%-4d  %s  total=%d added=%d updated=%d\n", ts, im.ID, im.Source, im.Total, im.Added, im.Updated)
		}
		return nil
	},
}

func init() {
	dbCmd.AddCommand(importsCmd)
	importsCmd.Flags().Int("limit", 50, "Number of recent imports to show")
}
