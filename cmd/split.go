package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/plazareviews/revscope/internal/utils"
	"github.com/plazareviews/revscope/pkg/loader"
	"github.com/plazareviews/revscope/pkg/pipeline"
)

var splitCmd = &cobra.Command{
	Use:   "split <file>...",
	Short: "Write pre, during and post construction reviews to separate files",
	Long: `Drops reviews without text or date and writes the rest to pre.jsonl,
during.jsonl and post.jsonl. The split is inclusive: reviews dated on the
construction start or end date count as during construction.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, b, err := boundaryAndSettings()
		if err != nil {
			return err
		}
		opts, err := loaderOptions(cmd)
		if err != nil {
			return err
		}
		reviews, err := loader.LoadFiles(args, opts)
		if err != nil {
			return err
		}

		res := pipeline.Split(reviews, b)
		fmt.Printf("pre count: %d\nduring count: %d\npost count: %d\n", len(res.Pre), len(res.During), len(res.Post))
		if res.Dropped > 0 {
			utils.Log.Warnf("dropped %d reviews without text or date", res.Dropped)
		}

		outDir, _ := cmd.Flags().GetString("out")
		paths, err := pipeline.WriteSplit(outDir, res, utils.Log)
		if err != nil {
			return err
		}
		for _, p := range paths {
			fmt.Println(p)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(splitCmd)
	addInputFlags(splitCmd)
	splitCmd.Flags().StringP("out", "o", ".", "Output directory")
}
