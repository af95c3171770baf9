package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/plazareviews/revscope/internal/config"
	"github.com/plazareviews/revscope/internal/utils"
	"github.com/plazareviews/revscope/pkg/loader"
	"github.com/plazareviews/revscope/pkg/period"
	"github.com/plazareviews/revscope/pkg/review"
	"github.com/plazareviews/revscope/pkg/storage"
)

// addInputFlags registers the flags shared by commands that read review files.
func addInputFlags(cmd *cobra.Command) {
	cmd.Flags().String("format", "", "Input format: json, jsonl, csv, xlsx (default: by file extension)")
	cmd.Flags().String("source", "", "Platform of the input files when the records don't say (tripadvisor, google, yelp)")
	cmd.Flags().String("place", "", "Place name stored on reviews that don't carry one")
	cmd.Flags().String("sheet", "", "Excel sheet to read (default: first sheet)")
}

// addFilterFlags registers the review selection flags.
func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("platform", "p", "all", "Only use reviews from this platform")
	cmd.Flags().Bool("exclude-border", false, "Drop reviews dated in the construction start and end months")
}

func loaderOptions(cmd *cobra.Command) (loader.Options, error) {
	formatFlag, _ := cmd.Flags().GetString("format")
	format, err := loader.ParseFormat(formatFlag)
	if err != nil {
		return loader.Options{}, err
	}
	source, _ := cmd.Flags().GetString("source")
	place, _ := cmd.Flags().GetString("place")
	sheet, _ := cmd.Flags().GetString("sheet")
	return loader.Options{Format: format, Platform: source, Place: place, Sheet: sheet}, nil
}

// loadReviews reads reviews from the files in args, or from the database
// when no files are given, then applies the filter flags.
func loadReviews(cmd *cobra.Command, args []string, s config.Settings, b period.Boundary) ([]review.Review, error) {
	var reviews []review.Review
	if len(args) > 0 {
		opts, err := loaderOptions(cmd)
		if err != nil {
			return nil, err
		}
		if reviews, err = loader.LoadFiles(args, opts); err != nil {
			return nil, err
		}
	} else {
		db, err := openDB(s.DBPath)
		if err != nil {
			return nil, err
		}
		defer db.Close()
		recs, err := db.ListReviews(context.Background(), storage.ListOptions{})
		if err != nil {
			return nil, err
		}
		reviews = storage.Reviews(recs)
	}
	utils.Log.Debugf("loaded %d reviews", len(reviews))

	if cmd.Flags().Lookup("platform") != nil {
		platform, _ := cmd.Flags().GetString("platform")
		reviews = period.ByPlatform(reviews, platform)
	}
	if cmd.Flags().Lookup("exclude-border") != nil {
		if exclude, _ := cmd.Flags().GetBool("exclude-border"); exclude {
			reviews = period.ExcludeBorder(reviews, b)
		}
	}
	if len(reviews) == 0 {
		return nil, review.ErrNoReviews
	}
	return reviews, nil
}

// openDB opens an existing database file.
func openDB(dbPath string) (*storage.DB, error) {
	if _, err := os.Stat(dbPath); err != nil {
		return nil, fmt.Errorf("database not found: %s (import reviews with 'revscope db import')", dbPath)
	}
	return storage.Open(dbPath)
}

// boundaryAndSettings loads settings and the construction boundary together.
func boundaryAndSettings() (config.Settings, period.Boundary, error) {
	s, err := settings()
	if err != nil {
		return config.Settings{}, period.Boundary{}, err
	}
	b, err := s.Boundary()
	if err != nil {
		return config.Settings{}, period.Boundary{}, err
	}
	return s, b, nil
}
