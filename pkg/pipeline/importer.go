package pipeline

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/plazareviews/revscope/pkg/loader"
	"github.com/plazareviews/revscope/pkg/period"
	"github.com/plazareviews/revscope/pkg/review"
	"github.com/plazareviews/revscope/pkg/storage"
)

// ImportConfig holds everything ImportFiles needs.
type ImportConfig struct {
	DB          *storage.DB
	Files       []string
	Load        loader.Options
	Boundary    period.Boundary
	Concurrency int    // parallel file loads; defaults to 4 if <= 0
	Log         Logger // optional; nil = no logging

	// OnFileDone is called after each file is stored, in file order.
	OnFileDone func(path string, res storage.ImportResult)
}

// ImportReport holds the outcome of an import run.
type ImportReport struct {
	Results []storage.ImportResult
	Errors  []error // files that could not be loaded
}

// ImportFiles loads files concurrently and stores them one at a time, in the
// order given. A file that fails to load is reported and skipped; storage
// errors abort the run.
func ImportFiles(ctx context.Context, cfg ImportConfig) (*ImportReport, error) {
	log := orNop(cfg.Log)
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}
	if err := cfg.Boundary.Validate(); err != nil {
		return nil, err
	}

	loaded := make([][]review.Review, len(cfg.Files))
	loadErrs := make([]error, len(cfg.Files))

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, path := range cfg.Files {
		i, path := i, path
		g.Go(func() error {
			log.Debugf("loading %s", path)
			reviews, err := loader.LoadFile(path, cfg.Load)
			if err != nil {
				loadErrs[i] = fmt.Errorf("%s: %w", path, err)
				return nil
			}
			loaded[i] = reviews
			return nil
		})
	}
	_ = g.Wait()

	report := &ImportReport{}
	for i, path := range cfg.Files {
		if loadErrs[i] != nil {
			log.Warnf("skipping %v", loadErrs[i])
			report.Errors = append(report.Errors, loadErrs[i])
			continue
		}
		if len(loaded[i]) == 0 {
			log.Warnf("%s: %v", path, review.ErrNoReviews)
		}
		res, err := cfg.DB.UpsertReviews(ctx, path, loaded[i], cfg.Boundary)
		if err != nil {
			return report, fmt.Errorf("storing %s: %w", path, err)
		}
		log.Infof("%s: %d reviews, %d added, %d updated", path, res.Total, res.Added, res.Updated)
		report.Results = append(report.Results, res)
		if cfg.OnFileDone != nil {
			cfg.OnFileDone(path, res)
		}
	}
	return report, nil
}
