// Package coordinator drives the per-page pipeline (rasterize -> masks ->
// locate -> composite) across a bounded worker pool, with adaptive
// DPI/worker tuning by document size, cooperative cancellation between
// pages, and page-order-preserving output. The locator core itself stays
// pure and sequential; all concurrency lives here.
package coordinator

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/stampwise/stampwise/contentmask"
	"github.com/stampwise/stampwise/locate"
	"github.com/stampwise/stampwise/raster"
)

// Tuning reports the worker count and working DPI for a document with
// pageCount pages, per the adaptive table.
type Tuning struct {
	Workers int
	DPI     int
}

// AdaptiveTuning implements the page-count -> (workers, DPI) table.
func AdaptiveTuning(pageCount int) Tuning {
	switch {
	case pageCount < 100:
		return Tuning{Workers: 4, DPI: 250}
	case pageCount <= 300:
		return Tuning{Workers: 8, DPI: 200}
	default:
		return Tuning{Workers: 12, DPI: 150}
	}
}

// PageResult is the outcome of running the pipeline on a single page.
type PageResult struct {
	PageIndex int
	Raster    raster.PageRaster
	Masks     contentmask.Masks
	Placement locate.Placement
	Err       error
}

// Rasterize renders a single page; implemented by package rasterizer.
type Rasterize func(ctx context.Context, pageIndex int, dpi int) (raster.PageRaster, error)

// Options configures a Run.
type Options struct {
	// Tuning overrides the adaptive table; if Workers or DPI is zero, the
	// table is applied to the page count passed to Run.
	Tuning Tuning
	// LocatorOptions is passed through to locate.Locate for every page,
	// with WorkingDPI overwritten to match Tuning.DPI.
	LocatorOptions locate.Options
	// MaskOptions is passed through to contentmask.Build for every page,
	// with WorkingDPI overwritten to match Tuning.DPI.
	MaskOptions contentmask.Options
}

// Run drives pageCount pages through rasterize, per page, bounded by
// opts.Tuning.Workers (or the adaptive table if unset), and returns results
// in page order regardless of completion order. Cancellation is observed
// between page submissions: once ctx is done, no further pages are
// submitted, though already-running workers finish their current page.
func Run(ctx context.Context, pageCount int, rasterize Rasterize, opts Options) ([]PageResult, error) {
	if pageCount < 0 {
		return nil, fmt.Errorf("coordinator: negative page count %d", pageCount)
	}
	tuning := opts.Tuning
	if tuning.Workers == 0 || tuning.DPI == 0 {
		tuning = AdaptiveTuning(pageCount)
	}

	locatorOpts := opts.LocatorOptions
	locatorOpts.WorkingDPI = tuning.DPI
	maskOpts := opts.MaskOptions
	maskOpts.WorkingDPI = tuning.DPI

	results := make([]PageResult, pageCount)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(tuning.Workers)

	for i := 0; i < pageCount; i++ {
		pageIndex := i
		select {
		case <-gctx.Done():
			results[pageIndex] = PageResult{PageIndex: pageIndex, Err: gctx.Err()}
			continue
		default:
		}
		g.Go(func() error {
			results[pageIndex] = processPage(gctx, pageIndex, tuning.DPI, rasterize, maskOpts, locatorOpts)
			return nil // per-page errors are carried in PageResult, not propagated as a group failure
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

func processPage(ctx context.Context, pageIndex, dpi int, rasterize Rasterize, maskOpts contentmask.Options, locatorOpts locate.Options) PageResult {
	r, err := rasterize(ctx, pageIndex, dpi)
	if err != nil {
		return PageResult{PageIndex: pageIndex, Err: fmt.Errorf("coordinator: rasterize page %d: %w", pageIndex, err)}
	}
	masks, err := contentmask.Build(r, maskOpts)
	if err != nil {
		return PageResult{PageIndex: pageIndex, Raster: r, Err: fmt.Errorf("coordinator: build masks for page %d: %w", pageIndex, err)}
	}
	placement, err := locate.Locate(r, masks, locatorOpts)
	if err != nil {
		return PageResult{PageIndex: pageIndex, Raster: r, Masks: masks, Err: fmt.Errorf("coordinator: locate on page %d: %w", pageIndex, err)}
	}
	return PageResult{PageIndex: pageIndex, Raster: r, Masks: masks, Placement: placement}
}

// SortByPageIndex is a convenience for callers that build PageResult slices
// out of order (e.g. from a manifest that doesn't preserve submission order).
func SortByPageIndex(results []PageResult) {
	sort.Slice(results, func(i, j int) bool { return results[i].PageIndex < results[j].PageIndex })
}
