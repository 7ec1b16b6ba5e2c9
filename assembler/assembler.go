// Package assembler drives the end-to-end pipeline: decode a source PDF,
// locate a stamp placement on each page via package coordinator, composite
// the stamp onto the decoded document in place, and hand back the mutated
// document ready for package writer.
package assembler

import (
	"context"
	"fmt"
	"image"
	"io"

	"github.com/stampwise/stampwise/compositor"
	"github.com/stampwise/stampwise/contentmask"
	"github.com/stampwise/stampwise/coordinator"
	"github.com/stampwise/stampwise/ir"
	"github.com/stampwise/stampwise/ir/semantic"
	"github.com/stampwise/stampwise/locate"
	"github.com/stampwise/stampwise/observability"
	"github.com/stampwise/stampwise/raster"
	"github.com/stampwise/stampwise/rasterizer"
)

// Options configures a document assembly run.
type Options struct {
	// Stamp is the image drawn at each page's chosen placement.
	Stamp image.Image
	// Caption, if non-empty, is rendered below the stamp (e.g. "Pièce n° DOC-7").
	Caption string
	// FirstPageOnly stamps only page 0; every other page is left untouched.
	FirstPageOnly bool
	// Tuning overrides the adaptive worker/DPI table; zero value means "compute it".
	Tuning coordinator.Tuning
	// LocatorOptions is forwarded to locate.Locate for every stamped page.
	LocatorOptions locate.Options
	// MaskOptions is forwarded to contentmask.Build for every stamped page.
	MaskOptions contentmask.Options
	// CompositorOptions is forwarded to compositor.Composite for every stamped page.
	CompositorOptions compositor.Options
	// Logger receives per-page progress and failures.
	Logger observability.Logger
}

func (o Options) logger() observability.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return observability.NopLogger{}
}

// Result reports what happened to each page.
type Result struct {
	Document *semantic.Document
	Pages    []coordinator.PageResult
}

// Assemble decodes src, computes a StampPlan for every page to be stamped,
// composites it onto the corresponding page of the decoded document, and
// returns the mutated document alongside per-page diagnostics. The caller is
// responsible for encoding the returned document with package writer.
func Assemble(ctx context.Context, src rasterizer.Source, rz rasterizer.Rasterizer, r io.ReaderAt, opts Options) (Result, error) {
	if opts.Stamp == nil {
		return Result{}, fmt.Errorf("assembler: no stamp image provided")
	}

	pipeline := ir.NewDefault()
	doc, err := pipeline.Parse(ctx, r)
	if err != nil {
		return Result{}, fmt.Errorf("assembler: parse document: %w", err)
	}

	totalPages := len(doc.Pages)
	pagesToStamp := totalPages
	if opts.FirstPageOnly {
		pagesToStamp = 1
	}
	if pagesToStamp > totalPages {
		pagesToStamp = totalPages
	}

	rasterize := func(ctx context.Context, pageIndex int, dpi int) (raster.PageRaster, error) {
		return rz.Rasterize(ctx, src, pageIndex, dpi)
	}

	results, err := coordinator.Run(ctx, pagesToStamp, rasterize, coordinator.Options{
		Tuning:         opts.Tuning,
		LocatorOptions: opts.LocatorOptions,
		MaskOptions:    opts.MaskOptions,
	})
	if err != nil {
		return Result{Document: doc, Pages: results}, fmt.Errorf("assembler: coordinator run: %w", err)
	}

	for _, res := range results {
		if res.Err != nil {
			opts.logger().Warn("assembler: page skipped", observability.Int("page", res.PageIndex), observability.Error("err", res.Err))
			continue
		}
		if res.PageIndex >= len(doc.Pages) {
			continue
		}
		plan := locate.StampPlan{
			PageNumber: res.PageIndex,
			X:          res.Placement.X,
			Y:          res.Placement.Y,
			Size:       res.Placement.Size,
		}
		compOpts := opts.CompositorOptions
		if compOpts.WorkingDPI == 0 {
			compOpts.WorkingDPI = res.Raster.DPI
		}
		if err := compositor.Composite(doc.Pages[res.PageIndex], plan, opts.Stamp, opts.Caption, compOpts); err != nil {
			opts.logger().Warn("assembler: composite failed", observability.Int("page", res.PageIndex), observability.Error("err", err))
			continue
		}
		opts.logger().Info("assembler: page stamped",
			observability.Int("page", res.PageIndex),
			observability.Int("size", plan.Size),
			observability.String("quality", qualityName(res.Placement.Quality)))
	}

	return Result{Document: doc, Pages: results}, nil
}

func qualityName(q locate.Quality) string {
	switch q {
	case locate.Accept:
		return "accept"
	case locate.Fallback:
		return "fallback"
	default:
		return "degraded"
	}
}
