// Package locate implements the whitespace locator: given a page raster and
// its content masks, it finds the largest square region that stays clear of
// text, images, and QR/matrix codes, preferring corners and larger sizes.
// When no region is clear it still returns a (degraded) placement; it
// returns an error only for an invalid raster or a page too small for
// every candidate size.
//
// The locator is pure and stateless: no package-level state, no I/O, no
// concurrency. All of that lives one layer up, in package coordinator.
package locate

import (
	"errors"
	"fmt"

	"github.com/stampwise/stampwise/contentmask"
	"github.com/stampwise/stampwise/raster"
)

// ErrInvalidRaster is returned for a zero-dimension or malformed raster.
var ErrInvalidRaster = errors.New("locate: invalid raster")

// ErrPageTooSmall is returned when no candidate size in Options.SizeSequence
// fits under the margin constraints for this raster.
var ErrPageTooSmall = errors.New("locate: page too small for any candidate size")

// Quality ranks a Placement: Accept beats Fallback beats Degraded, and
// within a tier a larger Size and a smaller OverlapFraction are better.
type Quality int

const (
	Degraded Quality = iota
	Fallback
	Accept
)

// Placement is the locator's result for one page.
type Placement struct {
	X, Y, Size      int
	OverlapFraction float64
	Quality         Quality
	Degraded        bool
}

// StampPlan is the output boundary type: the minimal information a
// compositor needs, in raster pixel units at the locator's working DPI.
type StampPlan struct {
	PageNumber int
	X, Y, Size int
}

// DebugEvent is delivered once per page to a supplied DebugSink.
type DebugEvent struct {
	Width, Height        int
	TextMask, ImageMask, QRMask raster.Mask
	TextOverlap, ImageOverlap, QROverlap float64
	Placement Placement
}

// Options enumerates the locator's recognized tuning knobs. The zero value
// is invalid; use DefaultOptions and override fields as needed.
type Options struct {
	WorkingDPI, ReferenceDPI int
	SizeSequence             []int // descending, within [90,300] at ReferenceDPI
	AcceptableOverlap        float64
	FallbackOverlap          float64
	Margin                   int // at ReferenceDPI
	PreferCorners            bool
	DebugSink                func(DebugEvent)
}

// DefaultOptions returns the spec's reference-DPI defaults at working_dpi=200.
func DefaultOptions() Options {
	return Options{
		WorkingDPI:        200,
		ReferenceDPI:       200,
		SizeSequence:       []int{300, 260, 220, 180, 140, 110, 90},
		AcceptableOverlap:  0.02,
		FallbackOverlap:    0.10,
		Margin:             40,
		PreferCorners:      true,
	}
}

func (o Options) scale(v int) int {
	ref := o.ReferenceDPI
	if ref <= 0 {
		ref = 200
	}
	dpi := o.WorkingDPI
	if dpi <= 0 {
		dpi = ref
	}
	return raster.ScalePixels(v, dpi, ref)
}

type candidate struct {
	x, y, size int
	overlap    float64
}

// Locate runs the whitespace search described in spec §4.2 against the
// union of masks.Text, masks.Image, masks.QR.
func Locate(r raster.PageRaster, masks contentmask.Masks, opts Options) (Placement, error) {
	if err := r.Validate(); err != nil {
		return Placement{}, fmt.Errorf("%w: %v", ErrInvalidRaster, err)
	}
	if opts.ReferenceDPI == 0 {
		opts.ReferenceDPI = 200
	}
	if opts.WorkingDPI == 0 {
		opts.WorkingDPI = opts.ReferenceDPI
	}
	if len(opts.SizeSequence) == 0 {
		opts = withDefaults(opts)
	}

	margin := opts.scale(opts.Margin)
	union := masks.Union()
	integral := raster.BuildIntegral(union)

	var best *candidate
	var bestFallback *candidate
	var placement Placement
	found := false

	for _, refSize := range opts.SizeSequence {
		size := opts.scale(refSize)
		if size <= 0 || size+2*margin > r.Width || size+2*margin > r.Height {
			continue
		}
		cand := scanSize(integral, r.Width, r.Height, size, margin, opts)
		if cand == nil {
			continue
		}
		if best == nil || cand.overlap < best.overlap {
			best = cand
		}
		if cand.overlap <= opts.FallbackOverlap {
			if bestFallback == nil || cand.size > bestFallback.size ||
				(cand.size == bestFallback.size && cand.overlap < bestFallback.overlap) {
				bestFallback = cand
			}
		}
		if cand.overlap <= opts.AcceptableOverlap {
			placement = Placement{X: cand.x, Y: cand.y, Size: cand.size, OverlapFraction: cand.overlap, Quality: Accept}
			found = true
			break
		}
	}

	if !found {
		if bestFallback != nil {
			placement = Placement{X: bestFallback.x, Y: bestFallback.y, Size: bestFallback.size, OverlapFraction: bestFallback.overlap, Quality: Fallback}
			found = true
		} else if best != nil {
			placement = Placement{X: best.x, Y: best.y, Size: best.size, OverlapFraction: best.overlap, Quality: Degraded, Degraded: true}
			found = true
		}
	}

	if !found {
		return Placement{}, ErrPageTooSmall
	}

	if opts.DebugSink != nil {
		opts.DebugSink(buildDebugEvent(r, masks, integral, placement))
	}
	return placement, nil
}

func withDefaults(opts Options) Options {
	d := DefaultOptions()
	opts.SizeSequence = d.SizeSequence
	if opts.AcceptableOverlap == 0 {
		opts.AcceptableOverlap = d.AcceptableOverlap
	}
	if opts.FallbackOverlap == 0 {
		opts.FallbackOverlap = d.FallbackOverlap
	}
	if opts.Margin == 0 {
		opts.Margin = d.Margin
	}
	return opts
}

// scanSize finds the best (x, y) for a fixed size: corners first (per
// §4.2.3), then a strided scan refined locally near the strided best.
func scanSize(integral raster.IntegralMask, width, height, size, margin int, opts Options) *candidate {
	minX, minY := margin, margin
	maxX, maxY := width-size-margin, height-size-margin
	if maxX < minX || maxY < minY {
		return nil
	}

	overlapAt := func(x, y int) float64 {
		return integral.OverlapFraction(x, y, x+size, y+size)
	}

	if opts.PreferCorners {
		corners := [][2]int{
			{maxX, minY}, // top-right
			{minX, minY}, // top-left
			{maxX, maxY}, // bottom-right
			{minX, maxY}, // bottom-left
		}
		for _, c := range corners {
			if ov := overlapAt(c[0], c[1]); ov <= opts.AcceptableOverlap {
				return &candidate{x: c[0], y: c[1], size: size, overlap: ov}
			}
		}
		// no corner cleared the acceptable bar; fall through to a full scan.
	}

	step := size / 16
	if step < 8 {
		step = 8
	}

	var best *candidate
	consider := func(x, y int) {
		ov := overlapAt(x, y)
		if best == nil || ov < best.overlap {
			best = &candidate{x: x, y: y, size: size, overlap: ov}
		}
	}

	for y := minY; y <= maxY; y += step {
		for x := minX; x <= maxX; x += step {
			consider(x, y)
		}
	}
	if best == nil {
		return nil
	}

	// local refinement at step 1 within a +/-step window around the best
	// strided candidate.
	loX, hiX := clamp(best.x-step, minX, maxX), clamp(best.x+step, minX, maxX)
	loY, hiY := clamp(best.y-step, minY, maxY), clamp(best.y+step, minY, maxY)
	for y := loY; y <= hiY; y++ {
		for x := loX; x <= hiX; x++ {
			consider(x, y)
		}
	}
	return best
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func buildDebugEvent(r raster.PageRaster, masks contentmask.Masks, integral raster.IntegralMask, p Placement) DebugEvent {
	total := r.Width * r.Height
	pct := func(m raster.Mask) float64 {
		if total == 0 {
			return 0
		}
		return float64(m.Count()) / float64(total)
	}
	return DebugEvent{
		Width: r.Width, Height: r.Height,
		TextMask: masks.Text, ImageMask: masks.Image, QRMask: masks.QR,
		TextOverlap: pct(masks.Text), ImageOverlap: pct(masks.Image), QROverlap: pct(masks.QR),
		Placement: p,
	}
}
