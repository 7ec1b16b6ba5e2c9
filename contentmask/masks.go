// Package contentmask builds the three forbidden-region masks (text, image,
// QR) a rendered page contributes to the whitespace search. Morphology,
// Laplacian response, connected-component labeling and contour polygon
// approximation are implemented directly against raster.Gray/raster.Mask
// buffers rather than pulled from an image-processing library, since no such
// library appears in the retrieved corpus; the shapes and thresholds below
// are deliberately named after the operations they perform.
package contentmask

import "github.com/stampwise/stampwise/raster"

const (
	threshText  = 200
	threshLapl  = 30
	minImageArea = 5000
	varQR        = 1500
)

// Masks holds the three per-page forbidden masks, all sharing the source
// raster's dimensions.
type Masks struct {
	Text, Image, QR raster.Mask
}

// Options configures DPI scaling and optional OCR-derived text regions.
type Options struct {
	// WorkingDPI is the DPI the source raster was rendered at; all pixel
	// constants below are defined at ReferenceDPI and scaled by the ratio.
	WorkingDPI, ReferenceDPI int
	// ExtraTextRegions are OCR-derived bounding boxes (in raster pixels) to
	// union into the text mask. Never populated by this package itself —
	// the shell is responsible for running OCR and passing results back in.
	ExtraTextRegions []Region
}

// Region is a raster-pixel rectangle, left/top inclusive, right/bottom exclusive.
type Region struct{ X0, Y0, X1, Y1 int }

func (o Options) scale(refPixels int) int {
	ref := o.ReferenceDPI
	if ref <= 0 {
		ref = 200
	}
	dpi := o.WorkingDPI
	if dpi <= 0 {
		dpi = ref
	}
	return raster.ScalePixels(refPixels, dpi, ref)
}

// minRasterDim is the smallest raster dimension the builder will operate on;
// below this, per §4.1's contract, it gives up and marks the whole page
// forbidden rather than run morphology on a buffer too small for its kernels.
func (o Options) minRasterDim() int {
	// largest kernel extent used below is the 100x1 / 1x100 rule-line opening.
	return 2 * o.scale(100)
}

// Build produces Masks for the given raster, per the text/image/QR recipes.
// If the raster is smaller than the largest kernel requires in either axis,
// it falls back to marking every pixel forbidden in all three masks.
func Build(r raster.PageRaster, opts Options) (Masks, error) {
	if err := r.Validate(); err != nil {
		return Masks{}, err
	}
	minDim := opts.minRasterDim()
	if r.Width < minDim || r.Height < minDim {
		full := raster.NewMask(r.Width, r.Height)
		full.Fill(1)
		return Masks{Text: full, Image: full.Clone(), QR: full.Clone()}, nil
	}

	g := r.Luma()
	b := thresholdBelow(g, threshText)

	text := buildTextMask(b, opts)
	for _, reg := range opts.ExtraTextRegions {
		text.SetRect(reg.X0, reg.Y0, reg.X1, reg.Y1)
	}
	image := buildImageMask(g, b, opts)
	qr := buildQRMask(g, b, opts)

	return Masks{Text: text, Image: image, QR: qr}, nil
}

// Union combines the three masks into a single forbidden-region mask, the
// input to the whitespace locator's integral image.
func (m Masks) Union() raster.Mask {
	return raster.Union(m.Text, m.Image, m.QR)
}

func buildTextMask(b raster.Mask, opts Options) raster.Mask {
	horizontal := Close(b, opts.scale(50), opts.scale(3))
	vertical := Close(b, opts.scale(3), opts.scale(30))
	smallDetail := Close(b, opts.scale(10), opts.scale(10))

	merged := raster.Union(horizontal, vertical, smallDetail)
	return Dilate(merged, opts.scale(50), opts.scale(30))
}

func buildImageMask(g raster.Gray, b raster.Mask, opts Options) raster.Mask {
	lapl := absLaplacian(g)
	highVariation := thresholdAbove(lapl, threshLapl)

	minArea := opts.scale(minImageArea) // area scales with dpi^2 in theory; §5 only promises linear pixel scaling, so linear it is per spec.
	survivors := raster.NewMask(g.Width, g.Height)
	for _, c := range connectedComponents(highVariation) {
		if c.Area < minArea {
			continue
		}
		fillComponent(survivors, c)
	}

	horizontalRules := Open(b, opts.scale(100), opts.scale(1))
	verticalRules := Open(b, opts.scale(1), opts.scale(100))

	merged := raster.Union(survivors, horizontalRules, verticalRules)
	return Dilate(merged, opts.scale(60), opts.scale(60))
}

func buildQRMask(g raster.Gray, b raster.Mask, opts Options) raster.Mask {
	canvas := raster.NewMask(g.Width, g.Height)
	minBBoxArea := opts.scale(2000)

	for _, c := range connectedComponents(b) {
		border := boundary(c, g.Width, g.Height, func(x, y int) bool { return b.At(x, y) != 0 })
		if len(border) < 3 {
			continue
		}
		hull := convexHull(border)
		if len(hull) < 3 {
			continue
		}
		poly := approxPolygon(hull, 0.04)
		if len(poly) != 4 || !isConvex(poly) {
			continue
		}

		w, h := c.Width(), c.Height()
		if w == 0 || h == 0 {
			continue
		}
		aspect := float64(w) / float64(h)
		if aspect < 0.85 || aspect > 1.15 {
			continue
		}
		if w*h < minBBoxArea {
			continue
		}
		if regionVariance(g, c.MinX, c.MinY, c.MaxX+1, c.MaxY+1) <= varQR {
			continue
		}
		fillRect(canvas, c.MinX, c.MinY, c.MaxX, c.MaxY)
	}

	return Dilate(canvas, opts.scale(80), opts.scale(80))
}
