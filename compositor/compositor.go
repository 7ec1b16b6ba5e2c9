// Package compositor implements the locator's boundary collaborator: given
// a chosen StampPlan, it resizes the stamp image, renders the piece-number
// caption beneath it, and appends both onto the *existing* page content of
// the document being stamped — the page's original vector content is left
// untouched, the stamp is drawn on top of it.
package compositor

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"

	"github.com/stampwise/stampwise/builder"
	"github.com/stampwise/stampwise/ir/semantic"
	"github.com/stampwise/stampwise/locate"
)

const (
	captionFontName    = "StampwiseCaption"
	defaultCaptionSize = 10.0
	// averageCharWidthEm approximates Helvetica's average advance width as a
	// fraction of the font size, used only to center the caption — this
	// repository never needs exact glyph metrics for anything else.
	averageCharWidthEm = 0.5
)

// Options configures one Composite call.
type Options struct {
	// WorkingDPI is the DPI the raster (and therefore plan.X/Y/Size) was
	// measured at; required to convert pixels to PDF user-space points.
	WorkingDPI int
	// CaptionFontSize is the caption's point size; defaults to 10.
	CaptionFontSize float64
	// CaptionColor defaults to black.
	CaptionColor builder.Color
	// CustomFont optionally replaces the default standard Helvetica face
	// with an embedded TrueType font (mirrors the original's --fonts-dir
	// fallback chain). Build with fonts.LoadTrueType.
	CustomFont *semantic.Font
}

// Composite scales stamp to plan.Size×plan.Size, draws caption centered
// below it, and appends both to page at the location plan describes, in
// raster pixel coordinates at opts.WorkingDPI.
func Composite(page *semantic.Page, plan locate.StampPlan, stamp image.Image, caption string, opts Options) error {
	if page == nil {
		return fmt.Errorf("compositor: nil page")
	}
	if plan.Size <= 0 {
		return fmt.Errorf("compositor: non-positive plan size %d", plan.Size)
	}
	dpi := opts.WorkingDPI
	if dpi <= 0 {
		dpi = 200
	}

	resized := resizeStamp(stamp, plan.Size)
	semImg := builder.FromImage(resized)

	pdfX, pdfY, pdfSize := toPDFUnits(page.MediaBox, plan, dpi)

	captionFont := &semantic.Font{BaseFont: "Helvetica", Encoding: "WinAnsiEncoding"}
	fontName := captionFontName
	if opts.CustomFont != nil {
		captionFont = opts.CustomFont
	}

	pb := builder.WrapPage(page, builder.NamedFont{Name: fontName, Font: captionFont})
	pb.DrawImage(semImg, pdfX, pdfY, pdfSize, pdfSize, builder.ImageOptions{Interpolate: true})

	if caption != "" {
		size := opts.CaptionFontSize
		if size <= 0 {
			size = defaultCaptionSize
		}
		width := float64(len(caption)) * size * averageCharWidthEm
		textX := pdfX + pdfSize/2 - width/2
		textY := pdfY - size*1.2
		pb.DrawText(caption, textX, textY, builder.TextOptions{
			Font:     fontName,
			FontSize: size,
			Color:    opts.CaptionColor,
		})
	}

	pb.Finish()
	return nil
}

// resizeStamp scales src to size×size using a high-quality resampling
// kernel, matching the quality the original achieved via Pillow's resize.
func resizeStamp(src image.Image, size int) image.Image {
	dst := image.NewNRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
	return dst
}

// toPDFUnits converts a raster-pixel placement at dpi to PDF user-space
// points anchored to the page's MediaBox, flipping the Y axis (raster
// origin top-left, PDF origin bottom-left).
func toPDFUnits(mediaBox semantic.Rectangle, plan locate.StampPlan, dpi int) (x, y, size float64) {
	scale := 72.0 / float64(dpi)
	size = float64(plan.Size) * scale
	x = mediaBox.LLX + float64(plan.X)*scale
	y = mediaBox.URY - float64(plan.Y)*scale - size
	return x, y, size
}
