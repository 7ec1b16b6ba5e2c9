package contentmask

import (
	"testing"

	"github.com/stampwise/stampwise/raster"
)

func blankRaster(w, h int) raster.PageRaster {
	r := raster.NewPageRaster(w, h, 200)
	for i := range r.Pix {
		r.Pix[i] = 255
	}
	return r
}

func TestBuildBlankPageYieldsEmptyMasks(t *testing.T) {
	r := blankRaster(600, 800)
	masks, err := Build(r, Options{WorkingDPI: 200, ReferenceDPI: 200})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if masks.Union().Count() != 0 {
		t.Fatalf("expected no forbidden pixels on a blank page, got %d", masks.Union().Count())
	}
}

func TestBuildTooSmallFallsBackToFullyForbidden(t *testing.T) {
	r := blankRaster(10, 10)
	masks, err := Build(r, Options{WorkingDPI: 200, ReferenceDPI: 200})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if masks.Text.At(5, 5) == 0 {
		t.Fatalf("expected degraded full-page text mask on undersized raster")
	}
}

func TestBuildTextMaskCoversInkBlock(t *testing.T) {
	r := blankRaster(600, 800)
	// paint a dark "paragraph" block to stand in for ink
	for y := 100; y < 140; y++ {
		for x := 100; x < 400; x++ {
			i := (y*r.Width + x) * 3
			r.Pix[i], r.Pix[i+1], r.Pix[i+2] = 0, 0, 0
		}
	}
	masks, err := Build(r, Options{WorkingDPI: 200, ReferenceDPI: 200})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if masks.Text.At(250, 120) == 0 {
		t.Fatalf("expected ink block to be marked forbidden in text mask")
	}
}

// paintRing draws a filled black square frame [x0,x1)x[y0,y1) of the given
// thickness, leaving the interior untouched (white on a blankRaster), the
// high-contrast border/interior split a QR finder pattern's nested squares
// produce against the page background.
func paintRing(r raster.PageRaster, x0, y0, x1, y1, thickness int) {
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			onBorder := x < x0+thickness || x >= x1-thickness || y < y0+thickness || y >= y1-thickness
			if !onBorder {
				continue
			}
			i := (y*r.Width + x) * 3
			r.Pix[i], r.Pix[i+1], r.Pix[i+2] = 0, 0, 0
		}
	}
}

func TestBuildQRMaskDetectsSquareFinderPattern(t *testing.T) {
	r := blankRaster(600, 800)
	paintRing(r, 100, 100, 220, 220, 15) // 120x120 square ring: square, well above the area floor, high interior/border contrast

	masks, err := Build(r, Options{WorkingDPI: 200, ReferenceDPI: 200})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if masks.QR.At(160, 160) == 0 {
		t.Fatalf("expected a square high-contrast ring to be detected as a QR candidate")
	}
}

func TestBuildQRMaskRejectsNonSquareBlob(t *testing.T) {
	r := blankRaster(600, 800)
	// Same ring treatment (high border/interior contrast) but a 4:1 aspect
	// ratio rectangle, well outside the [0.85, 1.15] square window.
	paintRing(r, 400, 500, 600, 550, 10)

	masks, err := Build(r, Options{WorkingDPI: 200, ReferenceDPI: 200})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if masks.QR.At(500, 525) != 0 {
		t.Fatalf("expected an elongated non-square blob to be rejected by the aspect-ratio check")
	}
}

func TestFillComponentFillsFootprintNotBoundingBox(t *testing.T) {
	// An L-shaped component: its bounding box has a corner the shape itself
	// never occupies.
	c := Component{MinX: 0, MinY: 0, MaxX: 9, MaxY: 9}
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			if x < 3 || y < 3 { // the L's two arms
				c.pixels = append(c.pixels, point{x, y})
			}
		}
	}
	m := raster.NewMask(10, 10)
	fillComponent(m, c)

	if m.At(1, 1) == 0 {
		t.Fatalf("expected a pixel on the L's arm to be filled")
	}
	if m.At(8, 8) != 0 {
		t.Fatalf("expected the bounding box's empty corner to remain unfilled, fillComponent should not fall back to the rectangle")
	}
}

func TestOpenRemovesSpeck(t *testing.T) {
	m := raster.NewMask(50, 50)
	m.Set(25, 25, 1) // isolated single-pixel speck
	opened := Open(m, 5, 5)
	if opened.Count() != 0 {
		t.Fatalf("expected opening to remove an isolated speck, got %d forbidden pixels", opened.Count())
	}
}

func TestCloseFillsGap(t *testing.T) {
	m := raster.NewMask(50, 10)
	m.SetRect(5, 4, 15, 6)
	m.SetRect(25, 4, 35, 6)
	closed := Close(m, 25, 3)
	if closed.At(20, 5) == 0 {
		t.Fatalf("expected closing to bridge the gap between the two blobs")
	}
}
