package compositor

import (
	"image"
	"image/color"
	"testing"

	"github.com/stampwise/stampwise/ir/semantic"
	"github.com/stampwise/stampwise/locate"
)

func TestCompositeAppendsImageAndCaption(t *testing.T) {
	page := &semantic.Page{MediaBox: semantic.Rectangle{LLX: 0, LLY: 0, URX: 612, URY: 792}}
	stamp := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			stamp.Set(x, y, color.RGBA{R: 200, G: 0, B: 0, A: 255})
		}
	}
	plan := locate.StampPlan{PageNumber: 0, X: 50, Y: 50, Size: 300}

	if err := Composite(page, plan, stamp, "Pièce n° DOC-7", Options{WorkingDPI: 200}); err != nil {
		t.Fatalf("Composite() error = %v", err)
	}
	if page.Resources == nil || len(page.Resources.XObjects) != 1 {
		t.Fatalf("expected exactly one XObject registered, got %+v", page.Resources)
	}
	if len(page.Contents) == 0 || len(page.Contents[0].Operations) == 0 {
		t.Fatalf("expected content operations to be appended")
	}
	if _, ok := page.Resources.Fonts[captionFontName]; !ok {
		t.Fatalf("expected caption font to be registered under %q", captionFontName)
	}
}

func TestCompositeRejectsZeroSize(t *testing.T) {
	page := &semantic.Page{MediaBox: semantic.Rectangle{URX: 100, URY: 100}}
	stamp := image.NewRGBA(image.Rect(0, 0, 8, 8))
	err := Composite(page, locate.StampPlan{Size: 0}, stamp, "", Options{WorkingDPI: 200})
	if err == nil {
		t.Fatal("expected an error for a zero-size plan")
	}
}
