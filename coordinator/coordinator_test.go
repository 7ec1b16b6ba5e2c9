package coordinator

import (
	"context"
	"testing"

	"github.com/stampwise/stampwise/raster"
)

func TestAdaptiveTuning(t *testing.T) {
	cases := []struct {
		pages   int
		workers int
		dpi     int
	}{
		{pages: 5, workers: 4, dpi: 250},
		{pages: 150, workers: 8, dpi: 200},
		{pages: 500, workers: 12, dpi: 150},
	}
	for _, c := range cases {
		got := AdaptiveTuning(c.pages)
		if got.Workers != c.workers || got.DPI != c.dpi {
			t.Errorf("AdaptiveTuning(%d) = %+v, want {%d %d}", c.pages, got, c.workers, c.dpi)
		}
	}
}

func blankRasterize(ctx context.Context, pageIndex int, dpi int) (raster.PageRaster, error) {
	r := raster.NewPageRaster(600, 800, dpi)
	for i := range r.Pix {
		r.Pix[i] = 255
	}
	return r, nil
}

func TestRunPreservesPageOrder(t *testing.T) {
	results, err := Run(context.Background(), 6, blankRasterize, Options{})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(results) != 6 {
		t.Fatalf("len(results) = %d, want 6", len(results))
	}
	for i, r := range results {
		if r.PageIndex != i {
			t.Fatalf("results[%d].PageIndex = %d, want %d", i, r.PageIndex, i)
		}
		if r.Err != nil {
			t.Fatalf("results[%d].Err = %v", i, r.Err)
		}
	}
}

func TestRunRespectsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results, err := Run(ctx, 4, blankRasterize, Options{})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	sawCancellation := false
	for _, r := range results {
		if r.Err != nil {
			sawCancellation = true
		}
	}
	if !sawCancellation {
		t.Fatalf("expected at least one page to observe cancellation, got %+v", results)
	}
}
