package ocr

import (
	"context"
	"fmt"

	"github.com/stampwise/stampwise/raster"
)

var defaultEngine Engine = &noopEngine{}

// DefaultEngine returns the library's default OCR engine: a no-op engine
// that returns empty results, unless a package such as ocr/tesseract has
// installed another one through SetDefaultEngine.
func DefaultEngine() Engine {
	return defaultEngine
}

// SetDefaultEngine sets the library's default OCR engine.
func SetDefaultEngine(engine Engine) {
	defaultEngine = engine
}

// RecognizeRegions crops each region out of r, builds an OCR input per crop,
// and invokes the provided engine. If the engine supports batch operation it
// is used; otherwise calls are executed sequentially.
func RecognizeRegions(ctx context.Context, engine Engine, r raster.PageRaster, pageIndex int, regions []Region, opts ...InputOption) ([]Result, error) {
	inputs := make([]Input, 0, len(regions))
	for _, region := range regions {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		in, err := InputFromRasterRegion(r, pageIndex, region, opts...)
		if err != nil {
			return nil, fmt.Errorf("build input for region: %w", err)
		}
		inputs = append(inputs, in)
	}
	if b, ok := engine.(BatchEngine); ok {
		return b.RecognizeBatch(ctx, inputs)
	}
	results := make([]Result, 0, len(inputs))
	for _, in := range inputs {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		res, err := engine.Recognize(ctx, in)
		if err != nil {
			return nil, fmt.Errorf("recognize %s: %w", in.ID, err)
		}
		results = append(results, res)
	}
	return results, nil
}

// DefaultRecognizeRegions runs recognition with DefaultEngine().
func DefaultRecognizeRegions(ctx context.Context, r raster.PageRaster, pageIndex int, regions []Region, opts ...InputOption) ([]Result, error) {
	return RecognizeRegions(ctx, DefaultEngine(), r, pageIndex, regions, opts...)
}

type noopEngine struct{}

func (n noopEngine) Name() string {
	return "noop"
}

func (n noopEngine) Recognize(ctx context.Context, input Input) (Result, error) {
	return Result{InputID: input.ID}, nil
}
