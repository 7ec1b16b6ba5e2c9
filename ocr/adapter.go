package ocr

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"github.com/stampwise/stampwise/raster"
)

// InputOption mutates an OCR input generated from a page raster.
type InputOption func(*Input)

// WithLanguages sets language hints on the OCR input.
func WithLanguages(langs ...string) InputOption {
	return func(in *Input) { in.Languages = append([]string(nil), langs...) }
}

// WithRegion sets the recognition region on the OCR input.
func WithRegion(region Region) InputOption {
	return func(in *Input) {
		if region.IsEmpty() {
			in.Region = nil
			return
		}
		in.Region = &region
	}
}

// WithDPI overrides the DPI value on the OCR input.
func WithDPI(dpi int) InputOption {
	return func(in *Input) { in.DPI = dpi }
}

// WithMetadata sets provider-specific metadata for the input.
func WithMetadata(metadata map[string]string) InputOption {
	return func(in *Input) {
		if len(metadata) == 0 {
			in.Metadata = nil
			return
		}
		in.Metadata = make(map[string]string, len(metadata))
		for k, v := range metadata {
			in.Metadata[k] = v
		}
	}
}

// InputFromRasterRegion crops a rectangular region out of a rendered page and
// PNG-encodes it as an OCR input, so OCR runs over regions of the rendered
// page rather than over PDF-embedded image assets. Package contentmask does
// not call OCR itself; recognized boxes reach it as
// contentmask.Options.ExtraTextRegions.
func InputFromRasterRegion(r raster.PageRaster, pageIndex int, region Region, opts ...InputOption) (Input, error) {
	if err := r.Validate(); err != nil {
		return Input{}, fmt.Errorf("ocr: invalid raster: %w", err)
	}
	x0, y0 := clampCoord(region.X, r.Width), clampCoord(region.Y, r.Height)
	x1, y1 := clampCoord(region.X+region.Width, r.Width), clampCoord(region.Y+region.Height, r.Height)
	if x1 <= x0 || y1 <= y0 {
		x0, y0, x1, y1 = 0, 0, r.Width, r.Height
	}

	img := image.NewRGBA(image.Rect(0, 0, x1-x0, y1-y0))
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			red, green, blue := r.At(x, y)
			img.Set(x-x0, y-y0, color.RGBA{R: red, G: green, B: blue, A: 255})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return Input{}, fmt.Errorf("ocr: encode region: %w", err)
	}

	in := Input{
		ID:        fmt.Sprintf("page-%d-region-%d-%d", pageIndex, x0, y0),
		Image:     buf.Bytes(),
		Format:    ImageFormatPNG,
		PageIndex: pageIndex,
		DPI:       r.DPI,
	}
	in.Region = &Region{X: float64(x0), Y: float64(y0), Width: float64(x1 - x0), Height: float64(y1 - y0)}
	for _, opt := range opts {
		opt(&in)
	}
	return in, nil
}

func clampCoord(v float64, max int) int {
	if v < 0 {
		return 0
	}
	if int(v) > max {
		return max
	}
	return int(v)
}
