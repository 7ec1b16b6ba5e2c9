// Package rasterizer renders PDF pages to RGB rasters. The core locator
// never depends on this package directly — it consumes raster.PageRaster
// values through the Rasterizer interface, exactly as spec'd by the
// "external collaborator" boundary.
package rasterizer

import (
	"context"
	"fmt"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/stampwise/stampwise/raster"
)

// Source identifies the PDF bytes to rasterize.
type Source struct {
	// Path is a filesystem path to the source PDF.
	Path string
}

// Rasterizer renders one page of a PDF at the given DPI.
type Rasterizer interface {
	Rasterize(ctx context.Context, src Source, pageIndex int, dpi int) (raster.PageRaster, error)
	PageCount(ctx context.Context, src Source) (int, error)
}

// Poppler shells out to pdftoppm/pdfinfo, the same tool family the original
// Python implementation drove through pdf2image. No library in the
// retrieved corpus wraps a PDF rasterizer directly, so this is a deliberate
// os/exec implementation rather than an adaptation of an existing file.
type Poppler struct {
	// PdftoppmPath and PdfinfoPath override the binaries on PATH, mainly for
	// tests that stub them out.
	PdftoppmPath, PdfinfoPath string
}

// NewPoppler returns a Poppler rasterizer using the default PATH binaries.
func NewPoppler() *Poppler {
	return &Poppler{PdftoppmPath: "pdftoppm", PdfinfoPath: "pdfinfo"}
}

func (p *Poppler) pdftoppm() string {
	if p.PdftoppmPath != "" {
		return p.PdftoppmPath
	}
	return "pdftoppm"
}

func (p *Poppler) pdfinfo() string {
	if p.PdfinfoPath != "" {
		return p.PdfinfoPath
	}
	return "pdfinfo"
}

// Rasterize renders the 1-based page pageIndex+1 to an RGB raster at dpi.
func (p *Poppler) Rasterize(ctx context.Context, src Source, pageIndex int, dpi int) (raster.PageRaster, error) {
	if pageIndex < 0 {
		return raster.PageRaster{}, fmt.Errorf("rasterizer: negative page index %d", pageIndex)
	}
	pageNum := pageIndex + 1

	tmpDir, err := os.MkdirTemp("", "stampwise-raster-*")
	if err != nil {
		return raster.PageRaster{}, fmt.Errorf("rasterizer: tempdir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	outPrefix := filepath.Join(tmpDir, "page")
	cmd := exec.CommandContext(ctx, p.pdftoppm(),
		"-png", "-r", fmt.Sprintf("%d", dpi),
		"-f", fmt.Sprintf("%d", pageNum), "-l", fmt.Sprintf("%d", pageNum),
		src.Path, outPrefix,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return raster.PageRaster{}, fmt.Errorf("rasterizer: pdftoppm: %w (%s)", err, out)
	}

	pngPath, err := findRenderedPage(tmpDir, pageNum)
	if err != nil {
		return raster.PageRaster{}, err
	}
	f, err := os.Open(pngPath)
	if err != nil {
		return raster.PageRaster{}, fmt.Errorf("rasterizer: open rendered page: %w", err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return raster.PageRaster{}, fmt.Errorf("rasterizer: decode rendered page: %w", err)
	}
	return raster.FromImage(img, dpi), nil
}

// PageCount reports the PDF's page count via pdfinfo.
func (p *Poppler) PageCount(ctx context.Context, src Source) (int, error) {
	cmd := exec.CommandContext(ctx, p.pdfinfo(), src.Path)
	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("rasterizer: pdfinfo: %w", err)
	}
	return parsePageCount(out)
}

func findRenderedPage(dir string, pageNum int) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("rasterizer: list rendered output: %w", err)
	}
	suffix := fmt.Sprintf("-%d.png", pageNum)
	shortSuffix := fmt.Sprintf("-%02d.png", pageNum)
	for _, e := range entries {
		name := e.Name()
		if hasSuffix(name, suffix) || hasSuffix(name, shortSuffix) {
			return filepath.Join(dir, name), nil
		}
	}
	return "", fmt.Errorf("rasterizer: no rendered output found for page %d in %s", pageNum, dir)
}

func hasSuffix(s, suffix string) bool {
	return len(s) >= len(suffix) && s[len(s)-len(suffix):] == suffix
}

func parsePageCount(info []byte) (int, error) {
	const key = "Pages:"
	lines := splitLines(info)
	for _, line := range lines {
		if len(line) > len(key) && line[:len(key)] == key {
			var n int
			_, err := fmt.Sscanf(line[len(key):], "%d", &n)
			if err != nil {
				return 0, fmt.Errorf("rasterizer: parse page count: %w", err)
			}
			return n, nil
		}
	}
	return 0, fmt.Errorf("rasterizer: Pages field not found in pdfinfo output")
}

func splitLines(b []byte) []string {
	var lines []string
	start := 0
	for i, c := range b {
		if c == '\n' {
			lines = append(lines, string(trimCR(b[start:i])))
			start = i + 1
		}
	}
	if start < len(b) {
		lines = append(lines, string(trimCR(b[start:])))
	}
	return lines
}

func trimCR(b []byte) []byte {
	if len(b) > 0 && b[len(b)-1] == '\r' {
		return b[:len(b)-1]
	}
	return b
}
