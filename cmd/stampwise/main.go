// Command stampwise stamps every page (or just the first) of a PDF with a
// piece-number stamp, placed automatically in whitespace.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"

	"github.com/stampwise/stampwise/assembler"
	"github.com/stampwise/stampwise/compositor"
	"github.com/stampwise/stampwise/contentmask"
	"github.com/stampwise/stampwise/coordinator"
	"github.com/stampwise/stampwise/fonts"
	"github.com/stampwise/stampwise/ir/semantic"
	"github.com/stampwise/stampwise/locate"
	"github.com/stampwise/stampwise/observability"
	"github.com/stampwise/stampwise/rasterizer"
	"github.com/stampwise/stampwise/writer"
)

func main() {
	var (
		pdfPath       = flag.String("pdf", "", "path to the input PDF")
		stampPath     = flag.String("stamp", "", "path to the stamp image")
		outputPath    = flag.String("output", "", "path to write the stamped PDF to")
		index         = flag.String("index", "", "caption text rendered below the stamp (e.g. \"DOC-7\")")
		prefix        = flag.String("prefix", "", "prefix prepended to -index when building the caption, e.g. \"Pièce n° \"")
		firstPageOnly = flag.Bool("first-page-only", false, "stamp only the first page, leaving the rest of the document untouched")
		fontsDir      = flag.String("fonts-dir", "", "directory containing a .ttf font to render the caption with, instead of the built-in Helvetica")
		jsonOutput    = flag.Bool("json", false, "print a JSON manifest of per-page placements to stdout instead of a human-readable summary")
	)
	flag.Parse()

	cfg := config{
		pdfPath:       *pdfPath,
		stampPath:     *stampPath,
		outputPath:    *outputPath,
		caption:       *prefix + *index,
		firstPageOnly: *firstPageOnly,
		fontsDir:      *fontsDir,
		jsonOutput:    *jsonOutput,
	}
	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "stampwise: %v\n", err)
		os.Exit(1)
	}
}

type config struct {
	pdfPath, stampPath, outputPath, caption, fontsDir string
	firstPageOnly, jsonOutput                         bool
}

func run(cfg config) error {
	if cfg.pdfPath == "" || cfg.stampPath == "" || cfg.outputPath == "" {
		return fmt.Errorf("-pdf, -stamp and -output are required")
	}

	stampImg, err := decodeImageFile(cfg.stampPath)
	if err != nil {
		return fmt.Errorf("load stamp image: %w", err)
	}

	var customFont *semantic.Font
	if cfg.fontsDir != "" {
		customFont, err = loadFirstTrueType(cfg.fontsDir)
		if err != nil {
			return fmt.Errorf("load caption font: %w", err)
		}
	}

	f, err := os.Open(cfg.pdfPath)
	if err != nil {
		return fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	rz := rasterizer.NewPoppler()
	ctx := context.Background()
	pageCount, err := rz.PageCount(ctx, rasterizer.Source{Path: cfg.pdfPath})
	if err != nil {
		return fmt.Errorf("read page count: %w", err)
	}

	opts := assembler.Options{
		Stamp:          stampImg,
		Caption:        cfg.caption,
		FirstPageOnly:  cfg.firstPageOnly,
		Tuning:         coordinator.AdaptiveTuning(pageCount),
		LocatorOptions: locate.DefaultOptions(),
		MaskOptions:    contentmask.Options{},
		Logger:         stderrLogger{},
	}
	if customFont != nil {
		opts.CompositorOptions = compositor.Options{CustomFont: customFont}
	}

	res, err := assembler.Assemble(ctx, rasterizer.Source{Path: cfg.pdfPath}, rz, f, opts)
	if err != nil {
		return fmt.Errorf("assemble: %w", err)
	}

	out, err := os.Create(cfg.outputPath)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer out.Close()

	w := (&writer.WriterBuilder{}).Build()
	if err := w.Write(ctx, res.Document, out, writer.Config{Deterministic: true}); err != nil {
		return fmt.Errorf("write output pdf: %w", err)
	}

	if cfg.jsonOutput {
		return printManifest(res.Pages)
	}
	printSummary(res.Pages)
	return nil
}

func decodeImageFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	return img, err
}

// loadFirstTrueType scans dir for the first .ttf file and embeds it as the
// caption font, mirroring the original's --fonts-dir flag.
func loadFirstTrueType(dir string) (*semantic.Font, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read fonts dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".ttf" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read font %s: %w", e.Name(), err)
		}
		return fonts.LoadTrueType(e.Name(), data)
	}
	return nil, fmt.Errorf("no .ttf font found in %s", dir)
}

type manifestEntry struct {
	Page            int     `json:"page"`
	X               int     `json:"x"`
	Y               int     `json:"y"`
	Size            int     `json:"size"`
	OverlapFraction float64 `json:"overlap_fraction"`
	Quality         string  `json:"quality"`
	Error           string  `json:"error,omitempty"`
}

func printManifest(pages []coordinator.PageResult) error {
	entries := make([]manifestEntry, 0, len(pages))
	for _, p := range pages {
		entry := manifestEntry{Page: p.PageIndex}
		if p.Err != nil {
			entry.Error = p.Err.Error()
		} else {
			entry.X = p.Placement.X
			entry.Y = p.Placement.Y
			entry.Size = p.Placement.Size
			entry.OverlapFraction = p.Placement.OverlapFraction
			entry.Quality = qualityName(p.Placement.Quality)
		}
		entries = append(entries, entry)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}

func printSummary(pages []coordinator.PageResult) {
	for _, p := range pages {
		if p.Err != nil {
			fmt.Printf("page %d: error: %v\n", p.PageIndex, p.Err)
			continue
		}
		fmt.Printf("page %d: stamp at (%d,%d) size %d, %s (overlap %.4f)\n",
			p.PageIndex, p.Placement.X, p.Placement.Y, p.Placement.Size,
			qualityName(p.Placement.Quality), p.Placement.OverlapFraction)
	}
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

type stderrLogger struct{}

func (stderrLogger) Debug(msg string, fields ...observability.Field) { logLine("DEBUG", msg, fields) }
func (stderrLogger) Info(msg string, fields ...observability.Field)  { logLine("INFO", msg, fields) }
func (stderrLogger) Warn(msg string, fields ...observability.Field)  { logLine("WARN", msg, fields) }
func (stderrLogger) Error(msg string, fields ...observability.Field) { logLine("ERROR", msg, fields) }
func (l stderrLogger) With(fields ...observability.Field) observability.Logger { return l }

func logLine(level, msg string, fields []observability.Field) {
	fmt.Fprintf(os.Stderr, "[%s] %s", level, msg)
	for _, f := range fields {
		fmt.Fprintf(os.Stderr, " %s=%v", f.Key(), f.Value())
	}
	fmt.Fprintln(os.Stderr)
}
