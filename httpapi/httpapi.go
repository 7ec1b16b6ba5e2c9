// Package httpapi exposes the stamping pipeline over HTTP: synchronous
// multipart upload for small files, and an asynchronous submit-by-reference
// flow (URL / Google Drive / OoDrive) for documents fetched server-side.
package httpapi

import (
	"context"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stampwise/stampwise/assembler"
	"github.com/stampwise/stampwise/contentmask"
	"github.com/stampwise/stampwise/coordinator"
	"github.com/stampwise/stampwise/locate"
	"github.com/stampwise/stampwise/observability"
	"github.com/stampwise/stampwise/rasterizer"
	"github.com/stampwise/stampwise/source"
	"github.com/stampwise/stampwise/writer"
)

// Config wires an HTTP server to the stamping pipeline.
type Config struct {
	// TempDir holds uploaded and stamped files.
	TempDir string
	// MaxFileSize caps multipart uploads, in bytes. Zero means
	// defaultMaxUploadSize.
	MaxFileSize int64
	// Stamp is the image drawn on every stamped page.
	Stamp image.Image
	// DefaultCaption is used when a request doesn't supply its own.
	DefaultCaption string
	// Rasterizer renders PDF pages during processing; nil means
	// rasterizer.NewPoppler().
	Rasterizer rasterizer.Rasterizer
	// Logger receives pipeline diagnostics.
	Logger observability.Logger
}

func (c *Config) maxFileSize() int64 {
	if c.MaxFileSize > 0 {
		return c.MaxFileSize
	}
	return defaultMaxUploadSize
}

func (c *Config) rasterizer() rasterizer.Rasterizer {
	if c.Rasterizer != nil {
		return c.Rasterizer
	}
	return rasterizer.NewPoppler()
}

func (c *Config) logger() observability.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return observability.NopLogger{}
}

// SetupRoutes registers the stamping endpoints on r under /api/stamp.
func SetupRoutes(r *gin.Engine, cfg *Config) {
	store := newJobStore()
	group := r.Group("/api/stamp")
	{
		group.POST("/upload", func(c *gin.Context) { handleUpload(c, cfg) })
		group.POST("/submit", func(c *gin.Context) { handleSubmit(c, cfg, store) })
		group.GET("/jobs/:id", func(c *gin.Context) { handleJobStatus(c, store) })
		group.GET("/jobs/:id/download", func(c *gin.Context) { handleJobDownload(c, store) })
	}
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

func buildManifest(pages []coordinator.PageResult) []manifestEntry {
	out := make([]manifestEntry, 0, len(pages))
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
		out = append(out, entry)
	}
	return out
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

// stampDocument runs the full assemble+write pipeline against src/reader and
// writes the stamped PDF to outputPath.
func stampDocument(ctx context.Context, cfg *Config, src rasterizer.Source, reader io.ReaderAt, caption string, firstPageOnly bool, outputPath string) ([]coordinator.PageResult, error) {
	rz := cfg.rasterizer()
	pageCount, err := rz.PageCount(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("httpapi: page count: %w", err)
	}
	if caption == "" {
		caption = cfg.DefaultCaption
	}

	res, err := assembler.Assemble(ctx, src, rz, reader, assembler.Options{
		Stamp:          cfg.Stamp,
		Caption:        caption,
		FirstPageOnly:  firstPageOnly,
		Tuning:         coordinator.AdaptiveTuning(pageCount),
		LocatorOptions: locate.DefaultOptions(),
		MaskOptions:    contentmask.Options{},
		Logger:         cfg.logger(),
	})
	if err != nil {
		return nil, fmt.Errorf("httpapi: assemble: %w", err)
	}

	out, err := os.Create(outputPath)
	if err != nil {
		return nil, fmt.Errorf("httpapi: create output: %w", err)
	}
	defer out.Close()

	w := (&writer.WriterBuilder{}).Build()
	if err := w.Write(ctx, res.Document, out, writer.Config{Deterministic: true}); err != nil {
		return nil, fmt.Errorf("httpapi: write output: %w", err)
	}
	return res.Pages, nil
}

func ensureTempDir(dir string) error {
	return os.MkdirAll(dir, defaultFilePermissions)
}

func scheduleCleanup(path string) {
	go func() {
		time.Sleep(resultCleanupDelay)
		os.Remove(path)
	}()
}

func fetcherFor(kind string) (source.Fetcher, error) {
	switch kind {
	case "url":
		return source.URL{}, nil
	case "drive":
		return source.Drive{}, nil
	case "oodrive":
		return source.OoDrive{}, nil
	default:
		return nil, fmt.Errorf("httpapi: unknown source kind %q", kind)
	}
}

// jobStore tracks asynchronous submit-by-reference jobs in memory.
type jobStore struct {
	mu   sync.Mutex
	jobs map[string]*job
}

type jobState string

const (
	jobPending   jobState = "pending"
	jobRunning   jobState = "running"
	jobSucceeded jobState = "succeeded"
	jobFailed    jobState = "failed"
)

type job struct {
	ID         string
	State      jobState
	Error      string
	OutputPath string
	Manifest   []manifestEntry
}

func newJobStore() *jobStore {
	return &jobStore{jobs: make(map[string]*job)}
}

func (s *jobStore) create(id string) *job {
	j := &job{ID: id, State: jobPending}
	s.mu.Lock()
	s.jobs[id] = j
	s.mu.Unlock()
	return j
}

func (s *jobStore) get(id string) (*job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	return j, ok
}

func (s *jobStore) update(id string, fn func(*job)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if j, ok := s.jobs[id]; ok {
		fn(j)
	}
}

func outputPathFor(tempDir, id string) string {
	return filepath.Join(tempDir, id+"_stamped.pdf")
}
