package httpapi

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stampwise/stampwise/observability"
	"github.com/stampwise/stampwise/rasterizer"
	"github.com/stampwise/stampwise/source"
)

// handleUpload stamps a directly-uploaded PDF and streams the result back
// synchronously, for callers that don't need the async job flow.
func handleUpload(c *gin.Context, cfg *Config) {
	file, header, err := c.Request.FormFile("pdf")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no PDF file provided"})
		return
	}
	defer file.Close()

	if err := validatePDFFile(file, header, cfg.maxFileSize()); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := ensureTempDir(cfg.TempDir); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create temp directory"})
		return
	}

	id := generateUniqueID()
	inputPath := filepath.Join(cfg.TempDir, id+"_"+sanitizeFilename(header.Filename))
	if err := saveUploadedFile(file, inputPath); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save upload"})
		return
	}
	defer os.Remove(inputPath)

	f, err := os.Open(inputPath)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to reopen upload"})
		return
	}
	defer f.Close()

	outputPath := outputPathFor(cfg.TempDir, id)
	caption := c.PostForm("caption")
	firstPageOnly := c.PostForm("first_page_only") == "true"

	pages, err := stampDocument(c.Request.Context(), cfg, rasterizer.Source{Path: inputPath}, f, caption, firstPageOnly, outputPath)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	defer scheduleCleanup(outputPath)

	c.Header("X-Stamp-Manifest-Pages", fmt.Sprint(len(pages)))
	c.FileAttachment(outputPath, "stamped.pdf")
}

// submitRequest is the JSON body accepted by POST /api/stamp/submit.
type submitRequest struct {
	Source        string `json:"source"` // "url", "drive", or "oodrive"
	URL           string `json:"url,omitempty"`
	FileID        string `json:"file_id,omitempty"`
	AccessToken   string `json:"access_token,omitempty"`
	Caption       string `json:"caption,omitempty"`
	FirstPageOnly bool   `json:"first_page_only,omitempty"`
}

// handleSubmit fetches a PDF by reference (URL, Drive, or OoDrive) and
// processes it asynchronously, returning a job id to poll.
func handleSubmit(c *gin.Context, cfg *Config, store *jobStore) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	fetcher, err := fetcherFor(strings.ToLower(req.Source))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := ensureTempDir(cfg.TempDir); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create temp directory"})
		return
	}

	id := generateUniqueID()
	j := store.create(id)

	go runSubmitJob(cfg, store, j, fetcher, source.Reference{URL: req.URL, FileID: req.FileID, AccessToken: req.AccessToken}, req.Caption, req.FirstPageOnly)

	c.JSON(http.StatusAccepted, gin.H{"job_id": id})
}

func runSubmitJob(cfg *Config, store *jobStore, j *job, fetcher source.Fetcher, ref source.Reference, caption string, firstPageOnly bool) {
	store.update(j.ID, func(j *job) { j.State = jobRunning })

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	body, err := fetcher.Fetch(ctx, ref)
	if err != nil {
		store.update(j.ID, func(j *job) { j.State = jobFailed; j.Error = err.Error() })
		return
	}
	defer body.Close()

	inputPath := filepath.Join(cfg.TempDir, j.ID+"_fetched.pdf")
	f, err := os.Create(inputPath)
	if err != nil {
		store.update(j.ID, func(j *job) { j.State = jobFailed; j.Error = err.Error() })
		return
	}
	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		os.Remove(inputPath)
		store.update(j.ID, func(j *job) { j.State = jobFailed; j.Error = err.Error() })
		return
	}
	f.Close()
	defer os.Remove(inputPath)

	in, err := os.Open(inputPath)
	if err != nil {
		store.update(j.ID, func(j *job) { j.State = jobFailed; j.Error = err.Error() })
		return
	}
	defer in.Close()

	outputPath := outputPathFor(cfg.TempDir, j.ID)
	pages, err := stampDocument(ctx, cfg, rasterizer.Source{Path: inputPath}, in, caption, firstPageOnly, outputPath)
	if err != nil {
		store.update(j.ID, func(j *job) { j.State = jobFailed; j.Error = err.Error() })
		return
	}

	manifest := buildManifest(pages)
	store.update(j.ID, func(j *job) {
		j.State = jobSucceeded
		j.OutputPath = outputPath
		j.Manifest = manifest
	})
	cfg.logger().Info("httpapi: job succeeded", observability.String("job", j.ID), observability.Int("pages", len(pages)))
}

func handleJobStatus(c *gin.Context, store *jobStore) {
	j, ok := store.get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}
	resp := gin.H{"job_id": j.ID, "state": j.State}
	if j.Error != "" {
		resp["error"] = j.Error
	}
	if j.State == jobSucceeded {
		resp["manifest"] = j.Manifest
	}
	c.JSON(http.StatusOK, resp)
}

func handleJobDownload(c *gin.Context, store *jobStore) {
	j, ok := store.get(c.Param("id"))
	if !ok || j.State != jobSucceeded {
		c.JSON(http.StatusNotFound, gin.H{"error": "stamped file not ready"})
		return
	}
	defer scheduleCleanup(j.OutputPath)
	c.FileAttachment(j.OutputPath, "stamped.pdf")
}

func saveUploadedFile(file io.Reader, path string) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = io.Copy(out, file)
	return err
}

// sanitizeFilename removes path traversal attempts and dangerous characters.
func sanitizeFilename(filename string) string {
	filename = strings.ReplaceAll(filename, "..", "")
	filename = strings.ReplaceAll(filename, "/", "_")
	filename = strings.ReplaceAll(filename, "\\", "_")
	filename = filepath.Base(filename)
	filename = strings.TrimSpace(filename)
	if filename == "" {
		filename = "document.pdf"
	}
	return filename
}

func generateUniqueID() string {
	b := make([]byte, 8)
	rand.Read(b)
	return fmt.Sprintf("%d_%s", time.Now().UnixNano(), hex.EncodeToString(b))
}

// validatePDFFile checks the upload's size and magic header.
func validatePDFFile(file multipart.File, header *multipart.FileHeader, maxSize int64) error {
	if header.Size > maxSize {
		return fmt.Errorf("file size %d exceeds maximum allowed %d bytes", header.Size, maxSize)
	}
	buf := make([]byte, 4)
	n, err := file.Read(buf)
	if err != nil && err != io.EOF {
		return fmt.Errorf("failed to read file header: %w", err)
	}
	if n >= 4 && string(buf[:4]) != "%PDF" {
		return fmt.Errorf("invalid PDF file: header does not match")
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to rewind upload: %w", err)
	}
	return nil
}
