// Command stampwise-server runs the HTTP stamping API.
package main

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stampwise/stampwise/httpapi"
)

const (
	defaultMaxFileSize = 64 * 1024 * 1024
	defaultPort        = "8080"
	defaultTempDir     = "./temp"
	defaultStampPath   = "./stamp.png"

	serverReadTimeout       = 15 * time.Second
	serverWriteTimeout      = 60 * time.Second
	serverIdleTimeout       = 60 * time.Second
	gracefulShutdownTimeout = 10 * time.Second
)

func main() {
	if err := checkPopplerAvailable(); err != nil {
		log.Fatalf("poppler-utils not available: %v. Please install pdftoppm/pdfinfo to continue.", err)
	}
	log.Println("poppler-utils is available")

	stamp, err := loadStamp(getEnv("STAMP_IMAGE", defaultStampPath))
	if err != nil {
		log.Fatalf("failed to load stamp image: %v", err)
	}

	cfg := &httpapi.Config{
		TempDir:        getEnv("TEMP_DIR", defaultTempDir),
		MaxFileSize:    getEnvInt64("MAX_FILE_SIZE", defaultMaxFileSize),
		Stamp:          stamp,
		DefaultCaption: getEnv("DEFAULT_CAPTION", ""),
	}

	r := gin.Default()
	httpapi.SetupRoutes(r, cfg)
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "stampwise"})
	})

	port := getEnv("PORT", defaultPort)
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", port),
		Handler:      r,
		ReadTimeout:  serverReadTimeout,
		WriteTimeout: serverWriteTimeout,
		IdleTimeout:  serverIdleTimeout,
	}

	go func() {
		log.Printf("stampwise server starting on %s", srv.Addr)
		log.Printf("temp directory: %s", cfg.TempDir)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}
	log.Println("server exited gracefully")
}

func loadStamp(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	return img, err
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return defaultValue
}

// checkPopplerAvailable verifies pdftoppm/pdfinfo are on PATH.
func checkPopplerAvailable() error {
	if err := exec.Command("pdftoppm", "-v").Run(); err != nil {
		return fmt.Errorf("pdftoppm not found or not executable: %w", err)
	}
	if err := exec.Command("pdfinfo", "-v").Run(); err != nil {
		return fmt.Errorf("pdfinfo not found or not executable: %w", err)
	}
	return nil
}
