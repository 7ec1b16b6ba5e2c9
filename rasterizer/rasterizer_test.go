package rasterizer

import (
	"os"
	"testing"
)

func TestParsePageCount(t *testing.T) {
	info := []byte("Title:          Sample\nPages:          42\nEncrypted:      no\n")
	n, err := parsePageCount(info)
	if err != nil {
		t.Fatalf("parsePageCount() error = %v", err)
	}
	if n != 42 {
		t.Fatalf("n = %d, want 42", n)
	}
}

func TestParsePageCountMissingField(t *testing.T) {
	if _, err := parsePageCount([]byte("Title: Sample\n")); err == nil {
		t.Fatal("expected an error when Pages field is absent")
	}
}

func TestFindRenderedPageSuffixMatch(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"page-01.png", "page-02.png"} {
		if err := writeEmptyFile(dir + "/" + name); err != nil {
			t.Fatalf("setup: %v", err)
		}
	}
	got, err := findRenderedPage(dir, 2)
	if err != nil {
		t.Fatalf("findRenderedPage() error = %v", err)
	}
	if got != dir+"/page-02.png" {
		t.Fatalf("got %q, want %q", got, dir+"/page-02.png")
	}
}

func writeEmptyFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	return f.Close()
}
