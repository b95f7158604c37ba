package oracle

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestAvailableFalseForUnknownBinary(t *testing.T) {
	o := New("definitely-not-a-real-compiler-binary", time.Second, 1, t.TempDir())
	if o.Available() {
		t.Fatalf("expected Available() to be false")
	}
}

func TestWriteScratchSkipsUnchangedContent(t *testing.T) {
	dir := t.TempDir()
	o := New("crystal", time.Second, 1, filepath.Join(dir, "scratch"))
	uri := PathToURI(filepath.Join(dir, "main.cr"))

	path, err := o.writeScratch(dir, uri, "puts 1\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	info1, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}

	// Same content: the file should not be rewritten.
	time.Sleep(5 * time.Millisecond)
	if _, err := o.writeScratch(dir, uri, "puts 1\n"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	info2, _ := os.Stat(path)
	if !info1.ModTime().Equal(info2.ModTime()) {
		t.Fatalf("expected unchanged content to skip rewrite")
	}

	// Different content: the file should be rewritten.
	if _, err := o.writeScratch(dir, uri, "puts 2\n"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "puts 2\n" {
		t.Fatalf("got %q", data)
	}
}

func TestWriteScratchFallsBackForNonFileURI(t *testing.T) {
	dir := t.TempDir()
	o := New("crystal", time.Second, 1, filepath.Join(dir, "scratch"))
	path, err := o.writeScratch(dir, "untitled:Untitled-1", "puts 1\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filepath.Dir(path) != filepath.Join(dir, "scratch") {
		t.Fatalf("expected fallback scratch path, got %q", path)
	}
}
