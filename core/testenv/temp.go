package testenv

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteTempFile writes content into a file in a per-test temporary directory.
// The directory is deleted during cleanup.
func WriteTempFile(t testing.TB, name, content string) (filename string) {
	filename = filepath.Join(t.TempDir(), name)
	if e := os.WriteFile(filename, []byte(content), 0o644); e != nil {
		t.Fatal(e)
	}
	return filename
}
