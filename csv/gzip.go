package csv

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// isGzipPath reports whether path names a gzip-compressed file.
func isGzipPath(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".gz")
}

// inflate decompresses a gzip file to a temporary file and returns its
// path. The caller owns the temporary file and must remove it.
func inflate(path string) (string, error) {
	in, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer in.Close()

	zr, err := gzip.NewReader(in)
	if err != nil {
		return "", fmt.Errorf("csv: open gzip %s: %w", path, err)
	}
	defer zr.Close()

	out, err := os.CreateTemp("", "gridgo-csv-*.csv")
	if err != nil {
		return "", err
	}

	if _, err := io.Copy(out, zr); err != nil {
		out.Close()
		os.Remove(out.Name())
		return "", fmt.Errorf("csv: inflate %s: %w", path, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(out.Name())
		return "", err
	}
	return out.Name(), nil
}
