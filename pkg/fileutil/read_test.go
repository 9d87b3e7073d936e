package fileutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/thoreinstein/miuitask/internal/errors"
)

func TestReadFileWithLimit(t *testing.T) {
	tempDir := t.TempDir()

	tests := []struct {
		name    string
		size    int64
		wantErr bool
	}{
		{"small file", 100, false},
		{"exact limit", MaxFileSize, false},
		{"too large", MaxFileSize + 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(tempDir, tt.name)
			f, err := os.Create(path)
			if err != nil {
				t.Fatal(err)
			}
			if err := f.Truncate(tt.size); err != nil {
				t.Fatal(err)
			}
			f.Close()

			data, err := ReadFileWithLimit(path)
			if (err != nil) != tt.wantErr {
				t.Errorf("ReadFileWithLimit() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, ErrFileTooLarge) {
				t.Errorf("expected ErrFileTooLarge, got %v", err)
			}
			if !tt.wantErr && int64(len(data)) != tt.size {
				t.Errorf("read %d bytes, want %d", len(data), tt.size)
			}
		})
	}
}

func TestReadFileWithLimit_Missing(t *testing.T) {
	_, err := ReadFileWithLimit(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected os.ErrNotExist in chain, got %v", err)
	}
}

func TestIsRegularFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.json")
	if err := os.WriteFile(file, []byte("{}"), 0o600); err != nil {
		t.Fatal(err)
	}

	if !IsRegularFile(file) {
		t.Error("expected regular file")
	}
	if IsRegularFile(dir) {
		t.Error("directory is not a regular file")
	}
	if IsRegularFile(filepath.Join(dir, "missing")) {
		t.Error("missing path is not a regular file")
	}
}
