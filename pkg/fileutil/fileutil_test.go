package fileutil

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"programs/Square.yaml":  {Data: []byte("program: []")},
		"programs/zigzag.cue":   {Data: []byte("program: []")},
		"programs/zigzag.yml":   {Data: []byte("program: []")},
		"programs/README.txt":   {Data: []byte("notes")},
		"programs/nested/x.yml": {Data: []byte("program: []")},
	}
}

func TestFindFileCaseInsensitive(t *testing.T) {
	tests := []struct {
		name       string
		searchName string
		want       string
		shouldFind bool
	}{
		{"exact match", "Square.yaml", "programs/Square.yaml", true},
		{"lowercase search for mixed case file", "square.yaml", "programs/Square.yaml", true},
		{"uppercase search", "ZIGZAG.CUE", "programs/zigzag.cue", true},
		{"directory is not a file", "nested", "", false},
		{"missing file", "circle.yaml", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FindFileCaseInsensitive(testFS(), "programs", tt.searchName)
			if tt.shouldFind {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if got != tt.want {
					t.Errorf("got %q, want %q", got, tt.want)
				}
			} else if !errors.Is(err, ErrNotFound) {
				t.Errorf("error = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestFindFileCaseInsensitive_RealFS(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(tmpDir, "MyProgram.YAML"), []byte("program: []"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	got, err := FindFileCaseInsensitive(os.DirFS(tmpDir), ".", "myprogram.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "MyProgram.YAML" {
		t.Errorf("got %q, want MyProgram.YAML", got)
	}
}

func TestResolveProgram(t *testing.T) {
	tests := []struct {
		name    string
		want    string
		wantErr bool
	}{
		{"square", "programs/Square.yaml", false},
		{"zigzag", "programs/zigzag.yml", false},
		{"zigzag.cue", "programs/zigzag.cue", false},
		{"README", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveProgram(testFS(), "programs", tt.name)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ResolveProgram() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ResolveProgram() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestListPrograms(t *testing.T) {
	names, err := ListPrograms(testFS(), "programs")
	if err != nil {
		t.Fatalf("ListPrograms() error = %v", err)
	}
	if got := strings.Join(names, ","); got != "Square,zigzag" {
		t.Errorf("ListPrograms() = %s, want Square,zigzag", got)
	}

	if _, err := ListPrograms(testFS(), "missing"); err == nil {
		t.Error("ListPrograms() on missing directory succeeded")
	}
}
