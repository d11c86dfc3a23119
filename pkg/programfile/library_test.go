package programfile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/zurustar/blockstep/pkg/fileutil"
)

func testLibrary() Library {
	return Library{
		FS: fstest.MapFS{
			"programs/square.yaml": {Data: []byte(squareYAML)},
			"programs/Zigzag.yml":  {Data: []byte("program: [forward1, right45, forward1, left90]\n")},
			"programs/readme.txt":  {Data: []byte("not a program")},
		},
		Dir: "programs",
	}
}

func TestLibrary_Open(t *testing.T) {
	lib := testLibrary()

	tests := []struct {
		name     string
		program  string
		wantName string
	}{
		{"without extension", "square", "square"},
		{"with extension", "square.yaml", "square"},
		{"case insensitive", "zigzag", "Zigzag"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := lib.Open(tt.program)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if f.Name != tt.wantName {
				t.Errorf("Name = %q, want %q", f.Name, tt.wantName)
			}
		})
	}
}

func TestLibrary_OpenLocalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mine.yaml")
	if err := os.WriteFile(path, []byte("name: Mine\nprogram: [left90]\n"), 0644); err != nil {
		t.Fatal(err)
	}

	f, err := testLibrary().Open(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Name != "Mine" {
		t.Errorf("Name = %q, want Mine", f.Name)
	}
}

func TestLibrary_OpenNotFound(t *testing.T) {
	for _, lib := range []Library{testLibrary(), {}} {
		if _, err := lib.Open("missing"); !errors.Is(err, fileutil.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	}
}

func TestLibrary_Names(t *testing.T) {
	names, err := testLibrary().Names()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(names) != 2 || names[0] != "Zigzag" || names[1] != "square" {
		t.Errorf("Names = %v, want [Zigzag square]", names)
	}

	names, err = Library{FS: fstest.MapFS{}, Dir: "programs"}.Names()
	if err != nil || names != nil {
		t.Errorf("expected no names and no error, got %v, %v", names, err)
	}
}
