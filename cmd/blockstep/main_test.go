package main

import (
	"io/fs"
	"testing"

	"github.com/zurustar/blockstep/pkg/app"
	"github.com/zurustar/blockstep/pkg/programfile"
)

// TestEmbeddedPrograms 全ての組み込みサンプルが読み込めることを確認する
func TestEmbeddedPrograms(t *testing.T) {
	lib := programfile.Library{FS: embeddedPrograms, Dir: app.ProgramsDir}

	names, err := lib.Names()
	if err != nil {
		t.Fatalf("failed to list programs: %v", err)
	}
	if len(names) == 0 {
		t.Fatal("no embedded programs")
	}

	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			f, err := lib.Open(name)
			if err != nil {
				t.Fatalf("failed to load: %v", err)
			}
			if f.Name != name {
				t.Errorf("Name = %q, want %q", f.Name, name)
			}
			seq, err := f.Sequence()
			if err != nil {
				t.Fatalf("invalid program: %v", err)
			}
			if seq.Len() == 0 {
				t.Error("empty program")
			}
			if _, err := f.Character(); err != nil {
				t.Errorf("invalid start: %v", err)
			}
		})
	}
}

// TestDefaultProgramEmbedded デフォルトのサンプルが組み込まれていることを確認する
func TestDefaultProgramEmbedded(t *testing.T) {
	if _, err := fs.Stat(embeddedPrograms, app.ProgramsDir+"/"+app.DefaultProgram+".yaml"); err != nil {
		t.Errorf("default program is not embedded: %v", err)
	}
}
