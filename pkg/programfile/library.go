package programfile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/zurustar/blockstep/pkg/fileutil"
)

// Library opens programs by name from a directory of a file system, usually
// the sample programs embedded in the binary. Paths of existing local files
// take precedence.
type Library struct {
	FS  fs.FS
	Dir string
}

// Open loads name. A name that is an existing local file is loaded from
// disk; otherwise it is resolved in the library directory, with or without
// its extension and ignoring case.
func (l Library) Open(name string) (*File, error) {
	if info, err := os.Stat(name); err == nil && !info.IsDir() {
		return LoadFile(name)
	}
	if l.FS == nil {
		return nil, fmt.Errorf("%w: program %s", fileutil.ErrNotFound, name)
	}

	p, err := fileutil.ResolveProgram(l.FS, l.Dir, name)
	if err != nil {
		return nil, err
	}
	return Load(l.FS, p)
}

// Names lists the programs in the library directory.
func (l Library) Names() ([]string, error) {
	if l.FS == nil {
		return nil, nil
	}
	names, err := fileutil.ListPrograms(l.FS, l.Dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return names, err
}
