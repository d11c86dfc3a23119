package sound

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/sinshu/go-meltysynth/meltysynth"
)

// ErrNoSoundFont is returned when no SoundFont file is configured.
var ErrNoSoundFont = errors.New("SoundFont file is required for sound")

// ErrSoundFontNotFound is returned when the SoundFont file cannot be found.
var ErrSoundFontNotFound = errors.New("SoundFont file not found")

// ReadSoundFont reads a SoundFont file from fsys, or from the local file
// system when fsys is nil.
func ReadSoundFont(fsys fs.FS, path string) ([]byte, error) {
	if path == "" {
		return nil, ErrNoSoundFont
	}

	var data []byte
	var err error
	if fsys == nil {
		data, err = os.ReadFile(path)
	} else {
		data, err = fs.ReadFile(fsys, path)
	}
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSoundFontNotFound, path)
		}
		return nil, fmt.Errorf("failed to read SoundFont file: %w", err)
	}
	return data, nil
}

// LoadSoundFont reads and parses a SoundFont file.
func LoadSoundFont(fsys fs.FS, path string) (*meltysynth.SoundFont, error) {
	data, err := ReadSoundFont(fsys, path)
	if err != nil {
		return nil, err
	}

	soundFont, err := meltysynth.NewSoundFont(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse SoundFont: %w", err)
	}
	return soundFont, nil
}
