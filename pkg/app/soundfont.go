package app

import (
	"io/fs"
	"os"
	"path/filepath"
)

// SoundFontLocation represents the location of a SoundFont file.
type SoundFontLocation struct {
	// Path is the path to the SoundFont file
	Path string
	// FileSystem is the FileSystem to use for loading (nil for external files)
	FileSystem fs.FS
	// IsEmbedded indicates whether the SoundFont is embedded
	IsEmbedded bool
}

// DefaultSoundFontName is the default SoundFont filename to search for.
const DefaultSoundFontName = "GeneralUser-GS.sf2"

// findSoundFont searches for a SoundFont file in the following order:
// 1. The explicitly configured path (--soundfont or SOUNDFONT)
// 2. Embedded soundfonts directory
// 3. Current directory (external)
// 4. Directory of the program file (external)
//
// Returns nil if no SoundFont is found.
func findSoundFont(embedFS fs.FS, explicit, programDir string) *SoundFontLocation {
	// 1. 明示的に指定されたファイル
	if explicit != "" {
		if info, err := os.Stat(explicit); err == nil && !info.IsDir() {
			return &SoundFontLocation{Path: explicit}
		}
	}

	// 2. 埋め込みのsoundfontsディレクトリ
	if embedFS != nil {
		soundfontsPath := "soundfonts/" + DefaultSoundFontName
		if info, err := fs.Stat(embedFS, soundfontsPath); err == nil && info.Size() > 0 {
			return &SoundFontLocation{
				Path:       soundfontsPath,
				FileSystem: embedFS,
				IsEmbedded: true,
			}
		}
	}

	// 3. カレントディレクトリ
	if _, err := os.Stat(DefaultSoundFontName); err == nil {
		return &SoundFontLocation{Path: DefaultSoundFontName}
	}

	// 4. プログラムファイルのディレクトリ
	if programDir != "" {
		sfPath := filepath.Join(programDir, DefaultSoundFontName)
		if _, err := os.Stat(sfPath); err == nil {
			return &SoundFontLocation{Path: sfPath}
		}
	}

	return nil
}
