// Package fileutil provides file lookup helpers shared by real and embedded
// file systems.
package fileutil

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"
)

// ErrNotFound はファイルが見つからない場合に返される
var ErrNotFound = errors.New("file not found")

// ProgramExtensions はプログラムファイルとして扱う拡張子（優先順）
var ProgramExtensions = []string{".yaml", ".yml", ".cue"}

// FindFileCaseInsensitive は大文字小文字を無視してdir内のファイルを検索し、実際のパスを返す
// fs.FSのパスは常に "/" 区切り
func FindFileCaseInsensitive(fsys fs.FS, dir, filename string) (string, error) {
	// まず直接アクセスを試みる
	exact := path.Join(dir, filename)
	if info, err := fs.Stat(fsys, exact); err == nil && !info.IsDir() {
		return exact, nil
	}

	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return "", fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(entry.Name(), filename) {
			return path.Join(dir, entry.Name()), nil
		}
	}

	return "", fmt.Errorf("%w: %s (searched in %s)", ErrNotFound, filename, dir)
}

// IsProgramFile はファイル名がプログラムファイルの拡張子を持つかを返す
func IsProgramFile(name string) bool {
	ext := strings.ToLower(path.Ext(name))
	return slices.Contains(ProgramExtensions, ext)
}

// ResolveProgram はプログラム名からファイルパスを解決する
// 拡張子が省略されている場合はProgramExtensionsの順に試す
func ResolveProgram(fsys fs.FS, dir, name string) (string, error) {
	if IsProgramFile(name) {
		return FindFileCaseInsensitive(fsys, dir, name)
	}
	for _, ext := range ProgramExtensions {
		if p, err := FindFileCaseInsensitive(fsys, dir, name+ext); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: program %s (searched in %s)", ErrNotFound, name, dir)
}

// ListPrograms はdir内のプログラム名（拡張子なし）をソートして返す
func ListPrograms(fsys fs.FS, dir string) ([]string, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !IsProgramFile(entry.Name()) {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), path.Ext(entry.Name()))
		if !slices.Contains(names, name) {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names, nil
}
