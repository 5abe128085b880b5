// Package rom identifies and reads game images.
package rom

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/user-none/eblitui/romloader"
)

var ErrNotFound = errors.New("rom not found")

// A ROM is a game image. Data is nil when the core reads the image itself
// from Path.
type ROM struct {
	Path string // absolute path of the file, archive or not
	Name string // file name of the image, inside the archive if any
	Data []byte
}

// BaseName returns the file name of Path without its extension. Files
// associated to the game, like save RAM or states, are named after it.
func (r *ROM) BaseName() string {
	base := filepath.Base(r.Path)
	if lower := strings.ToLower(base); strings.HasSuffix(lower, ".tar.gz") {
		return base[:len(base)-len(".tar.gz")]
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Archived reports whether the image has been extracted from an archive.
func (r *ROM) Archived() bool { return r.Name != filepath.Base(r.Path) }

// Load reads the game image at path. Archives (zip, 7z, gzip, rar) are
// extracted: the first file having one of the given extensions is loaded.
func Load(path string, extensions []string) (*ROM, error) {
	abs, err := stat(path)
	if err != nil {
		return nil, err
	}
	data, name, err := romloader.Load(abs, extensions)
	if err != nil {
		return nil, fmt.Errorf("load rom %s: %w", path, err)
	}
	return &ROM{Path: abs, Name: name, Data: data}, nil
}

// Open returns the identity of the game at path, without reading it. For
// cores loading games by path.
func Open(path string) (*ROM, error) {
	abs, err := stat(path)
	if err != nil {
		return nil, err
	}
	return &ROM{Path: abs, Name: filepath.Base(abs)}, nil
}

func stat(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	fi, err := os.Stat(abs)
	if errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return "", err
	}
	if fi.IsDir() {
		return "", fmt.Errorf("%s is a directory", path)
	}
	return abs, nil
}
