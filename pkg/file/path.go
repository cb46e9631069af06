// Package file holds small filesystem helpers shared by the CLI and
// the watch service.
package file

import (
	"path/filepath"
	"strings"
)

// ReplaceExt swaps the extension of path, so "fr.po" becomes "fr.mo".
// A leading dot on ext is optional; dotfiles keep their name.
func ReplaceExt(path, ext string) string {
	if path == "" {
		return path
	}
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	dir := filepath.Dir(path)
	name := filepath.Base(path)
	if dot := strings.LastIndex(name, "."); dot > 0 {
		name = name[:dot]
	}
	return filepath.Join(dir, name+ext)
}
