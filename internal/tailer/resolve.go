package tailer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ResolveGlob expands pattern (including a leading ~) and returns the
// matching file with the newest modification time. Transcript directories
// hold one file per session; the newest one is the live session.
func ResolveGlob(pattern string) (string, error) {
	if strings.HasPrefix(pattern, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expand home: %w", err)
		}
		pattern = filepath.Join(home, strings.TrimPrefix(pattern, "~"))
	}

	matches, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return "", fmt.Errorf("bad glob %q: %w", pattern, err)
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("no file matches %q", pattern)
	}

	newest := ""
	var newestMod int64
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil || info.IsDir() {
			continue
		}
		if mod := info.ModTime().UnixNano(); newest == "" || mod > newestMod {
			newest = m
			newestMod = mod
		}
	}
	if newest == "" {
		return "", fmt.Errorf("no regular file matches %q", pattern)
	}
	return newest, nil
}
