package platform

import (
	"fmt"
	"os"
	"path/filepath"
)

// ResolvePath turns a user supplied location into a store path.
// An empty location means the current directory; an existing directory gets
// filename appended.
func ResolvePath(location, filename string) string {
	if location == "" {
		location = "."
	}
	if hasDir(location) {
		return filepath.Join(location, filename)
	}
	return location
}

// FindDocument looks upwards from startDir for a directory holding filename,
// or a data/ directory holding it, and returns the document path.
func FindDocument(startDir, filename string) (string, error) {
	abs, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	dir := abs
	for {
		for _, candidate := range []string{
			filepath.Join(dir, filename),
			filepath.Join(dir, "data", filename),
		} {
			if hasFile(candidate) {
				return candidate, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("no %s found above %s", filename, abs)
}

func hasFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func hasDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
