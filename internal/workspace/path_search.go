package workspace

import (
	"path/filepath"

	"github.com/jakoblorz/ui5lab-combine/internal/filesystem"
)

// findFileUp looks for filename in startDir and each of its parents.
func findFileUp(fs filesystem.FileSystem, startDir, filename string) (string, bool, error) {
	dir := filepath.Clean(startDir)

	for {
		candidate := filepath.Join(dir, filename)
		if fs.Exists(candidate) && !fs.IsDir(candidate) {
			return candidate, true, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false, nil
		}
		dir = parent
	}
}
