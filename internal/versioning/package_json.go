package versioning

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/jakoblorz/ui5lab-combine/internal/filesystem"
)

// PackageJSONReader reads the version field of an installed library's package.json.
type PackageJSONReader struct {
	fs filesystem.FileSystem
}

// NewPackageJSONReader creates a new reader.
func NewPackageJSONReader(fs filesystem.FileSystem) *PackageJSONReader {
	return &PackageJSONReader{fs: fs}
}

// Read returns the version of the library at libraryRoot. A missing
// package.json or version field yields an empty string.
func (p *PackageJSONReader) Read(libraryRoot string) (string, error) {
	pkgPath := filepath.Join(libraryRoot, "package.json")
	if !p.fs.Exists(pkgPath) {
		return "", nil
	}

	data, err := p.fs.ReadFile(pkgPath)
	if err != nil {
		return "", fmt.Errorf("failed to read package.json: %w", err)
	}

	var pkg map[string]interface{}
	if err := json.Unmarshal(data, &pkg); err != nil {
		return "", fmt.Errorf("failed to parse package.json: %w", err)
	}

	versionStr, _ := pkg["version"].(string)
	return strings.TrimSpace(versionStr), nil
}

// Satisfies reports whether installed lies within the declared range.
// checked is false when either side is not plain semver (tags, git or file
// specifiers), in which case ok is meaningless.
func Satisfies(declared, installed string) (ok bool, checked bool) {
	declared = strings.TrimSpace(declared)
	installed = strings.TrimSpace(installed)
	if declared == "" || installed == "" {
		return false, false
	}

	constraint, err := semver.NewConstraint(declared)
	if err != nil {
		return false, false
	}

	version, err := semver.NewVersion(installed)
	if err != nil {
		return false, false
	}

	return constraint.Check(version), true
}
