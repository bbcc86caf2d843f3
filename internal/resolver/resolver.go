// Package resolver decides which directories of an installed library hold
// its runtime and test resources.
package resolver

import (
	"fmt"
	"path/filepath"

	"github.com/jakoblorz/ui5lab-combine/internal/filesystem"
	"github.com/jakoblorz/ui5lab-combine/internal/models"
	"gopkg.in/yaml.v3"
)

// Candidates in priority order, relative to the library root. The first
// existing directory wins.
var (
	ResourceCandidates     = []string{"dist/resources", "dist", "src"}
	TestResourceCandidates = []string{"dist/test-resources", "test"}
)

// Resolver resolves library layouts on a filesystem.
type Resolver struct {
	fs     filesystem.FileSystem
	marker string
}

// New creates a resolver that treats marker (e.g. "ui5.yaml") as the
// sign of a self-building library.
func New(fs filesystem.FileSystem, marker string) *Resolver {
	return &Resolver{fs: fs, marker: marker}
}

// Resources resolves the runtime resources directory.
func (r *Resolver) Resources(libraryRoot string) models.Resolution {
	return r.resolve(models.ResolutionResources, libraryRoot, ResourceCandidates)
}

// TestResources resolves the test resources directory.
func (r *Resolver) TestResources(libraryRoot string) models.Resolution {
	return r.resolve(models.ResolutionTestResources, libraryRoot, TestResourceCandidates)
}

func (r *Resolver) resolve(kind models.ResolutionKind, libraryRoot string, candidates []string) models.Resolution {
	for _, candidate := range candidates {
		path := filepath.Join(libraryRoot, filepath.FromSlash(candidate))
		if r.fs.IsDir(path) {
			return models.Resolution{
				Kind:      kind,
				Candidate: candidate,
				Path:      path,
				Found:     true,
			}
		}
	}
	return models.Absent(kind)
}

// Tooling describes the build tool configuration found in a marker file.
type Tooling struct {
	SpecVersion string `yaml:"specVersion"`
	Type        string `yaml:"type"`
	Metadata    struct {
		Name string `yaml:"name"`
	} `yaml:"metadata"`
}

// Tooling reports whether the library carries the marker file. The marker
// is parsed when possible; a parse failure is returned alongside present =
// true since presence alone decides.
func (r *Resolver) Tooling(libraryRoot string) (tooling *Tooling, present bool, err error) {
	path := filepath.Join(libraryRoot, r.marker)
	if !r.fs.Exists(path) || r.fs.IsDir(path) {
		return nil, false, nil
	}

	data, err := r.fs.ReadFile(path)
	if err != nil {
		return nil, true, fmt.Errorf("failed to read %s: %w", r.marker, err)
	}

	// ui5.yaml may hold several documents; the first describes the project.
	var t Tooling
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, true, fmt.Errorf("failed to parse %s: %w", r.marker, err)
	}

	return &t, true, nil
}
