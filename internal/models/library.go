package models

// Library represents a declared dependency of the assembling project.
type Library struct {
	// Name is the dependency name as declared in package.json
	Name string `json:"name"`

	// RootPath is the on-disk location (<modules>/<name>)
	RootPath string `json:"rootPath"`

	// DeclaredRange is the version range from the manifest (e.g. "^1.2.0")
	DeclaredRange string `json:"declaredRange,omitempty"`

	// InstalledVersion is the version from the library's own package.json.
	// Empty when the library is not installed or has no version.
	InstalledVersion string `json:"installedVersion,omitempty"`

	// Installed reports whether RootPath exists as a directory.
	Installed bool `json:"installed"`

	// Err is set when the declared name cannot be mapped to an install
	// location. RootPath is empty then.
	Err error `json:"-"`
}

// NewLibrary creates a new Library instance
func NewLibrary(name, rootPath, declaredRange string) *Library {
	return &Library{
		Name:          name,
		RootPath:      rootPath,
		DeclaredRange: declaredRange,
	}
}

// ResolutionKind names the kind of content a Resolution points at.
type ResolutionKind string

const (
	ResolutionResources     ResolutionKind = "resources"
	ResolutionTestResources ResolutionKind = "test-resources"
)

// Resolution is the source directory chosen for one kind of content.
// Found is false when no candidate exists; there is nothing to copy then.
type Resolution struct {
	Kind ResolutionKind

	// Candidate is the matching candidate relative to the library root,
	// e.g. "dist/resources".
	Candidate string

	// Path is the absolute source directory.
	Path string

	Found bool
}

// Absent returns a Resolution that found nothing.
func Absent(kind ResolutionKind) Resolution {
	return Resolution{Kind: kind}
}
