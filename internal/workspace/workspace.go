package workspace

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/jakoblorz/ui5lab-combine/internal/config"
	"github.com/jakoblorz/ui5lab-combine/internal/filesystem"
	"github.com/jakoblorz/ui5lab-combine/internal/models"
)

const manifestFileName = "package.json"

// Workspace is the assembling project: its root and declared libraries.
type Workspace struct {
	fs           filesystem.FileSystem
	RootPath     string
	ManifestPath string
	Name         string
	Dependencies []Dependency
}

// Dependency is one entry of the manifest's dependencies, in declaration order.
type Dependency struct {
	Name  string
	Range string
}

// New creates a new Workspace instance.
func New(fs filesystem.FileSystem) *Workspace {
	return &Workspace{fs: fs}
}

// Detect finds the nearest package.json above the current directory and
// reads its dependencies.
func (w *Workspace) Detect() error {
	cwd, err := w.fs.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}

	manifestPath, found, err := findFileUp(w.fs, cwd, manifestFileName)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("workspace not found: no %s in %s or any parent", manifestFileName, cwd)
	}

	return w.Load(filepath.Dir(manifestPath))
}

// Load reads the package.json in root.
func (w *Workspace) Load(root string) error {
	w.RootPath = root
	w.ManifestPath = filepath.Join(root, manifestFileName)

	data, err := w.fs.ReadFile(w.ManifestPath)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", manifestFileName, err)
	}

	manifest, err := parseManifest(data)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", w.ManifestPath, err)
	}

	w.Name = manifest.Name
	w.Dependencies = manifest.Dependencies
	return nil
}

// Libraries turns the declared dependencies into library records rooted in
// modulesPath. Nothing is read from the libraries themselves: problems with
// a single library surface when it is processed, not here.
func (w *Workspace) Libraries(modulesPath string) []*models.Library {
	libraries := make([]*models.Library, 0, len(w.Dependencies))
	for _, dep := range w.Dependencies {
		root, err := config.LibraryPath(modulesPath, dep.Name)
		lib := models.NewLibrary(dep.Name, root, dep.Range)
		if err != nil {
			lib.Err = err
		} else {
			lib.Installed = w.fs.IsDir(root)
		}

		libraries = append(libraries, lib)
	}

	return libraries
}

// manifest represents the subset of package.json combine reads.
type manifest struct {
	Name         string
	Dependencies []Dependency
}

// parseManifest decodes package.json keeping the declaration order of
// "dependencies", which a Go map would lose.
func parseManifest(data []byte) (manifest, error) {
	var m manifest

	dec := json.NewDecoder(bytes.NewReader(data))
	if err := expectDelim(dec, '{'); err != nil {
		return m, err
	}

	for dec.More() {
		key, err := readKey(dec)
		if err != nil {
			return m, err
		}

		switch key {
		case "name":
			if err := dec.Decode(&m.Name); err != nil {
				return m, fmt.Errorf("invalid name: %w", err)
			}
		case "dependencies":
			deps, err := readDependencies(dec)
			if err != nil {
				return m, fmt.Errorf("invalid dependencies: %w", err)
			}
			m.Dependencies = deps
		default:
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return m, err
			}
		}
	}

	if err := expectDelim(dec, '}'); err != nil {
		return m, err
	}

	return m, nil
}

func readDependencies(dec *json.Decoder) ([]Dependency, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if tok == nil {
		return nil, nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected object, got %v", tok)
	}

	var deps []Dependency
	for dec.More() {
		name, err := readKey(dec)
		if err != nil {
			return nil, err
		}

		var value interface{}
		if err := dec.Decode(&value); err != nil {
			return nil, err
		}
		rng, _ := value.(string)

		deps = append(deps, Dependency{Name: name, Range: rng})
	}

	if err := expectDelim(dec, '}'); err != nil {
		return nil, err
	}

	return deps, nil
}

func readKey(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", err
	}
	key, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("expected object key, got %v", tok)
	}
	return key, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}
