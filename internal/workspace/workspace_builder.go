package workspace

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jakoblorz/ui5lab-combine/internal/filesystem"
)

// WorkspaceBuilder helps create test workspaces
type WorkspaceBuilder struct {
	fs           *filesystem.MockFileSystem
	root         string
	name         string
	dependencies []Dependency
}

// NewWorkspaceBuilder creates a builder for a project at root with the
// browser shell and library registry in place.
func NewWorkspaceBuilder(root string) *WorkspaceBuilder {
	fs := filesystem.NewMockFileSystem()
	fs.AddDir(root)
	fs.SetCurrentDir(root)

	wb := &WorkspaceBuilder{
		fs:   fs,
		root: root,
		name: "ui5lab-browser-app",
	}

	wb.AddDependency("ui5lab-browser", "^1.0.0")
	wb.AddFile("node_modules/ui5lab-browser/package.json", `{"name": "ui5lab-browser", "version": "1.0.0"}`)
	wb.AddFile("node_modules/ui5lab-browser/dist/index.html", "<!-- development bootstrap -->")
	wb.AddFile("node_modules/ui5lab-browser/dist/Component.js", "sap.ui.define([], function () {});")
	wb.AddFile("libraries.json", `{"libraries": []}`)

	return wb
}

// AddDependency declares a dependency in package.json without installing it.
func (wb *WorkspaceBuilder) AddDependency(name, versionRange string) *WorkspaceBuilder {
	wb.dependencies = append(wb.dependencies, Dependency{Name: name, Range: versionRange})
	return wb
}

// AddLibrary declares and installs a library. files are paths relative to
// the library root; each gets its own path as content.
func (wb *WorkspaceBuilder) AddLibrary(name, version string, files ...string) *WorkspaceBuilder {
	wb.AddDependency(name, "^"+version)

	libRoot := filepath.Join("node_modules", filepath.FromSlash(name))
	wb.AddFile(filepath.Join(libRoot, "package.json"),
		fmt.Sprintf("{\n  \"name\": %s,\n  \"version\": %s\n}\n", strconv.Quote(name), strconv.Quote(version)))

	for _, f := range files {
		wb.AddFile(filepath.Join(libRoot, filepath.FromSlash(f)), name+"/"+f)
	}

	return wb
}

// WithTooling adds a ui5.yaml marker to an installed library.
func (wb *WorkspaceBuilder) WithTooling(name string) *WorkspaceBuilder {
	marker := fmt.Sprintf("specVersion: \"2.0\"\ntype: library\nmetadata:\n  name: %s\n", name)
	return wb.AddFile(filepath.Join("node_modules", filepath.FromSlash(name), "ui5.yaml"), marker)
}

// AddFile adds a file relative to the workspace root.
func (wb *WorkspaceBuilder) AddFile(rel, content string) *WorkspaceBuilder {
	wb.fs.AddFile(filepath.Join(wb.root, rel), []byte(content))
	return wb
}

// AddDeploySources adds the homepage, docs and production bootstrap file.
func (wb *WorkspaceBuilder) AddDeploySources() *WorkspaceBuilder {
	wb.AddFile("homepage/index.html", "<!-- homepage -->")
	wb.AddFile("homepage/css/style.css", "body {}")
	wb.AddFile("docs/README.md", "# Docs")
	wb.AddFile("docs/_sidebar.md", "* [Home](/)")
	wb.AddFile("index.html", "<!-- production CDN bootstrap -->")
	return wb
}

// Build writes package.json and returns the filesystem
func (wb *WorkspaceBuilder) Build() *filesystem.MockFileSystem {
	var deps []string
	for _, dep := range wb.dependencies {
		deps = append(deps, fmt.Sprintf("    %s: %s", strconv.Quote(dep.Name), strconv.Quote(dep.Range)))
	}

	pkg := fmt.Sprintf("{\n  \"name\": %s,\n  \"private\": true,\n  \"dependencies\": {\n%s\n  }\n}\n",
		strconv.Quote(wb.name), strings.Join(deps, ",\n"))
	wb.fs.AddFile(filepath.Join(wb.root, manifestFileName), []byte(pkg))

	return wb.fs
}

// FileSystem returns the mock filesystem
func (wb *WorkspaceBuilder) FileSystem() *filesystem.MockFileSystem {
	return wb.fs
}
