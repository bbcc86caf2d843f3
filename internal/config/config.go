package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jakoblorz/ui5lab-combine/internal/filesystem"
	"gopkg.in/yaml.v3"
)

// DefaultFileName is the config file looked up in the project root.
const DefaultFileName = "combine.yaml"

// Environment variables read by ApplyEnv.
const (
	EnvConfig = "COMBINE_CONFIG"
	EnvDeploy = "COMBINE_DEPLOY"
)

// Config is the run configuration. Relative paths resolve against Root.
type Config struct {
	// Root is the project root holding package.json.
	Root string `yaml:"-"`

	// Deploy enables the deploy assembly step and ignores tooling markers.
	Deploy bool `yaml:"-"`

	ModulesDir       string       `yaml:"modulesDir"`
	ShellPackage     string       `yaml:"shellPackage"`
	ShellDist        string       `yaml:"shellDist"`
	RegistryFile     string       `yaml:"registryFile"`
	StagingDir       string       `yaml:"stagingDir"`
	ReservedPrefixes []string     `yaml:"reservedPrefixes"`
	ToolingMarker    string       `yaml:"toolingMarker"`
	DeployLayout     DeployLayout `yaml:"deploy"`

	// Ignore holds gitignore-style patterns skipped while copying.
	Ignore []string `yaml:"ignore"`
}

// DeployLayout names the inputs and output of the deploy step.
type DeployLayout struct {
	Dir       string `yaml:"dir"`
	Homepage  string `yaml:"homepage"`
	Docs      string `yaml:"docs"`
	Bootstrap string `yaml:"bootstrap"`
}

// Default returns the layout of a UI5Lab browser project.
func Default(root string) *Config {
	return &Config{
		Root:             root,
		ModulesDir:       "node_modules",
		ShellPackage:     "ui5lab-browser",
		ShellDist:        "dist",
		RegistryFile:     "libraries.json",
		StagingDir:       "webapp",
		ReservedPrefixes: []string{"@openui5"},
		ToolingMarker:    "ui5.yaml",
		DeployLayout: DeployLayout{
			Dir:       "deploy",
			Homepage:  "homepage",
			Docs:      "docs",
			Bootstrap: "index.html",
		},
	}
}

// Load returns the defaults for root overlaid with the YAML file at path.
// A missing file is only an error when required is set.
func Load(fsys filesystem.FileSystem, root, path string, required bool) (*Config, error) {
	cfg := Default(root)
	if path == "" {
		path = DefaultFileName
	}
	path = cfg.abs(path)

	data, err := fsys.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !required {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// ApplyEnv overlays environment settings. lookup is usually os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	raw, ok := lookup(EnvDeploy)
	if !ok || strings.TrimSpace(raw) == "" {
		return nil
	}

	enabled, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s value %q: %w", EnvDeploy, raw, err)
	}
	c.Deploy = enabled
	return nil
}

// ErrInvalidLibraryName is returned for dependency names that do not
// resolve to a directory below the modules directory.
var ErrInvalidLibraryName = errors.New("invalid library name")

// Validate checks that every path setting is present and that the staging
// and deploy trees do not overlap.
func (c *Config) Validate() error {
	for _, setting := range []struct {
		key   string
		value string
	}{
		{"modulesDir", c.ModulesDir},
		{"shellPackage", c.ShellPackage},
		{"shellDist", c.ShellDist},
		{"registryFile", c.RegistryFile},
		{"stagingDir", c.StagingDir},
		{"toolingMarker", c.ToolingMarker},
		{"deploy.dir", c.DeployLayout.Dir},
		{"deploy.homepage", c.DeployLayout.Homepage},
		{"deploy.docs", c.DeployLayout.Docs},
		{"deploy.bootstrap", c.DeployLayout.Bootstrap},
	} {
		if strings.TrimSpace(setting.value) == "" {
			return fmt.Errorf("%s must not be empty", setting.key)
		}
	}

	if _, err := LibraryPath(c.ModulesPath(), c.ShellPackage); err != nil {
		return fmt.Errorf("shellPackage: %w", err)
	}

	staging, deploy, root := c.StagingPath(), c.DeployPath(), filepath.Clean(c.Root)
	if staging == root {
		return fmt.Errorf("stagingDir must not be the project root")
	}
	if deploy == root {
		return fmt.Errorf("deploy.dir must not be the project root")
	}
	if within(deploy, staging) || within(staging, deploy) {
		return fmt.Errorf("stagingDir %s and deploy.dir %s must not contain each other", staging, deploy)
	}

	return nil
}

// within reports whether path equals dir or lies below it.
func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// LibraryPath returns the install location of a dependency below
// modulesPath. Names that are empty, absolute or climb out of modulesPath
// are rejected.
func LibraryPath(modulesPath, name string) (string, error) {
	if strings.TrimSpace(name) == "" || filepath.IsAbs(filepath.FromSlash(name)) {
		return "", fmt.Errorf("%w: %q", ErrInvalidLibraryName, name)
	}

	path := filepath.Join(modulesPath, filepath.FromSlash(name))
	if path == filepath.Clean(modulesPath) || !within(modulesPath, path) {
		return "", fmt.Errorf("%w: %q", ErrInvalidLibraryName, name)
	}

	return path, nil
}

// IsExcluded reports whether a dependency is never processed: it belongs to
// a reserved namespace or is the browser shell itself.
func (c *Config) IsExcluded(name string) bool {
	if name == c.ShellPackage {
		return true
	}
	for _, prefix := range c.ReservedPrefixes {
		if prefix != "" && strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

func (c *Config) abs(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(c.Root, path)
}

// ModulesPath returns the directory dependencies are installed into.
func (c *Config) ModulesPath() string { return c.abs(c.ModulesDir) }

// ShellDistPath returns the pre-built browser shell directory. Validate
// rejects shell package names outside the modules directory.
func (c *Config) ShellDistPath() string {
	return filepath.Join(c.ModulesPath(), filepath.FromSlash(c.ShellPackage), c.ShellDist)
}

func (c *Config) RegistryPath() string      { return c.abs(c.RegistryFile) }
func (c *Config) StagingPath() string       { return c.abs(c.StagingDir) }
func (c *Config) ResourcesPath() string     { return filepath.Join(c.StagingPath(), "resources") }
func (c *Config) TestResourcesPath() string { return filepath.Join(c.StagingPath(), "test-resources") }
func (c *Config) DeployPath() string        { return c.abs(c.DeployLayout.Dir) }
func (c *Config) HomepagePath() string      { return c.abs(c.DeployLayout.Homepage) }
func (c *Config) DocsPath() string          { return c.abs(c.DeployLayout.Docs) }
func (c *Config) BootstrapPath() string     { return c.abs(c.DeployLayout.Bootstrap) }
