// Package assemble builds the staging tree from the browser shell and the
// declared libraries, and optionally the deploy tree.
package assemble

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/jakoblorz/ui5lab-combine/internal/config"
	"github.com/jakoblorz/ui5lab-combine/internal/copier"
	"github.com/jakoblorz/ui5lab-combine/internal/filesystem"
	"github.com/jakoblorz/ui5lab-combine/internal/models"
	"github.com/jakoblorz/ui5lab-combine/internal/resolver"
	"github.com/jakoblorz/ui5lab-combine/internal/versioning"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"
)

const runIDAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// Assembler copies the browser shell, library resources and deploy sources.
type Assembler struct {
	fs       filesystem.FileSystem
	cfg      *config.Config
	resolver *resolver.Resolver
	copier   *copier.Copier
	versions *versioning.PackageJSONReader
	logger   *zap.Logger
	now      func() time.Time
	runID    func() (string, error)
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(a *Assembler) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithClock overrides the report start time source.
func WithClock(now func() time.Time) Option {
	return func(a *Assembler) {
		a.now = now
	}
}

// WithRunID overrides run ID generation.
func WithRunID(runID func() (string, error)) Option {
	return func(a *Assembler) {
		a.runID = runID
	}
}

// New creates an Assembler for cfg.
func New(fs filesystem.FileSystem, cfg *config.Config, options ...Option) *Assembler {
	a := &Assembler{
		fs:       fs,
		cfg:      cfg,
		resolver: resolver.New(fs, cfg.ToolingMarker),
		copier:   copier.New(fs, copier.WithIgnore(cfg.Ignore)),
		versions: versioning.NewPackageJSONReader(fs),
		logger:   zap.NewNop(),
		now:      time.Now,
		runID: func() (string, error) {
			return gonanoid.Generate(runIDAlphabet, 8)
		},
	}

	for _, option := range options {
		option(a)
	}

	return a
}

// Run stages the browser shell, copies every library and, in deploy mode,
// assembles the deploy tree. Library failures are recorded in the report;
// the returned error is reserved for fatal problems. The report is returned
// even then, holding whatever was done.
func (a *Assembler) Run(ctx context.Context, libraries []*models.Library) (*models.Report, error) {
	id, err := a.runID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate run ID: %w", err)
	}

	report := models.NewReport(id, a.cfg.Deploy, a.now())

	defer func(logger *zap.Logger) { a.logger = logger }(a.logger)
	a.logger = a.logger.With(zap.String("run", id))

	if err := a.StageShell(ctx); err != nil {
		return report, err
	}

	if err := a.CopyLibraries(ctx, libraries, report); err != nil {
		return report, err
	}

	if a.cfg.Deploy {
		if err := a.Deploy(ctx); err != nil {
			return report, err
		}
		report.Deployed = true
	}

	return report, nil
}

// StageShell copies the pre-built browser shell and the library registry
// into the staging tree.
func (a *Assembler) StageShell(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	staging := a.cfg.StagingPath()
	a.logger.Info("Copying browser", zap.String("to", staging))

	if _, err := a.copier.Copy(a.cfg.ShellDistPath(), staging); err != nil {
		return fmt.Errorf("failed to copy browser: %w", err)
	}

	registry := filepath.Join(staging, filepath.Base(a.cfg.RegistryPath()))
	if _, err := a.copier.Copy(a.cfg.RegistryPath(), registry); err != nil {
		return fmt.Errorf("failed to copy library registry: %w", err)
	}

	return nil
}

// CopyLibraries processes libraries in order, one at a time. A failing
// library is logged and recorded; the loop carries on. Only cancellation of
// ctx stops it early.
func (a *Assembler) CopyLibraries(ctx context.Context, libraries []*models.Library, report *models.Report) error {
	a.logger.Info("Copying libraries", zap.Int("count", len(libraries)))

	for _, lib := range libraries {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("interrupted before %s: %w", lib.Name, err)
		}

		report.Add(a.CopyLibrary(lib))
	}

	return nil
}

// CopyLibrary processes a single library and never fails: errors end up in
// the result.
func (a *Assembler) CopyLibrary(lib *models.Library) *models.Result {
	result := &models.Result{Library: lib.Name}
	log := a.logger.With(zap.String("library", lib.Name))

	if a.cfg.IsExcluded(lib.Name) {
		result.Outcome = models.OutcomeExcluded
		log.Debug("Excluded library")
		return result
	}

	if err := a.copyLibrary(lib, result, log); err != nil {
		result.Fail(err)
		log.Error("An error occurred post-processing library", zap.Error(err))
		return result
	}

	for _, w := range result.Warnings {
		log.Warn(w)
	}
	if result.Outcome == models.OutcomeCopied {
		log.Debug("Copied library",
			zap.String("resources", result.ResourcesFrom),
			zap.String("testResources", result.TestResourcesFrom),
			zap.Int("files", result.Files))
	}

	return result
}

func (a *Assembler) copyLibrary(lib *models.Library, result *models.Result, log *zap.Logger) error {
	if lib.Err != nil {
		return lib.Err
	}

	// Libraries with their own tooling are served by it, except in deploy
	// mode where no tooling runs.
	if !a.cfg.Deploy {
		tooling, present, err := a.resolver.Tooling(lib.RootPath)
		if present {
			result.Outcome = models.OutcomeSkippedTooling
			if err != nil {
				log.Debug("Unreadable tooling marker", zap.Error(err))
			} else {
				log.Info("Skipping library served by its own tooling",
					zap.String("project", tooling.Metadata.Name),
					zap.String("type", tooling.Type))
			}
			return nil
		}
	}

	if !lib.Installed {
		result.Outcome = models.OutcomeNothingToCopy
		result.Warn("not installed at %s", lib.RootPath)
		return nil
	}

	// An unreadable manifest only costs the version check.
	if version, err := a.versions.Read(lib.RootPath); err != nil {
		result.Warn("cannot read installed version: %v", err)
	} else {
		lib.InstalledVersion = version
		if ok, checked := versioning.Satisfies(lib.DeclaredRange, version); checked && !ok {
			result.Warn("installed version %s does not satisfy %s", version, lib.DeclaredRange)
		}
	}

	resources := a.resolver.Resources(lib.RootPath)
	if resources.Found {
		n, err := a.copier.Copy(resources.Path, a.cfg.ResourcesPath())
		result.Files += n
		if err != nil {
			return err
		}
		result.ResourcesFrom = resources.Candidate
	} else {
		result.Warn("no resources found (looked for %s)", strings.Join(resolver.ResourceCandidates, ", "))
	}

	testResources := a.resolver.TestResources(lib.RootPath)
	if testResources.Found {
		n, err := a.copier.Copy(testResources.Path, a.cfg.TestResourcesPath())
		result.Files += n
		if err != nil {
			return err
		}
		result.TestResourcesFrom = testResources.Candidate
	}

	if resources.Found || testResources.Found {
		result.Outcome = models.OutcomeCopied
	} else {
		result.Outcome = models.OutcomeNothingToCopy
	}

	return nil
}

type deployStep struct {
	name string
	src  string
	dst  string
}

// Deploy assembles the deploy tree. Steps run in a fixed order and the
// first failure aborts.
func (a *Assembler) Deploy(ctx context.Context) error {
	deploy := a.cfg.DeployPath()
	browser := filepath.Join(deploy, "browser")

	a.logger.Info("Copy files to deploy folder", zap.String("to", deploy))

	steps := []deployStep{
		{name: "homepage", src: a.cfg.HomepagePath(), dst: deploy},
		{name: "docs", src: a.cfg.DocsPath(), dst: filepath.Join(deploy, "docs")},
		{name: "browser", src: a.cfg.StagingPath(), dst: browser},
		{name: "bootstrap", src: a.cfg.BootstrapPath(), dst: filepath.Join(browser, "index.html")},
	}

	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("interrupted before deploy step %s: %w", step.name, err)
		}

		n, err := a.copier.Copy(step.src, step.dst)
		if err != nil {
			return fmt.Errorf("deploy step %s failed: %w", step.name, err)
		}
		a.logger.Debug("Deploy step done", zap.String("step", step.name), zap.Int("files", n))
	}

	return nil
}
