// Package copier implements the recursive merge copy used to populate the
// staging and deploy trees.
package copier

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	gitignore "github.com/denormal/go-gitignore"
	"github.com/jakoblorz/ui5lab-combine/internal/filesystem"
)

// ErrSourceNotFound is returned by Copy when the source does not exist.
var ErrSourceNotFound = errors.New("copy source not found")

// Copier merges files from a source into a destination. Files with the same
// relative path are overwritten; other destination files are left alone.
type Copier struct {
	fs     filesystem.FileSystem
	ignore gitignore.GitIgnore
}

// Option configures a Copier.
type Option func(*Copier)

// WithIgnore skips files and directories matching gitignore-style patterns,
// evaluated relative to the copy source.
func WithIgnore(patterns []string) Option {
	return func(c *Copier) {
		var lines []string
		for _, p := range patterns {
			if strings.TrimSpace(p) != "" {
				lines = append(lines, p)
			}
		}
		if len(lines) == 0 {
			return
		}
		c.ignore = gitignore.New(strings.NewReader(strings.Join(lines, "\n")), "/", nil)
	}
}

// New creates a new Copier.
func New(fs filesystem.FileSystem, options ...Option) *Copier {
	c := &Copier{fs: fs}
	for _, option := range options {
		option(c)
	}
	return c
}

// Copy copies src to dst and returns the number of files written. A file
// source is written to dst itself; a directory source is merged into dst.
func (c *Copier) Copy(src, dst string) (int, error) {
	info, err := c.fs.Stat(src)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, fmt.Errorf("%w: %s", ErrSourceNotFound, src)
		}
		return 0, fmt.Errorf("failed to stat %s: %w", src, err)
	}

	if !info.IsDir() {
		if err := c.copyFile(src, dst, info.Mode().Perm()); err != nil {
			return 0, err
		}
		return 1, nil
	}

	return c.copyDir(src, dst)
}

func (c *Copier) copyDir(src, dst string) (int, error) {
	copied := 0
	err := c.fs.WalkDir(src, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		if rel != "." && c.ignored(rel, entry.IsDir()) {
			if entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if entry.IsDir() {
			if err := c.fs.MkdirAll(target, 0755); err != nil {
				return fmt.Errorf("failed to create %s: %w", target, err)
			}
			return nil
		}

		info, err := entry.Info()
		if err != nil {
			return err
		}
		perm := info.Mode().Perm()
		switch {
		case info.Mode()&fs.ModeSymlink != 0:
			// Linked files are copied by content, linked directories skipped.
			linked, err := c.fs.Stat(path)
			if err != nil || linked.IsDir() {
				return nil
			}
			perm = linked.Mode().Perm()
		case !info.Mode().IsRegular():
			return nil
		}

		if err := c.copyFile(path, target, perm); err != nil {
			return err
		}
		copied++
		return nil
	})
	if err != nil {
		return copied, fmt.Errorf("failed to copy %s to %s: %w", src, dst, err)
	}

	return copied, nil
}

func (c *Copier) copyFile(src, dst string, perm fs.FileMode) error {
	data, err := c.fs.ReadFile(src)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", src, err)
	}

	if err := c.fs.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(dst), err)
	}

	if perm == 0 {
		perm = 0644
	}
	if err := c.fs.WriteFile(dst, data, perm); err != nil {
		return fmt.Errorf("failed to write %s: %w", dst, err)
	}

	return nil
}

func (c *Copier) ignored(rel string, isDir bool) bool {
	if c.ignore == nil {
		return false
	}
	match := c.ignore.Relative(filepath.ToSlash(rel), isDir)
	return match != nil && match.Ignore()
}
