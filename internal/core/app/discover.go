package app

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"

	"backrefs/internal/core/errors"
)

// DiscoverUnits walks the given roots and returns every .java path that
// survives the exclude patterns, sorted for deterministic scan order.
func DiscoverUnits(roots []string, excludeDirs, excludeFiles []string) ([]string, error) {
	dirGlobs, err := compileGlobs(excludeDirs)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeConfigInvalid, "compile exclude.dirs")
	}
	fileGlobs, err := compileGlobs(excludeFiles)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeConfigInvalid, "compile exclude.files")
	}

	seen := make(map[string]bool)
	var units []string

	for _, root := range roots {
		root = strings.TrimSpace(root)
		if root == "" {
			continue
		}
		err := filepath.Walk(root, func(path string, info os.FileInfo, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			base := filepath.Base(path)
			if info.IsDir() {
				if matchAny(dirGlobs, base) {
					return filepath.SkipDir
				}
				return nil
			}
			lower := strings.ToLower(base)
			if !strings.HasSuffix(lower, ".java") {
				return nil
			}
			if matchAny(fileGlobs, lower) {
				return nil
			}
			if !seen[path] {
				seen[path] = true
				units = append(units, path)
			}
			return nil
		})
		if err != nil {
			return nil, errors.AddContext(
				errors.Wrap(err, errors.CodeInternal, "walk source root"),
				errors.CtxPath, root,
			)
		}
	}

	sort.Strings(units)
	return units, nil
}

func compileGlobs(patterns []string) ([]glob.Glob, error) {
	out := make([]glob.Glob, 0, len(patterns))
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, nil
}

func matchAny(globs []glob.Glob, value string) bool {
	for _, g := range globs {
		if g.Match(value) {
			return true
		}
	}
	return false
}
