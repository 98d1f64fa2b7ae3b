// Package project locates processor projects on disk, enumerates their
// build configurations and unpacks delivered IP packages into runnable
// arguments.
package project

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/mod/modfile"
)

// ConfigFilename marks a directory as a project root.
const ConfigFilename = "project.conf"

// DefaultDepth bounds how deep Find descends below each search path.
const DefaultDepth = 3

// Find searches the given paths for project roots, descending at most
// DefaultDepth levels. A directory is a project root when it carries a
// project config file or a Go module manifest. With name set, only
// projects of that name are kept; with top set, projects shadowed by a
// sibling "_top" variant are dropped. The result is sorted.
func Find(paths []string, name string, top bool) ([]string, error) {
	found := make(map[string]struct{})

	for _, path := range paths {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("resolving search path %s: %w", path, err)
		}
		if info, err := os.Stat(abs); err != nil || !info.IsDir() {
			continue
		}

		err = filepath.WalkDir(abs, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if depth(abs, p) > DefaultDepth {
					return fs.SkipDir
				}
				return nil
			}

			dir := filepath.Dir(p)
			projectName := ""
			switch d.Name() {
			case ConfigFilename:
				projectName = filepath.Base(dir)
			case "go.mod":
				projectName = moduleName(p)
			default:
				return nil
			}
			if projectName == "" {
				return nil
			}
			if name == "" || projectName == name {
				found[dir] = struct{}{}
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("searching %s: %w", abs, err)
		}
	}

	if top {
		for dir := range found {
			if _, shadowed := found[dir+"_top"]; shadowed {
				delete(found, dir)
			}
		}
	}

	dirs := make([]string, 0, len(found))
	for dir := range found {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)
	return dirs, nil
}

// moduleName extracts the trailing element of the module path, or empty
// when the manifest cannot be parsed.
func moduleName(gomod string) string {
	data, err := os.ReadFile(gomod)
	if err != nil {
		return ""
	}
	path := modfile.ModulePath(data)
	if path == "" {
		return ""
	}
	return path[strings.LastIndex(path, "/")+1:]
}

func depth(root, dir string) int {
	rel, err := filepath.Rel(root, dir)
	if err != nil || rel == "." {
		return 0
	}
	return strings.Count(rel, string(filepath.Separator)) + 1
}
