package project

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// PresetsDir is the directory under a project root holding preset
// configuration files.
const PresetsDir = "presets"

// BuildSystem abstracts the proprietary build system. Only the two
// operations the driver needs are modeled.
type BuildSystem interface {
	// Configurations enumerates the valid build configurations of a
	// project, e.g. "bk32-IMp".
	Configurations(ctx context.Context, projectPath string) ([]string, error)
	// SetupCMakes installs cmake descriptors for licensed third-party
	// tools into the shared tools directory.
	SetupCMakes(ctx context.Context, toolsDir string) error
}

// CommandBuildSystem drives the build system through its command-line
// front end.
type CommandBuildSystem struct {
	// Command is the executable plus leading arguments, e.g.
	// {"codasip-build"}.
	Command []string
}

func (b *CommandBuildSystem) run(ctx context.Context, args ...string) (string, error) {
	if len(b.Command) == 0 {
		return "", fmt.Errorf("build system command not configured")
	}
	full := append(append([]string{}, b.Command...), args...)
	cmd := exec.CommandContext(ctx, full[0], full[1:]...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%s: %w: %s", strings.Join(full, " "), err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

// Configurations lists one configuration per non-empty output line of the
// build system's list-configurations command.
func (b *CommandBuildSystem) Configurations(ctx context.Context, projectPath string) ([]string, error) {
	out, err := b.run(ctx, "list-configurations", projectPath)
	if err != nil {
		return nil, err
	}
	var configs []string
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			configs = append(configs, line)
		}
	}
	return configs, nil
}

func (b *CommandBuildSystem) SetupCMakes(ctx context.Context, toolsDir string) error {
	_, err := b.run(ctx, "setup-cmakes", toolsDir)
	return err
}

// Configurations enumerates a project's configurations matching every
// pattern. In preset mode the project's presets directory is walked and
// patterns match the file paths relative to it; otherwise the build system
// enumerates configuration identifiers. With no patterns everything is
// returned, sorted.
func Configurations(ctx context.Context, bs BuildSystem, projectPath string, patterns []string, preset bool) ([]string, error) {
	regexps := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid configuration pattern %q: %w", p, err)
		}
		regexps = append(regexps, re)
	}

	match := func(candidate string) bool {
		for _, re := range regexps {
			if !re.MatchString(candidate) {
				return false
			}
		}
		return true
	}

	if preset {
		return findPresets(projectPath, match)
	}

	all, err := bs.Configurations(ctx, projectPath)
	if err != nil {
		return nil, fmt.Errorf("enumerating configurations of %s: %w", projectPath, err)
	}
	var configs []string
	for _, c := range all {
		if match(c) {
			configs = append(configs, c)
		}
	}
	sort.Strings(configs)
	return configs, nil
}

// findPresets walks <project>/presets and returns the files whose relative
// paths pass the match. YAML presets must parse; a malformed preset is an
// error rather than a silently dropped configuration.
func findPresets(projectPath string, match func(string) bool) ([]string, error) {
	root := filepath.Join(projectPath, PresetsDir)

	var presets []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		if !match(rel) {
			return nil
		}
		if ext := filepath.Ext(p); ext == ".yaml" || ext == ".yml" {
			if err := validateYAML(p); err != nil {
				return fmt.Errorf("preset %s: %w", rel, err)
			}
		}
		presets = append(presets, p)
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("searching presets of %s: %w", projectPath, err)
	}
	sort.Strings(presets)
	return presets, nil
}

func validateYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var doc any
	return yaml.Unmarshal(data, &doc)
}
