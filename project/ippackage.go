package project

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/mholt/archiver"
)

var reCorePackage = regexp.MustCompile(`.+CORE.+`)

// InvalidPackageError reports an IP package whose shape cannot be tested:
// a missing or ambiguous package, or one without any testable feature.
type InvalidPackageError struct {
	Path   string
	Reason string
}

func (e *InvalidPackageError) Error() string {
	return fmt.Sprintf("invalid ip package %s: %s", e.Path, e.Reason)
}

// IsInvalidPackage checks if the error is or wraps an InvalidPackageError
func IsInvalidPackage(err error) bool {
	var pkgErr *InvalidPackageError
	return err != nil && errors.As(err, &pkgErr)
}

// configurationPrefix marks the line of an IP package README naming the
// configuration the package was built for.
const configurationPrefix = "Configuration: "

// LoadIPPackage prepares a delivered IP package for testing. source is
// either the package archive, an extracted package directory, or a
// directory containing exactly one entry matching the CORE naming scheme.
// The package ends up under destination and the returned arguments carry
// its testable capabilities: --sdk/--hdk paths and the --configuration
// recorded in its README. A package with neither an sdk nor an hdk is an
// error.
func LoadIPPackage(source, destination string) ([]string, error) {
	if _, err := os.Stat(source); err != nil {
		return nil, &InvalidPackageError{Path: source, Reason: err.Error()}
	}
	if err := os.RemoveAll(destination); err != nil {
		return nil, fmt.Errorf("cleaning %s: %w", destination, err)
	}

	// A directory may hold the package next to unrelated files; the CORE
	// naming scheme identifies it.
	if info, err := os.Stat(source); err == nil && info.IsDir() {
		entries, err := os.ReadDir(source)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", source, err)
		}
		var packages []string
		for _, e := range entries {
			if reCorePackage.MatchString(e.Name()) {
				packages = append(packages, e.Name())
			}
		}
		if len(packages) > 1 {
			return nil, &InvalidPackageError{Path: source, Reason: fmt.Sprintf("multiple ip packages found: %v", packages)}
		}
		if len(packages) == 1 {
			source = filepath.Join(source, packages[0])
		}
	}

	if err := materialize(source, destination); err != nil {
		return nil, err
	}

	args, err := packageArguments(destination)
	if err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return nil, &InvalidPackageError{Path: source, Reason: "does not contain any testable feature (sdk or hdk)"}
	}
	return args, nil
}

// materialize places the package content under destination, extracting it
// first when source is an archive.
func materialize(source, destination string) error {
	info, err := os.Stat(source)
	if err != nil {
		return fmt.Errorf("ip package: %w", err)
	}
	if info.IsDir() {
		return copyTree(source, destination)
	}

	tempdir, err := os.MkdirTemp("", "mm_ip_package_")
	if err != nil {
		return err
	}
	defer os.RemoveAll(tempdir)

	if err := archiver.Unarchive(source, tempdir); err != nil {
		return fmt.Errorf("extracting %s: %w", source, err)
	}

	// Failed packages carry a .FAILED suffix on the archive name but not
	// on the archived directory.
	base := filepath.Base(strings.ReplaceAll(source, ".FAILED", ""))
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if _, err := os.Stat(filepath.Join(tempdir, base)); err == nil {
		return copyTree(filepath.Join(tempdir, base), destination)
	}
	return copyTree(tempdir, destination)
}

// packageArguments derives runner arguments from the extracted package
// layout.
func packageArguments(destination string) ([]string, error) {
	entries, err := os.ReadDir(destination)
	if err != nil {
		return nil, fmt.Errorf("reading extracted package: %w", err)
	}

	var args []string
	for _, e := range entries {
		switch e.Name() {
		case "sdk", "hdk":
			args = append(args, "--"+e.Name(), filepath.Join(destination, e.Name()))
		case "README.txt":
			config, err := readmeConfiguration(filepath.Join(destination, e.Name()))
			if err != nil {
				return nil, err
			}
			if config != "" {
				args = append(args, "--configuration", config)
			}
		}
	}
	return args, nil
}

func readmeConfiguration(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	config := ""
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, configurationPrefix) {
			continue
		}
		if config != "" {
			return "", fmt.Errorf("%s: multiple configuration lines", path)
		}
		fields := strings.Fields(line)
		if len(fields) >= 2 {
			config = fields[1]
		}
	}
	return config, scanner.Err()
}

func copyTree(src, dst string) error {
	return filepath.Walk(src, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if info.IsDir() {
			return os.MkdirAll(target, info.Mode())
		}
		if info.Mode()&os.ModeSymlink != 0 {
			link, err := os.Readlink(p)
			if err != nil {
				return err
			}
			return os.Symlink(link, target)
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		return os.WriteFile(target, data, info.Mode())
	})
}
