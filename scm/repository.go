// Package scm wraps the git command line for the repository operations the
// execution driver needs: cloning, pulling, branch detection and
// materializing multiple branches of one repository side by side.
package scm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/log"
)

var (
	reOriginBranch = regexp.MustCompile(`origin/([\w\-\._]+)`)
	reTag          = regexp.MustCompile(`tag: ([\w\-\._]+)`)
)

// Repository is a local checkout (existing or prospective) of one remote
// git repository.
type Repository struct {
	Namespace string
	Name      string
	URL       string
	Dir       string

	log    log.Logger
	branch string
}

// FromURL builds a repository handle from its remote URL. The checkout
// directory defaults to the repository name under the working directory.
func FromURL(url, dir string, logger log.Logger) *Repository {
	if logger == nil {
		logger = log.Root()
	}

	// Both ssh (git@host:ns/name.git) and https URLs keep the namespace
	// and name as their last two path segments.
	path := url
	if i := strings.LastIndex(path, ":"); i >= 0 {
		path = path[i+1:]
	}
	segments := strings.Split(strings.Trim(path, "/"), "/")

	name := segments[len(segments)-1]
	name = strings.TrimSuffix(name, ".git")
	namespace := ""
	if len(segments) > 1 {
		namespace = segments[len(segments)-2]
	}

	if dir == "" {
		dir = name
	}
	abs, err := filepath.Abs(dir)
	if err == nil {
		dir = abs
	}

	return &Repository{
		Namespace: namespace,
		Name:      name,
		URL:       url,
		Dir:       dir,
		log:       logger,
	}
}

// FromDir builds a repository handle from an existing checkout by reading
// its origin remote. dir may be any subdirectory of the checkout.
func FromDir(ctx context.Context, dir string, logger log.Logger) (*Repository, error) {
	url, err := git(ctx, dir, "config", "--get", "remote.origin.url")
	if err != nil {
		return nil, fmt.Errorf("reading origin of %s: %w", dir, err)
	}
	top, err := git(ctx, dir, "rev-parse", "--show-toplevel")
	if err != nil {
		return nil, fmt.Errorf("locating repository root of %s: %w", dir, err)
	}
	return FromURL(strings.TrimSpace(url), strings.TrimSpace(top), logger), nil
}

// ID identifies the checkout as namespace:name[:branch].
func (r *Repository) ID(ctx context.Context) string {
	parts := []string{r.Namespace, r.Name}
	if branch, err := r.Branch(ctx); err == nil && branch != "" {
		parts = append(parts, branch)
	}
	return strings.Join(parts, ":")
}

// Initialized reports whether the checkout exists on disk.
func (r *Repository) Initialized() bool {
	info, err := os.Stat(filepath.Join(r.Dir, ".git"))
	return err == nil && info.IsDir()
}

// Clone clones the repository recursively, optionally at a branch or tag.
func (r *Repository) Clone(ctx context.Context, branch string) error {
	args := []string{"clone", "--recursive", r.URL, r.Dir}
	if branch != "" {
		args = append(args, "-b", branch)
	}
	r.log.Info("Cloning repository", "url", r.URL, "dir", r.Dir, "branch", branch)
	if _, err := git(ctx, "", args...); err != nil {
		return fmt.Errorf("cloning %s: %w", r.URL, err)
	}
	if branch != "" {
		r.branch = branch
	}
	return nil
}

// Pull pulls the current branch.
func (r *Repository) Pull(ctx context.Context) error {
	r.log.Info("Pulling repository", "dir", r.Dir)
	if _, err := git(ctx, r.Dir, "pull"); err != nil {
		return fmt.Errorf("pulling %s: %w", r.Dir, err)
	}
	return nil
}

// Checkout switches the checkout to a branch or tag. Checking out the
// current branch is a no-op.
func (r *Repository) Checkout(ctx context.Context, branch string) error {
	if current, err := r.Branch(ctx); err == nil && current == branch {
		r.log.Info("Repository already on branch", "repository", r.Name, "branch", branch)
		return nil
	}
	if _, err := git(ctx, r.Dir, "fetch", "--tags"); err != nil {
		return fmt.Errorf("fetching %s: %w", r.Dir, err)
	}
	r.log.Info("Switching branch", "dir", r.Dir, "branch", branch)
	if _, err := git(ctx, r.Dir, "checkout", branch); err != nil {
		return fmt.Errorf("checking out %s in %s: %w", branch, r.Dir, err)
	}
	r.branch = branch
	return nil
}

// Synchronize brings the checkout up to date with the remote: clone when it
// does not exist yet, otherwise checkout or pull plus submodule update.
func (r *Repository) Synchronize(ctx context.Context, branch string) error {
	if !r.Initialized() {
		if err := r.Clone(ctx, branch); err != nil {
			return err
		}
		if branch == "" {
			return nil
		}
		// Tag clones need an explicit checkout afterwards.
		_, err := git(ctx, r.Dir, "checkout", branch)
		return err
	}

	current, _ := r.Branch(ctx)
	if branch != "" && branch != current {
		if err := r.Checkout(ctx, branch); err != nil {
			return err
		}
	} else if err := r.Pull(ctx); err != nil {
		return err
	}
	if _, err := git(ctx, r.Dir, "submodule", "init"); err != nil {
		return err
	}
	_, err := git(ctx, r.Dir, "submodule", "update")
	return err
}

// Branch returns the checked-out branch. Detached checkouts fall back to
// the decorated log of HEAD, preferring an origin branch over a tag.
func (r *Repository) Branch(ctx context.Context) (string, error) {
	if !r.Initialized() {
		return "", nil
	}
	if r.branch != "" {
		return r.branch, nil
	}

	out, err := git(ctx, r.Dir, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", fmt.Errorf("detecting branch of %s: %w", r.Dir, err)
	}
	branch := strings.TrimSpace(out)
	if i := strings.LastIndex(branch, "/"); i >= 0 {
		branch = branch[i+1:]
	}

	if branch == "" || branch == "HEAD" {
		out, err = git(ctx, r.Dir, "log", "-n", "1", "--pretty=%d", "HEAD")
		if err != nil {
			return "", fmt.Errorf("detecting branch of %s: %w", r.Dir, err)
		}
		decoration := strings.TrimSpace(out)
		if m := reOriginBranch.FindStringSubmatch(decoration); m != nil {
			branch = m[1]
		} else if m := reTag.FindStringSubmatch(decoration); m != nil {
			branch = m[1]
		}
	}

	r.branch = branch
	return branch, nil
}

// Commit returns the commit hash of HEAD.
func (r *Repository) Commit(ctx context.Context) (string, error) {
	if !r.Initialized() {
		return "", nil
	}
	out, err := git(ctx, r.Dir, "rev-parse", "HEAD")
	if err != nil {
		return "", fmt.Errorf("reading commit of %s: %w", r.Dir, err)
	}
	return strings.TrimSpace(out), nil
}

// Branches lists the remote branch and tag names matching every pattern.
// With no patterns, every name is returned. The result is sorted and
// deduplicated.
func Branches(ctx context.Context, url string, patterns []string) ([]string, error) {
	out, err := git(ctx, "", "ls-remote", "--tags", "-h", url)
	if err != nil {
		return nil, fmt.Errorf("listing branches of %s: %w", url, err)
	}

	res, err := matchBranches(out, patterns)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func matchBranches(lsRemote string, patterns []string) ([]string, error) {
	regexps := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid branch pattern %q: %w", p, err)
		}
		regexps = append(regexps, re)
	}

	seen := make(map[string]struct{})
	for _, line := range strings.Split(lsRemote, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		name := line[strings.LastIndex(line, "/")+1:]
		// ls-remote lists every tag twice, the second with a ^{} suffix.
		if strings.HasSuffix(name, "^{}") {
			continue
		}
		matched := true
		for _, re := range regexps {
			if !re.MatchString(name) {
				matched = false
				break
			}
		}
		if matched {
			seen[name] = struct{}{}
		}
	}

	res := make([]string, 0, len(seen))
	for name := range seen {
		res = append(res, name)
	}
	sort.Strings(res)
	return res, nil
}

// NoBranchError reports that no remote branch or tag matched the patterns.
type NoBranchError struct {
	URL      string
	Patterns []string
}

func (e *NoBranchError) Error() string {
	return fmt.Sprintf("no branch of %s has been matched by pattern(s) %v", e.URL, e.Patterns)
}

// IsNoBranchError checks if the error is or wraps a NoBranchError
func IsNoBranchError(err error) bool {
	var noBranch *NoBranchError
	return err != nil && errors.As(err, &noBranch)
}

// CheckoutBranches materializes one checkout per remote branch matching
// the patterns, each in its own subdirectory of dir named after the
// branch. Matching no branch at all is an error.
func CheckoutBranches(ctx context.Context, url, dir string, patterns []string, pull bool, logger log.Logger) ([]*Repository, error) {
	base := FromURL(url, dir, logger)

	branches, err := Branches(ctx, url, patterns)
	if err != nil {
		return nil, err
	}
	if len(branches) == 0 {
		return nil, &NoBranchError{URL: url, Patterns: patterns}
	}

	if dir == "" {
		dir = base.Name
	}
	repos := make([]*Repository, 0, len(branches))
	for _, branch := range branches {
		repo := FromURL(url, filepath.Join(dir, branch), logger)
		if pull || !repo.Initialized() {
			if err := repo.Synchronize(ctx, branch); err != nil {
				return nil, fmt.Errorf("materializing branch %s: %w", branch, err)
			}
		}
		repo.branch = branch
		repos = append(repos, repo)
	}
	return repos, nil
}

// git runs one git command and returns its stdout. Failures carry the
// trailing stderr for context.
func git(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return "", fmt.Errorf("git %s: %w: %s", strings.Join(args, " "), err, msg)
		}
		return "", fmt.Errorf("git %s: %w", strings.Join(args, " "), err)
	}
	return stdout.String(), nil
}
