package scm

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromURL(t *testing.T) {
	tests := []struct {
		name              string
		url               string
		expectedNamespace string
		expectedName      string
	}{
		{
			name:              "ssh url",
			url:               "git@gitlab.example.com:cores/codasip_urisc.git",
			expectedNamespace: "cores",
			expectedName:      "codasip_urisc",
		},
		{
			name:              "https url",
			url:               "https://gitlab.example.com/cores/codasip_urisc.git",
			expectedNamespace: "cores",
			expectedName:      "codasip_urisc",
		},
		{
			name:              "no .git suffix",
			url:               "git@gitlab.example.com:cores/codasip_urisc",
			expectedNamespace: "cores",
			expectedName:      "codasip_urisc",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := FromURL(tt.url, "", nil)
			assert.Equal(t, tt.expectedNamespace, repo.Namespace)
			assert.Equal(t, tt.expectedName, repo.Name)
			assert.Equal(t, tt.url, repo.URL)
			assert.True(t, filepath.IsAbs(repo.Dir))
		})
	}
}

func TestMatchBranches(t *testing.T) {
	lsRemote := "" +
		"abc123\trefs/heads/master\n" +
		"def456\trefs/heads/devel\n" +
		"abc789\trefs/heads/feature-timers\n" +
		"aaa111\trefs/tags/7.2.0\n" +
		"aaa111\trefs/tags/7.2.0^{}\n" +
		"bbb222\trefs/tags/7.3.0\n" +
		"bbb222\trefs/tags/7.3.0^{}\n"

	// Every pattern must match the candidate.
	branches, err := matchBranches(lsRemote, []string{`^7\.`, `\.0$`})
	require.NoError(t, err)
	assert.Equal(t, []string{"7.2.0", "7.3.0"}, branches)

	// Dereferenced tag entries are collapsed.
	branches, err = matchBranches(lsRemote, []string{`7\.2\.0`})
	require.NoError(t, err)
	assert.Equal(t, []string{"7.2.0"}, branches)

	// No patterns keeps everything, sorted.
	branches, err = matchBranches(lsRemote, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"7.2.0", "7.3.0", "devel", "feature-timers", "master"}, branches)

	// Invalid patterns fail instead of matching nothing.
	_, err = matchBranches(lsRemote, []string{"("})
	require.Error(t, err)
}

// initRepo creates a local git repository with one commit so clone and
// branch detection can run without a remote server.
func initRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	run := func(args ...string) {
		t.Helper()
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		cmd.Env = append(os.Environ(),
			"GIT_AUTHOR_NAME=test", "GIT_AUTHOR_EMAIL=test@example.com",
			"GIT_COMMITTER_NAME=test", "GIT_COMMITTER_EMAIL=test@example.com",
		)
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, "git %v: %s", args, out)
	}
	run("init", "-b", "master")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README"), []byte("hello\n"), 0o644))
	run("add", "README")
	run("commit", "-m", "initial")
	return dir
}

func TestCloneAndBranchDetection(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	ctx := context.Background()
	origin := initRepo(t)

	dest := filepath.Join(t.TempDir(), "checkout")
	repo := FromURL(origin, dest, nil)
	assert.False(t, repo.Initialized())

	require.NoError(t, repo.Clone(ctx, ""))
	assert.True(t, repo.Initialized())

	branch, err := repo.Branch(ctx)
	require.NoError(t, err)
	assert.Equal(t, "master", branch)

	commit, err := repo.Commit(ctx)
	require.NoError(t, err)
	assert.Len(t, commit, 40)
}

func TestCheckoutBranchesNoMatch(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	origin := initRepo(t)

	_, err := CheckoutBranches(context.Background(), origin, t.TempDir(), []string{"^release-"}, false, nil)
	require.Error(t, err)
	assert.True(t, IsNoBranchError(err))
}

func TestFromDir(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	ctx := context.Background()
	origin := initRepo(t)

	dest := filepath.Join(t.TempDir(), "checkout")
	require.NoError(t, FromURL(origin, dest, nil).Clone(ctx, ""))

	repo, err := FromDir(ctx, dest, nil)
	require.NoError(t, err)
	assert.Equal(t, dest, repo.Dir)

	_, err = FromDir(ctx, t.TempDir(), nil)
	require.Error(t, err)
}
