// Package gitsource keeps a local checkout of a git deck repository
// up to date.
package gitsource

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
)

// Sync clones the repository at remote into localPath, or pulls the
// latest changes if a checkout already exists there.
func Sync(remote, localPath string) error {
	_, err := os.Stat(localPath)
	switch {
	case os.IsNotExist(err):
		slog.Info("cloning deck repository", "remote", remote, "path", localPath)
		if _, err := git.PlainClone(localPath, false, &git.CloneOptions{URL: remote}); err != nil {
			return fmt.Errorf("clone %s: %w", remote, err)
		}
	case err == nil:
		slog.Info("pulling deck repository", "path", localPath)
		repo, err := git.PlainOpen(localPath)
		if err != nil {
			return fmt.Errorf("open checkout at %s: %w", localPath, err)
		}
		worktree, err := repo.Worktree()
		if err != nil {
			return fmt.Errorf("worktree at %s: %w", localPath, err)
		}
		err = worktree.Pull(&git.PullOptions{RemoteName: "origin"})
		if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
			return fmt.Errorf("pull %s: %w", localPath, err)
		}
	default:
		return fmt.Errorf("stat %s: %w", localPath, err)
	}
	return nil
}

// LocalPath maps a git remote to a stable checkout directory under
// cacheDir, keyed by host and repository path.
func LocalPath(cacheDir, remote string) (string, error) {
	parsed, err := url.Parse(remote)
	if err == nil && (parsed.Scheme == "https" || parsed.Scheme == "http") {
		repoPath := strings.TrimSuffix(parsed.Path, ".git")
		return filepath.Join(cacheDir, parsed.Host, repoPath), nil
	}

	// scp-like form: git@host:owner/repo.git
	if at := strings.Index(remote, "@"); at >= 0 {
		rest := remote[at+1:]
		if host, repoPath, ok := strings.Cut(rest, ":"); ok && host != "" && repoPath != "" {
			return filepath.Join(cacheDir, host, strings.TrimSuffix(repoPath, ".git")), nil
		}
	}
	return "", fmt.Errorf("unrecognized git remote: %s", remote)
}
