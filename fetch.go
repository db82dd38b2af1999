package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// DefaultTestsuiteURL hosts the upstream conformance scripts.
const DefaultTestsuiteURL = "https://github.com/WebAssembly/testsuite.git"

// plainClone clones a repository. Tests replace it.
var plainClone = git.PlainCloneContext

// fetchTestsuite checks out url at rev (default branch head when empty) into
// dir and returns the resolved commit. dir must not exist or be empty.
func fetchTestsuite(ctx context.Context, dir, url, rev string) (string, error) {
	if entries, err := os.ReadDir(dir); err == nil && len(entries) > 0 {
		return "", fmt.Errorf("fetch: %s already exists and is not empty", dir)
	}

	parent := filepath.Dir(filepath.Clean(dir))
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return "", err
	}
	tmpDir, err := os.MkdirTemp(parent, "testsuite-fetch-*")
	if err != nil {
		return "", err
	}
	if err := os.RemoveAll(tmpDir); err != nil {
		return "", err
	}

	opts := &git.CloneOptions{URL: url}
	rev = strings.TrimSpace(rev)
	if rev == "" {
		opts.Depth = 1
		opts.SingleBranch = true
	}

	repo, err := plainClone(ctx, tmpDir, false, opts)
	if err != nil {
		_ = os.RemoveAll(tmpDir)
		return "", fmt.Errorf("git clone %s: %w", url, err)
	}

	var commit string
	if rev == "" {
		head, err := repo.Head()
		if err != nil {
			_ = os.RemoveAll(tmpDir)
			return "", err
		}
		commit = head.Hash().String()
	} else {
		hash, err := repo.ResolveRevision(plumbing.Revision(rev))
		if err != nil {
			_ = os.RemoveAll(tmpDir)
			return "", fmt.Errorf("resolve revision %s: %w", rev, err)
		}
		worktree, err := repo.Worktree()
		if err != nil {
			_ = os.RemoveAll(tmpDir)
			return "", err
		}
		if err := worktree.Checkout(&git.CheckoutOptions{Hash: *hash, Force: true}); err != nil {
			_ = os.RemoveAll(tmpDir)
			return "", fmt.Errorf("git checkout %s: %w", rev, err)
		}
		commit = hash.String()
	}

	_ = os.Remove(dir)
	if err := os.Rename(tmpDir, dir); err != nil {
		_ = os.RemoveAll(tmpDir)
		return "", err
	}
	return commit, nil
}
