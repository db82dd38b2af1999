package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/agiledragon/gomonkey/v2"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// initRepository creates a repository at path with a single commit.
func initRepository(path string) (*git.Repository, error) {
	repo, err := git.PlainInit(path, false)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(filepath.Join(path, "i32.wast"), []byte("(module)\n"), 0o644); err != nil {
		return nil, err
	}
	worktree, err := repo.Worktree()
	if err != nil {
		return nil, err
	}
	if _, err := worktree.Add("i32.wast"); err != nil {
		return nil, err
	}
	_, err = worktree.Commit("add i32", &git.CommitOptions{
		Author: &object.Signature{Name: "tester", Email: "tester@example.com", When: time.Unix(0, 0)},
	})
	if err != nil {
		return nil, err
	}
	return repo, nil
}

func TestFetchTestsuite(t *testing.T) {
	var gotOpts *git.CloneOptions
	patches := gomonkey.ApplyGlobalVar(&plainClone, func(ctx context.Context, path string, isBare bool, o *git.CloneOptions) (*git.Repository, error) {
		gotOpts = o
		return initRepository(path)
	})
	defer patches.Reset()

	dir := filepath.Join(t.TempDir(), "testsuite")
	commit, err := fetchTestsuite(context.Background(), dir, DefaultTestsuiteURL, "")

	require.NoError(t, err)
	assert.Len(t, commit, 40)
	assert.FileExists(t, filepath.Join(dir, "i32.wast"))
	require.NotNil(t, gotOpts)
	assert.Equal(t, DefaultTestsuiteURL, gotOpts.URL)
	assert.Equal(t, 1, gotOpts.Depth, "head checkouts are shallow")
	assert.True(t, gotOpts.SingleBranch)
}

func TestFetchTestsuite_Revision(t *testing.T) {
	var head string
	patches := gomonkey.ApplyGlobalVar(&plainClone, func(ctx context.Context, path string, isBare bool, o *git.CloneOptions) (*git.Repository, error) {
		assert.Zero(t, o.Depth, "pinned revisions need full history")
		repo, err := initRepository(path)
		if err == nil {
			ref, _ := repo.Head()
			head = ref.Hash().String()
		}
		return repo, err
	})
	defer patches.Reset()

	dir := filepath.Join(t.TempDir(), "testsuite")
	commit, err := fetchTestsuite(context.Background(), dir, DefaultTestsuiteURL, "HEAD")

	require.NoError(t, err)
	assert.Equal(t, head, commit)
}

func TestFetchTestsuite_CloneError(t *testing.T) {
	patches := gomonkey.ApplyGlobalVar(&plainClone, func(ctx context.Context, path string, isBare bool, o *git.CloneOptions) (*git.Repository, error) {
		require.NoError(t, os.MkdirAll(path, 0o755))
		return nil, errors.New("network unreachable")
	})
	defer patches.Reset()

	parent := t.TempDir()
	_, err := fetchTestsuite(context.Background(), filepath.Join(parent, "testsuite"), DefaultTestsuiteURL, "")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "network unreachable")
	entries, readErr := os.ReadDir(parent)
	require.NoError(t, readErr)
	assert.Empty(t, entries, "the partial clone is removed")
}

func TestFetchTestsuite_NonEmptyDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "keep"), nil, 0o644))

	_, err := fetchTestsuite(context.Background(), dir, DefaultTestsuiteURL, "")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "not empty")
}
