// Package state fetches the actual-state snapshot that reconciliation
// and diffing both consume: the repository file listing and the branch
// protection settings of every targeted branch.
package state

import (
	"context"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/gh-nvat/repo-contractchk/src/pkg/models"
	"github.com/gh-nvat/repo-contractchk/src/pkg/pathmatch"
)

var logger *log.Entry = log.New().WithFields(log.Fields{
	"package": "state",
})

// DefaultConcurrency bounds parallel protection fetches. Branch counts
// are typically single-digit, so a small pool is plenty.
const DefaultConcurrency = 4

// FileLister enumerates repository file paths relative to the root,
// VCS-internal directories already excluded.
type FileLister interface {
	ListPaths() ([]string, error)
}

// RemoteRepository is the abstract source-control API capability. A nil
// RemoteRepository means no credential is configured; callers must handle
// that branch explicitly rather than crash.
type RemoteRepository interface {
	ListBranches(ctx context.Context) ([]string, error)
	GetBranchProtection(ctx context.Context, branch string) (*models.ResolvedRules, error)
}

// BranchState is one branch's actual protection. Protection is nil when
// the branch carries none.
type BranchState struct {
	Name       string
	Protection *models.ResolvedRules
}

// Snapshot is the actual state both the reconciler and the diff engine
// compare against. Either part may be absent when the corresponding rule
// family is filtered out.
type Snapshot struct {
	Files    *pathmatch.FileSet
	Branches []BranchState
}

// FetchFiles lists the repository tree into an indexed file set.
func FetchFiles(fs FileLister) (*pathmatch.FileSet, error) {
	paths, err := fs.ListPaths()
	if err != nil {
		return nil, err
	}
	logger.WithField("files", len(paths)).Debug("Listed repository files")
	return pathmatch.NewFileSet(paths), nil
}

// FetchBranches resolves the branch globs against the remote's branch
// list and fetches each matched branch's protection once. Fetches run
// concurrently under a bounded pool; the returned slice is reordered to
// branch-list declaration order so results stay deterministic.
func FetchBranches(ctx context.Context, repo RemoteRepository, globs []string, concurrency int) ([]BranchState, error) {
	if concurrency < 1 {
		concurrency = DefaultConcurrency
	}

	branches, err := repo.ListBranches(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list branches: %w", err)
	}

	matched, err := pathmatch.MatchBranches(globs, branches)
	if err != nil {
		return nil, err
	}
	logger.WithField("matched", matched).Debug("Matched protected branch globs")

	states := make([]BranchState, len(matched))
	errs := make([]error, len(matched))

	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup
	for i, branch := range matched {
		sem <- struct{}{} // acquire
		wg.Add(1)
		go func(i int, branch string) {
			defer wg.Done()
			defer func() { <-sem }() // release

			protection, err := repo.GetBranchProtection(ctx, branch)
			states[i] = BranchState{Name: branch, Protection: protection}
			errs[i] = err
		}(i, branch)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return states, nil
}
