package pipeline

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// branchLocks serializes the scan-then-publish window per branch within
// this process, so two runs for the same branch cannot interleave their
// floating-tag updates. Runs for different branches proceed independently.
// Coordination across separate pipeline hosts is out of scope.
var branchLocks sync.Map // branch → *semaphore.Weighted

// LockBranch acquires the per-branch publish lock, blocking until it is
// free or ctx is done. The returned release must be called exactly once.
func LockBranch(ctx context.Context, branch string) (release func(), err error) {
	v, _ := branchLocks.LoadOrStore(branch, semaphore.NewWeighted(1))
	sem := v.(*semaphore.Weighted)

	if err := sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	return func() { sem.Release(1) }, nil
}
