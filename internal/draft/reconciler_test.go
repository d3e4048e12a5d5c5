package draft

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.uber.org/zap"
)

func newTestReconciler(snapshots SnapshotStore) *Reconciler {
	return NewReconciler(snapshots, 180*24*time.Hour, zap.NewNop())
}

func TestResolveWithoutSnapshotSettlesImmediately(t *testing.T) {
	rec := newTestReconciler(newMemSnapshots())
	state := rec.Resolve(context.Background(), "course-1")
	assert.Equal(t, StateSettled, state)
	assert.True(t, rec.Settled())
	assert.False(t, rec.Restored())
}

func TestResolveWithFreshSnapshotOffersResume(t *testing.T) {
	snaps := newMemSnapshots()
	snaps.Put(context.Background(), snapshotAgedDays("course-1", 1))

	rec := newTestReconciler(snaps)
	state := rec.Resolve(context.Background(), "course-1")
	assert.Equal(t, StateOfferingResume, state)
	require.NotNil(t, rec.PendingSnapshot())
	assert.Equal(t, "Restored Title", rec.PendingSnapshot().Metadata.Title)
}

func TestResolveWithExpiredSnapshotDeletesAndSettles(t *testing.T) {
	snaps := newMemSnapshots()
	// 7个月前的快照静默丢弃
	snaps.Put(context.Background(), snapshotAgedDays("course-1", 7*30))

	rec := newTestReconciler(snaps)
	state := rec.Resolve(context.Background(), "course-1")
	assert.Equal(t, StateSettled, state)
	assert.Nil(t, rec.PendingSnapshot())
	assert.False(t, snaps.has("course-1"))
}

func TestResolveStoreErrorSettlesWithoutOffer(t *testing.T) {
	snaps := newMemSnapshots()
	snaps.getErr = errors.New("redis down")

	rec := newTestReconciler(snaps)
	state := rec.Resolve(context.Background(), "course-1")
	assert.Equal(t, StateSettled, state)
}

func TestSettledIsTerminal(t *testing.T) {
	snaps := newMemSnapshots()
	rec := newTestReconciler(snaps)
	rec.Resolve(context.Background(), "course-1")
	require.True(t, rec.Settled())

	// 再次 Resolve / Resume / StartFresh 都不改变状态
	snaps.Put(context.Background(), snapshotAgedDays("course-1", 1))
	assert.Equal(t, StateSettled, rec.Resolve(context.Background(), "course-1"))
	assert.Nil(t, rec.Resume())
	rec.StartFresh(context.Background(), "course-1")
	assert.Equal(t, StateSettled, rec.State())
}

func TestResumeExpiresEarlierFetchGeneration(t *testing.T) {
	snaps := newMemSnapshots()
	snaps.Put(context.Background(), snapshotAgedDays("course-1", 1))

	rec := newTestReconciler(snaps)
	rec.Resolve(context.Background(), "course-1")

	gen := rec.FetchGeneration()
	require.True(t, rec.AcceptRemote(gen))

	snap := rec.Resume()
	require.NotNil(t, snap)
	assert.True(t, rec.Restored())
	assert.True(t, rec.Settled())
	// 选择恢复之后，晚到的远端响应必须被拒绝
	assert.False(t, rec.AcceptRemote(gen))
	assert.False(t, rec.AcceptRemote(rec.FetchGeneration()))
}

func TestStartFreshKeepsFetchValidAndDeletesSnapshot(t *testing.T) {
	snaps := newMemSnapshots()
	snaps.Put(context.Background(), snapshotAgedDays("course-1", 1))

	rec := newTestReconciler(snaps)
	rec.Resolve(context.Background(), "course-1")
	gen := rec.FetchGeneration()

	rec.StartFresh(context.Background(), "course-1")
	assert.True(t, rec.Settled())
	assert.False(t, snaps.has("course-1"))
	// 重新开始时远端抓取仍可落地
	assert.True(t, rec.AcceptRemote(gen))
}
