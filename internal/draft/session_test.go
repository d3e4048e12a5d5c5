package draft

import (
	"context"
	"strings"
	"testing"
	"time"

	"traincape_lms_backend/internal/curriculum"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestSession(courseID string, snaps SnapshotStore, remote RemoteCourse) *Session {
	return NewSession(courseID, 7, snaps, remote, &fakeMedia{}, testOptions(), zap.NewNop())
}

func TestResumeBeatsLateRemoteFetch(t *testing.T) {
	snaps := newMemSnapshots()
	require.NoError(t, snaps.Put(context.Background(), snapshotAgedDays("course-1", 1)))

	remote := &fakeRemote{
		content:   remoteContent(1, 1),
		fetchGate: make(chan struct{}),
		fetchDone: make(chan struct{}),
	}
	s := newTestSession("course-1", snaps, remote)

	res := s.Open(context.Background())
	require.Equal(t, StateOfferingResume, res.State)
	require.NotNil(t, res.SnapshotSavedAt)

	res = s.Resume()
	assert.Equal(t, StateSettled, res.State)
	assert.True(t, res.Restored)
	assert.Equal(t, "Restored Title", s.View().Metadata.Title)

	// 远端响应在用户选择之后才到达，必须被丢弃
	close(remote.fetchGate)
	<-remote.fetchDone
	time.Sleep(50 * time.Millisecond)

	view := s.View()
	assert.Equal(t, "Restored Title", view.Metadata.Title)
	require.Len(t, view.Curriculum, 1)
	assert.Equal(t, "Restored Section", view.Curriculum[0].Title)
}

func TestExpiredSnapshotSettlesWithoutOffer(t *testing.T) {
	snaps := newMemSnapshots()
	require.NoError(t, snaps.Put(context.Background(), snapshotAgedDays("course-1", 7*30)))

	s := newTestSession("course-1", snaps, &fakeRemote{})
	res := s.Open(context.Background())

	assert.Equal(t, StateSettled, res.State)
	assert.False(t, res.Restored)
	assert.Nil(t, res.SnapshotSavedAt)
	assert.False(t, snaps.has("course-1"))
}

func TestRemoteFetchPopulatesFreshDraft(t *testing.T) {
	remote := &fakeRemote{content: remoteContent(2, 3)}
	s := newTestSession("course-1", newMemSnapshots(), remote)

	res := s.Open(context.Background())
	require.Equal(t, StateSettled, res.State)

	require.Eventually(t, func() bool {
		return len(s.View().Curriculum) == 2
	}, time.Second, 10*time.Millisecond)

	view := s.View()
	assert.Equal(t, "Remote Title", view.Metadata.Title)
	assert.Len(t, view.Curriculum[0].Items, 3)
	for _, sec := range view.Curriculum {
		assert.NotEmpty(t, sec.ID)
		for _, it := range sec.Items {
			assert.NotEmpty(t, it.ID)
		}
	}
}

func TestStartFreshDeletesSnapshotAndLetsFetchLand(t *testing.T) {
	snaps := newMemSnapshots()
	require.NoError(t, snaps.Put(context.Background(), snapshotAgedDays("course-1", 2)))

	remote := &fakeRemote{
		content:   remoteContent(1, 2),
		fetchGate: make(chan struct{}),
		fetchDone: make(chan struct{}),
	}
	s := newTestSession("course-1", snaps, remote)

	res := s.Open(context.Background())
	require.Equal(t, StateOfferingResume, res.State)

	res = s.StartFresh(context.Background())
	assert.Equal(t, StateSettled, res.State)
	assert.False(t, snaps.has("course-1"))

	close(remote.fetchGate)
	<-remote.fetchDone
	require.Eventually(t, func() bool {
		return s.View().Metadata.Title == "Remote Title"
	}, time.Second, 10*time.Millisecond)
}

func TestEditsDebounceIntoSnapshotAndRemotePatch(t *testing.T) {
	snaps := newMemSnapshots()
	remote := &fakeRemote{}
	s := newTestSession("course-1", snaps, remote)
	s.Open(context.Background())

	// 连续快速编辑合并为一次落盘
	s.AddSection()
	view := s.View()
	s.EditSection(view.Curriculum[0].ID, "Week 1")
	s.AddItem(view.Curriculum[0].ID, curriculum.KindLecture)

	require.Eventually(t, func() bool {
		return snaps.has("course-1") && remote.patchCount() >= 1
	}, time.Second, 10*time.Millisecond)

	snap := snaps.stored("course-1")
	require.NotNil(t, snap)
	assert.Equal(t, SnapshotSchemaVersion, snap.SchemaVersion)
	require.Len(t, snap.Curriculum, 1)
	assert.Equal(t, "Week 1", snap.Curriculum[0].Title)
	assert.Equal(t, 1, remote.patchCount())
}

func TestNoPersistenceBeforeSettlement(t *testing.T) {
	snaps := newMemSnapshots()
	require.NoError(t, snaps.Put(context.Background(), snapshotAgedDays("course-1", 1)))
	remote := &fakeRemote{fetchGate: make(chan struct{})}
	defer close(remote.fetchGate)

	s := newTestSession("course-1", snaps, remote)
	res := s.Open(context.Background())
	require.Equal(t, StateOfferingResume, res.State)

	saved := snaps.stored("course-1").SavedAt
	s.AddSection()
	time.Sleep(100 * time.Millisecond)

	assert.Equal(t, saved, snaps.stored("course-1").SavedAt)
	assert.Zero(t, remote.patchCount())
}

func TestSubmitBlockedByMissingPrice(t *testing.T) {
	remote := &fakeRemote{}
	s := newTestSession("", newMemSnapshots(), remote)
	s.Open(context.Background())
	s.UpdateMetadata(Metadata{
		Title:           "Go Basics",
		Subtitle:        "From zero",
		Description:     "desc",
		WelcomeMessage:  "hi",
		CongratsMessage: "bye",
		// price 留空
	})

	_, err := s.Submit(context.Background(), nil, nil)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.Touched["price"])
	assert.Contains(t, verr.Message, "price")
	// 校验失败时根本不应发起提交
	assert.Zero(t, remote.replaceCount())
	assert.True(t, s.View().Touched["price"])
}

func TestSubmitCreatesCourseUploadsAndClearsSnapshot(t *testing.T) {
	snaps := newMemSnapshots()
	remote := &fakeRemote{}
	media := &fakeMedia{}
	s := NewSession("", 7, snaps, remote, media, testOptions(), zap.NewNop())
	s.Open(context.Background())

	s.UpdateMetadata(Metadata{
		Title:           "Go Basics",
		Subtitle:        "From zero",
		Description:     "desc",
		Price:           "49.99",
		WelcomeMessage:  "hi",
		CongratsMessage: "bye",
	})
	s.AddSection()
	secID := s.View().Curriculum[0].ID
	s.AddItem(secID, curriculum.KindLecture)

	files := []SubmitFile{{
		Key:         "curriculum[0][items][0][video]",
		FileName:    "intro.mp4",
		Reader:      strings.NewReader("bytes"),
		Size:        5,
		ContentType: "video/mp4",
	}}
	courseID, err := s.Submit(context.Background(), nil, files)
	require.NoError(t, err)
	assert.Equal(t, "course-1", courseID)
	assert.Equal(t, 1, remote.replaceCount())
	require.Len(t, media.uploads, 1)

	view := s.View()
	require.NotNil(t, view.Curriculum[0].Items[0].Video)
	assert.Contains(t, view.Curriculum[0].Items[0].Video.URL, "https://media.test/")
	assert.False(t, view.Dirty)
	assert.False(t, snaps.has("course-1"))
}

func TestSubmitIgnoresOutOfRangeFileKeys(t *testing.T) {
	remote := &fakeRemote{}
	media := &fakeMedia{}
	s := NewSession("course-9", 7, newMemSnapshots(), remote, media, testOptions(), zap.NewNop())
	s.Open(context.Background())
	s.UpdateMetadata(Metadata{
		Title: "t", Subtitle: "s", Description: "d", Price: "1",
		WelcomeMessage: "w", CongratsMessage: "c",
	})

	files := []SubmitFile{{Key: "curriculum[4][items][0][video]", FileName: "x.mp4"}}
	_, err := s.Submit(context.Background(), nil, files)
	require.NoError(t, err)
	assert.Empty(t, media.uploads)
}

func TestNeedsLeaveWarning(t *testing.T) {
	s := newTestSession("course-1", newMemSnapshots(), &fakeRemote{})
	s.Open(context.Background())
	assert.False(t, s.NeedsLeaveWarning())

	s.AddSection()
	assert.True(t, s.NeedsLeaveWarning())

	// 本会话新建的课程不弹未保存警告
	fresh := newTestSession("", newMemSnapshots(), &fakeRemote{})
	fresh.Open(context.Background())
	fresh.AddSection()
	assert.False(t, fresh.NeedsLeaveWarning())
}

func TestCloseFlushesDirtyDraftToSnapshot(t *testing.T) {
	snaps := newMemSnapshots()
	s := newTestSession("course-1", snaps, &fakeRemote{})
	s.Open(context.Background())
	s.AddSection()

	s.Close()
	assert.True(t, snaps.has("course-1"))
}
