package draft

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"traincape_lms_backend/internal/curriculum"
)

// 测试替身：内存快照库、可阻塞的远端、记录上传的媒体库

type memSnapshots struct {
	mu     sync.Mutex
	m      map[string]*Snapshot
	getErr error
}

func newMemSnapshots() *memSnapshots {
	return &memSnapshots{m: map[string]*Snapshot{}}
}

func (s *memSnapshots) Get(_ context.Context, courseID string) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	snap, ok := s.m[courseID]
	if !ok {
		return nil, nil
	}
	cp := *snap
	return &cp, nil
}

func (s *memSnapshots) Put(_ context.Context, snap *Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *snap
	s.m[snap.CourseID] = &cp
	return nil
}

func (s *memSnapshots) Delete(_ context.Context, courseID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, courseID)
	return nil
}

func (s *memSnapshots) has(courseID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.m[courseID]
	return ok
}

func (s *memSnapshots) stored(courseID string) *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m[courseID]
}

type fakeRemote struct {
	mu       sync.Mutex
	content  *CourseContent
	fetchErr error

	// 置为非 nil 时 Fetch 会阻塞到该 channel 关闭，fetchDone 在返回后关闭
	fetchGate chan struct{}
	fetchDone chan struct{}

	created  int
	patches  int
	replaces int
	replaced []curriculum.Section
}

func (r *fakeRemote) Create(context.Context, uint) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created++
	return fmt.Sprintf("course-%d", r.created), nil
}

func (r *fakeRemote) Fetch(context.Context, string) (*CourseContent, error) {
	if r.fetchGate != nil {
		<-r.fetchGate
	}
	defer func() {
		if r.fetchDone != nil {
			close(r.fetchDone)
		}
	}()
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fetchErr != nil {
		return nil, r.fetchErr
	}
	return r.content, nil
}

func (r *fakeRemote) Patch(context.Context, string, []curriculum.Section) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.patches++
	return nil
}

func (r *fakeRemote) Replace(_ context.Context, _ string, _ Metadata, sections []curriculum.Section) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.replaces++
	r.replaced = sections
	return nil
}

func (r *fakeRemote) patchCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.patches
}

func (r *fakeRemote) replaceCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.replaces
}

func (r *fakeRemote) replacedSections() []curriculum.Section {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.replaced
}

type fakeMedia struct {
	mu      sync.Mutex
	uploads []string
}

func (m *fakeMedia) Upload(_ context.Context, filename string, reader io.Reader, _ int64, _ string) (string, error) {
	if reader != nil {
		io.Copy(io.Discard, reader)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploads = append(m.uploads, filename)
	return "https://media.test/" + filename, nil
}

func (m *fakeMedia) UploadFile(_ context.Context, filename string, _ string, _ string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploads = append(m.uploads, filename)
	return "https://media.test/" + filename, nil
}

func testOptions() Options {
	return Options{
		SnapshotMaxAge: 180 * 24 * time.Hour,
		LocalDebounce:  20 * time.Millisecond,
		RemoteDebounce: 40 * time.Millisecond,
	}
}

func snapshotAgedDays(courseID string, days int) *Snapshot {
	sections := curriculum.AddSection(nil)
	sections = curriculum.EditSection(sections, sections[0].ID, "Restored Section")
	return &Snapshot{
		SchemaVersion: SnapshotSchemaVersion,
		CourseID:      courseID,
		Metadata: Metadata{
			Title: "Restored Title",
			Price: "49.99",
		},
		Curriculum: sections,
		SavedAt:    time.Now().Add(-time.Duration(days) * 24 * time.Hour),
	}
}

func remoteContent(sections, itemsPerFirst int) *CourseContent {
	tree := []curriculum.Section{}
	for i := 0; i < sections; i++ {
		tree = curriculum.AddSection(tree)
	}
	for i := 0; i < itemsPerFirst; i++ {
		tree = curriculum.AddItem(tree, tree[0].ID, curriculum.KindLecture)
	}
	return &CourseContent{
		Metadata:   Metadata{Title: "Remote Title", Price: "10"},
		Curriculum: tree,
	}
}
