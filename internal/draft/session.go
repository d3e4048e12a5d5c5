package draft

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"traincape_lms_backend/internal/curriculum"
	"traincape_lms_backend/pkg/monitoring"

	"go.uber.org/zap"
)

// MediaStore is the injected binary-file collaborator. Drafts only ever hold
// identifiers/URLs returned from here, never raw bytes.
type MediaStore interface {
	Upload(ctx context.Context, filename string, reader io.Reader, size int64, contentType string) (string, error)
	UploadFile(ctx context.Context, filename string, localPath string, contentType string) (string, error)
}

// Change 单个变更通知，两个持久化消费者各自订阅
type Change struct {
	Curriculum bool
}

// Options configures a session's persistence scheduling.
type Options struct {
	SnapshotMaxAge time.Duration
	LocalDebounce  time.Duration
	RemoteDebounce time.Duration
}

// ValidationError blocks final submission; Touched drives inline display.
type ValidationError struct {
	Touched map[string]bool
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Session is one authoring session for one course and one instructor. All
// shared state is touched under s.mu only; asynchronous completions (remote
// fetch, debounce fires) re-acquire the lock and re-check liveness, so there
// is exactly one logical writer.
type Session struct {
	mu sync.Mutex

	courseID     string
	instructorID uint
	newCourse    bool

	metadata   Metadata
	sections   []curriculum.Section
	touched    map[string]bool
	dirty      bool
	cleared    bool
	lastActive time.Time

	rec       *Reconciler
	snapshots SnapshotStore
	remote    RemoteCourse
	media     MediaStore

	subscribers []func(Change)
	localDeb    *Debouncer
	remoteDeb   *Debouncer

	log *zap.Logger
}

func NewSession(courseID string, instructorID uint, snapshots SnapshotStore, remote RemoteCourse, media MediaStore, opts Options, log *zap.Logger) *Session {
	s := &Session{
		courseID:     courseID,
		instructorID: instructorID,
		newCourse:    courseID == "",
		sections:     []curriculum.Section{},
		touched:      map[string]bool{},
		lastActive:   time.Now(),
		rec:          NewReconciler(snapshots, opts.SnapshotMaxAge, log),
		snapshots:    snapshots,
		remote:       remote,
		media:        media,
		log:          log,
	}

	// 一条变更流，两个独立防抖的消费者：本地快照、远端增量保存
	s.localDeb = NewDebouncer(opts.LocalDebounce, s.persistLocal)
	s.remoteDeb = NewDebouncer(opts.RemoteDebounce, s.persistRemote)
	s.subscribers = []func(Change){
		func(Change) { s.localDeb.Trigger() },
		func(c Change) {
			if c.Curriculum {
				s.remoteDeb.Trigger()
			}
		},
	}
	return s
}

// OpenResult tells the caller how the session started.
type OpenResult struct {
	CourseID        string     `json:"courseId"`
	State           State      `json:"state"`
	Restored        bool       `json:"restored"`
	SnapshotSavedAt *time.Time `json:"snapshotSavedAt,omitempty"`
}

// Open runs the reconciler and, for an existing course, kicks off the
// optimistic remote fetch before the user's resume choice is known.
func (s *Session) Open(ctx context.Context) OpenResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = time.Now()

	if s.courseID == "" {
		// 全新课程：无快照可言，直接定稿
		s.rec.Resolve(ctx, "")
		return s.openResult()
	}

	s.rec.Resolve(ctx, s.courseID)
	s.startRemoteFetch()
	return s.openResult()
}

// Status is the locked variant of openResult for out-of-band callers.
func (s *Session) Status() OpenResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.openResult()
}

func (s *Session) openResult() OpenResult {
	res := OpenResult{
		CourseID: s.courseID,
		State:    s.rec.State(),
		Restored: s.rec.Restored(),
	}
	if snap := s.rec.PendingSnapshot(); snap != nil {
		t := snap.SavedAt
		res.SnapshotSavedAt = &t
	}
	return res
}

// startRemoteFetch 必须持锁调用；完成回调会重新拿锁并校验代数
func (s *Session) startRemoteFetch() {
	gen := s.rec.FetchGeneration()
	courseID := s.courseID
	go func() {
		// 请求结束后抓取仍可完成，结果是否采纳由代数判定
		fetchCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		content, err := s.remote.Fetch(fetchCtx, courseID)
		if err != nil {
			// 附带加载失败只记日志，草稿保持原状
			s.log.Warn("pending course fetch failed",
				zap.String("courseId", courseID), zap.Error(err))
			return
		}
		s.applyRemote(gen, content)
	}()
}

func (s *Session) applyRemote(gen uint64, content *CourseContent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.rec.AcceptRemote(gen) {
		s.log.Debug("discarding stale remote fetch", zap.String("courseId", s.courseID))
		return
	}
	if content == nil {
		return
	}
	s.metadata = content.Metadata
	s.sections = content.Curriculum
}

// Resume hydrates every editable field from the offered snapshot.
func (s *Session) Resume() OpenResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = time.Now()

	if snap := s.rec.Resume(); snap != nil {
		s.metadata = snap.Metadata
		s.sections = snap.Curriculum
		monitoring.SnapshotRestores.Inc()
	}
	return s.openResult()
}

// StartFresh discards the offered snapshot; the in-flight remote fetch, if
// any, keeps its claim on the draft.
func (s *Session) StartFresh(ctx context.Context) OpenResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = time.Now()

	if s.rec.State() == StateOfferingResume {
		monitoring.SnapshotDiscards.Inc()
	}
	s.rec.StartFresh(ctx, s.courseID)
	return s.openResult()
}

// View is a consistent read of the draft for rendering.
type View struct {
	CourseID   string               `json:"courseId"`
	State      State                `json:"state"`
	Restored   bool                 `json:"restored"`
	Dirty      bool                 `json:"dirty"`
	Metadata   Metadata             `json:"metadata"`
	Curriculum []curriculum.Section `json:"curriculum"`
	Touched    map[string]bool      `json:"touched,omitempty"`
}

func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	touched := make(map[string]bool, len(s.touched))
	for k, v := range s.touched {
		touched[k] = v
	}
	return View{
		CourseID:   s.courseID,
		State:      s.rec.State(),
		Restored:   s.rec.Restored(),
		Dirty:      s.dirty,
		Metadata:   s.metadata,
		Curriculum: s.sections,
		Touched:    touched,
	}
}

// NeedsLeaveWarning implements the navigation guard: warn while a course id
// is bound and the course is not newly created in this session.
func (s *Session) NeedsLeaveWarning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.courseID != "" && !s.newCourse && s.dirty
}

// UpdateMetadata replaces the editable scalar fields.
func (s *Session) UpdateMetadata(meta Metadata) {
	s.mutate(func() { s.metadata = meta }, false)
}

func (s *Session) AddSection() {
	s.mutate(func() { s.sections = curriculum.AddSection(s.sections) }, true)
}

func (s *Session) EditSection(sectionID, title string) {
	s.mutate(func() { s.sections = curriculum.EditSection(s.sections, sectionID, title) }, true)
}

func (s *Session) DeleteSection(sectionID string) {
	s.mutate(func() { s.sections = curriculum.DeleteSection(s.sections, sectionID) }, true)
}

func (s *Session) AddItem(sectionID string, kind curriculum.ItemKind) {
	s.mutate(func() { s.sections = curriculum.AddItem(s.sections, sectionID, kind) }, true)
}

func (s *Session) EditItem(sectionID, itemID, title string) {
	s.mutate(func() { s.sections = curriculum.EditItem(s.sections, sectionID, itemID, title) }, true)
}

func (s *Session) DeleteItem(sectionID, itemID string) {
	s.mutate(func() { s.sections = curriculum.DeleteItem(s.sections, sectionID, itemID) }, true)
}

func (s *Session) ToggleExpand(sectionID, itemID string) {
	s.mutate(func() { s.sections = curriculum.ToggleExpand(s.sections, sectionID, itemID) }, true)
}

func (s *Session) AddQuestion(sectionID, itemID string) {
	s.mutate(func() { s.sections = curriculum.AddQuestion(s.sections, sectionID, itemID) }, true)
}

func (s *Session) UpdateQuestion(sectionID, itemID, questionID string, q curriculum.Question) {
	s.mutate(func() {
		s.sections = curriculum.UpdateQuestion(s.sections, sectionID, itemID, questionID, q)
	}, true)
}

func (s *Session) DeleteQuestion(sectionID, itemID, questionID string) {
	s.mutate(func() {
		s.sections = curriculum.DeleteQuestion(s.sections, sectionID, itemID, questionID)
	}, true)
}

// SetAnswerCorrect 标记答案正误；单选/判断题保持恰好一个正确项
func (s *Session) SetAnswerCorrect(sectionID, itemID, questionID, answerID string, correct bool) {
	s.mutate(func() {
		item, ok := curriculum.FindItem(s.sections, sectionID, itemID)
		if !ok {
			return
		}
		for _, q := range item.Questions {
			if q.ID == questionID {
				s.sections = curriculum.UpdateQuestion(s.sections, sectionID, itemID, questionID,
					curriculum.SetAnswerCorrect(q, answerID, correct))
				return
			}
		}
	}, true)
}

func (s *Session) SetItemVideo(sectionID, itemID string, video curriculum.VideoRef) {
	s.mutate(func() {
		s.sections = curriculum.SetItemVideo(s.sections, sectionID, itemID, video)
	}, true)
}

func (s *Session) SetItemPendingVideo(sectionID, itemID, localPath string, duration float64) {
	// 待上传文件引用不进快照，但仍算一次编辑
	s.mutate(func() {
		s.sections = curriculum.SetItemPendingVideo(s.sections, sectionID, itemID, localPath, duration)
	}, false)
}

func (s *Session) AddItemDocument(sectionID, itemID string, doc curriculum.Document) {
	s.mutate(func() {
		s.sections = curriculum.AddItemDocument(s.sections, sectionID, itemID, doc)
	}, true)
}

func (s *Session) mutate(apply func(), curriculumChanged bool) {
	s.mu.Lock()
	apply()
	s.dirty = true
	s.lastActive = time.Now()
	settled := s.rec.Settled()
	subs := s.subscribers
	s.mu.Unlock()

	// 持久化只在定稿后调度
	if !settled {
		return
	}
	ch := Change{Curriculum: curriculumChanged}
	for _, fn := range subs {
		fn(ch)
	}
}

// persistLocal writes the draft snapshot, fire-and-forget.
func (s *Session) persistLocal() {
	s.mu.Lock()
	if s.cleared || s.courseID == "" || !s.rec.Settled() {
		s.mu.Unlock()
		return
	}
	snap := &Snapshot{
		SchemaVersion: SnapshotSchemaVersion,
		CourseID:      s.courseID,
		Metadata:      s.metadata,
		Curriculum:    s.sections,
		SavedAt:       time.Now(),
	}
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.snapshots.Put(ctx, snap); err != nil {
		// 尽力而为，下个防抖周期会带着最新状态重写
		s.log.Debug("snapshot write dropped", zap.String("courseId", snap.CourseID), zap.Error(err))
	}
}

// persistRemote pushes a curriculum-only partial update. Failures are logged
// and not retried; the next edit's debounce cycle carries the latest state.
func (s *Session) persistRemote() {
	s.mu.Lock()
	if s.cleared || s.courseID == "" || !s.rec.Settled() {
		s.mu.Unlock()
		return
	}
	courseID := s.courseID
	sections := s.sections
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.remote.Patch(ctx, courseID, sections); err != nil {
		s.log.Warn("incremental curriculum save failed",
			zap.String("courseId", courseID), zap.Error(err))
	}
}

// SubmitFile is one binary part of the final submission payload.
type SubmitFile struct {
	Key         string
	FileName    string
	Reader      io.Reader
	Size        int64
	ContentType string
}

// Submit assembles and transmits the full course draft. On validation
// failure nothing is attempted and a *ValidationError is returned; on
// network failure the draft and its snapshot stay untouched for retry.
func (s *Session) Submit(ctx context.Context, thumbnail *SubmitFile, files []SubmitFile) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = time.Now()

	if touched, err := ValidateRequired(s.metadata); err != nil {
		for k, v := range touched {
			s.touched[k] = v
		}
		return "", &ValidationError{Touched: touched, Message: err.Error()}
	}
	if _, err := ParsePrice(s.metadata.Price); err != nil {
		s.touched["price"] = true
		return "", &ValidationError{Touched: map[string]bool{"price": true}, Message: "price must be a non-negative number"}
	}

	// 先拿到远端标识，再传内容
	if s.courseID == "" {
		id, err := s.remote.Create(ctx, s.instructorID)
		if err != nil {
			return "", err
		}
		s.courseID = id
	}

	if thumbnail != nil {
		url, err := s.media.Upload(ctx, mediaObjectName(s.courseID, "thumbnail", thumbnail.FileName), thumbnail.Reader, thumbnail.Size, thumbnail.ContentType)
		if err != nil {
			return "", err
		}
		s.metadata.ThumbnailURL = url
	}

	if err := s.applySubmitFiles(ctx, files); err != nil {
		return "", err
	}
	if err := s.uploadPendingVideos(ctx); err != nil {
		return "", err
	}

	if err := s.remote.Replace(ctx, s.courseID, s.metadata, s.sections); err != nil {
		return "", err
	}

	if err := s.snapshots.Delete(ctx, s.courseID); err != nil {
		s.log.Warn("failed to clear snapshot after submission",
			zap.String("courseId", s.courseID), zap.Error(err))
	}
	s.dirty = false
	s.cleared = true
	s.touched = map[string]bool{}
	return s.courseID, nil
}

// applySubmitFiles 上传按章节/小节位置寻址的文件并把得到的 URL 写回树。
// multipart 各部分的遍历顺序不保证，先按键名里的下标排序再追加，
// 否则同一小节的多个文档会乱序落库。
func (s *Session) applySubmitFiles(ctx context.Context, files []SubmitFile) error {
	type part struct {
		file SubmitFile
		key  FileKey
	}
	parts := make([]part, 0, len(files))
	for _, f := range files {
		fk, ok := ParseFileKey(f.Key)
		if !ok {
			s.log.Warn("ignoring unrecognized submission part", zap.String("key", f.Key))
			continue
		}
		parts = append(parts, part{file: f, key: fk})
	}
	sort.SliceStable(parts, func(i, j int) bool {
		return parts[i].key.Less(parts[j].key)
	})

	for _, p := range parts {
		f, fk := p.file, p.key
		if fk.SectionIndex >= len(s.sections) {
			continue
		}
		section := s.sections[fk.SectionIndex]
		if fk.ItemIndex >= len(section.Items) {
			continue
		}
		item := section.Items[fk.ItemIndex]

		url, err := s.media.Upload(ctx, mediaObjectName(s.courseID, f.Key, f.FileName), f.Reader, f.Size, f.ContentType)
		if err != nil {
			return err
		}
		switch fk.Field {
		case "video":
			s.sections = curriculum.SetItemVideo(s.sections, section.ID, item.ID, curriculum.VideoRef{
				ID:  curriculum.NewID(),
				URL: url,
			})
		case "documents":
			s.sections = curriculum.AddItemDocument(s.sections, section.ID, item.ID, curriculum.Document{
				FileURL:  url,
				FileName: f.FileName,
			})
		}
	}
	return nil
}

func (s *Session) uploadPendingVideos(ctx context.Context) error {
	for _, section := range s.sections {
		for _, item := range section.Items {
			if item.PendingVideoPath == "" {
				continue
			}
			url, err := s.media.UploadFile(ctx, mediaObjectName(s.courseID, "video", item.Title+".mp4"), item.PendingVideoPath, "video/mp4")
			if err != nil {
				return err
			}
			s.sections = curriculum.SetItemVideo(s.sections, section.ID, item.ID, curriculum.VideoRef{
				ID:       curriculum.NewID(),
				URL:      url,
				Duration: item.PendingVideoDuration,
			})
		}
	}
	return nil
}

func mediaObjectName(courseID, part, filename string) string {
	return fmt.Sprintf("courses/%s/%s/%s", courseID, part, filename)
}

// Flush forces both pending persistence consumers to run now.
func (s *Session) Flush() {
	s.localDeb.Flush()
	s.remoteDeb.Flush()
}

// Close stops the persistence timers. A still-dirty draft gets one last
// best-effort snapshot so the next session can offer resumption.
func (s *Session) Close() {
	s.mu.Lock()
	dirty := s.dirty && !s.cleared
	s.mu.Unlock()

	s.localDeb.Stop()
	s.remoteDeb.Stop()
	if dirty {
		s.persistLocal()
	}
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

func (s *Session) CourseID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.courseID
}
