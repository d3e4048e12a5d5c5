package draft

import (
	"context"
	"time"

	"traincape_lms_backend/internal/curriculum"
	"traincape_lms_backend/pkg/liveness"

	"go.uber.org/zap"
)

// State 本地草稿与远端副本之间的裁决状态
type State string

const (
	StateUndetermined   State = "undetermined"
	StateOfferingResume State = "offering-resume"
	StateSettled        State = "settled"
)

// CourseContent is what the remote collaborator returns for a pending course.
type CourseContent struct {
	Metadata   Metadata
	Curriculum []curriculum.Section
}

// RemoteCourse is the injected remote copy of a course under authoring.
type RemoteCourse interface {
	// Create mints a new pending-course identifier.
	Create(ctx context.Context, instructorID uint) (string, error)
	// Fetch returns current metadata and curriculum; (nil, nil) when the
	// course has no content yet.
	Fetch(ctx context.Context, courseID string) (*CourseContent, error)
	// Patch applies a partial curriculum-only update.
	Patch(ctx context.Context, courseID string, sections []curriculum.Section) error
	// Replace stores the full course content on final submission.
	Replace(ctx context.Context, courseID string, meta Metadata, sections []curriculum.Section) error
}

// Reconciler decides, once per session, whether the draft hydrates from a
// local snapshot or from the remote copy, and thereafter gates persistence.
// Settled is terminal and entered exactly once.
type Reconciler struct {
	state    State
	restored bool
	pending  *Snapshot // 待用户选择的快照，仅在 offering-resume 状态有值

	snapshots SnapshotStore
	maxAge    time.Duration
	now       func() time.Time
	fetchGen  liveness.Counter
	log       *zap.Logger
}

// NewReconciler 的时钟可注入，便于测试快照年龄判断
func NewReconciler(snapshots SnapshotStore, maxAge time.Duration, log *zap.Logger) *Reconciler {
	return &Reconciler{
		state:     StateUndetermined,
		snapshots: snapshots,
		maxAge:    maxAge,
		now:       time.Now,
		log:       log,
	}
}

func (r *Reconciler) State() State   { return r.state }
func (r *Reconciler) Settled() bool  { return r.state == StateSettled }
func (r *Reconciler) Restored() bool { return r.restored }

// PendingSnapshot returns the snapshot on offer, nil outside offering-resume.
func (r *Reconciler) PendingSnapshot() *Snapshot { return r.pending }

// Resolve evaluates the transition algorithm for courseID. Store errors are
// logged and treated as "no snapshot": losing a draft offer is recoverable,
// blocking the editor is not.
func (r *Reconciler) Resolve(ctx context.Context, courseID string) State {
	if r.state != StateUndetermined {
		return r.state
	}

	snap, err := r.snapshots.Get(ctx, courseID)
	if err != nil {
		r.log.Warn("snapshot lookup failed, settling without offer",
			zap.String("courseId", courseID), zap.Error(err))
		r.settle()
		return r.state
	}
	if snap == nil {
		r.settle()
		return r.state
	}

	if r.now().Sub(snap.SavedAt) > r.maxAge {
		// 过期快照静默丢弃
		if err := r.snapshots.Delete(ctx, courseID); err != nil {
			r.log.Warn("failed to delete expired snapshot",
				zap.String("courseId", courseID), zap.Error(err))
		}
		r.settle()
		return r.state
	}

	r.pending = snap
	r.state = StateOfferingResume
	return r.state
}

// Resume accepts the offered snapshot. The returned snapshot hydrates the
// draft; any in-flight remote fetch stamped before this call is expired.
func (r *Reconciler) Resume() *Snapshot {
	if r.state != StateOfferingResume {
		return nil
	}
	snap := r.pending
	r.restored = true
	r.fetchGen.Invalidate()
	r.settle()
	return snap
}

// StartFresh discards the offered snapshot and settles. A remote fetch that
// is still in flight stays valid and may populate the draft on arrival.
func (r *Reconciler) StartFresh(ctx context.Context, courseID string) {
	if r.state != StateOfferingResume {
		return
	}
	if err := r.snapshots.Delete(ctx, courseID); err != nil {
		r.log.Warn("failed to discard snapshot",
			zap.String("courseId", courseID), zap.Error(err))
	}
	r.settle()
}

// FetchGeneration stamps an optimistic remote fetch.
func (r *Reconciler) FetchGeneration() uint64 {
	return r.fetchGen.Current()
}

// AcceptRemote reports whether a remote fetch stamped with gen may still
// apply its result. A fetch that lost the race against "Resume" is stale.
func (r *Reconciler) AcceptRemote(gen uint64) bool {
	return r.fetchGen.StillCurrent(gen) && !r.restored
}

func (r *Reconciler) settle() {
	r.pending = nil
	r.state = StateSettled
}
