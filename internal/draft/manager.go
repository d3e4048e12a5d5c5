package draft

import (
	"context"
	"fmt"
	"sync"
	"time"

	"traincape_lms_backend/pkg/monitoring"

	"go.uber.org/zap"
)

// Manager owns every live authoring session, keyed by instructor and course.
// A brand-new course (no id yet) occupies the instructor's single "new" slot
// until submission mints an identifier.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session

	snapshots SnapshotStore
	remote    RemoteCourse
	media     MediaStore
	opts      Options
	idle      time.Duration
	log       *zap.Logger

	stop chan struct{}
	once sync.Once
}

func NewManager(snapshots SnapshotStore, remote RemoteCourse, media MediaStore, opts Options, idle time.Duration, log *zap.Logger) *Manager {
	return &Manager{
		sessions:  map[string]*Session{},
		snapshots: snapshots,
		remote:    remote,
		media:     media,
		opts:      opts,
		idle:      idle,
		log:       log,
		stop:      make(chan struct{}),
	}
}

func sessionKey(instructorID uint, courseID string) string {
	if courseID == "" {
		courseID = "new"
	}
	return fmt.Sprintf("%d:%s", instructorID, courseID)
}

// Open returns the existing session for (instructor, course) or creates one
// and runs its reconciler.
func (m *Manager) Open(ctx context.Context, instructorID uint, courseID string) (*Session, OpenResult) {
	key := sessionKey(instructorID, courseID)

	m.mu.Lock()
	if s, ok := m.sessions[key]; ok {
		m.mu.Unlock()
		return s, s.Status()
	}
	s := NewSession(courseID, instructorID, m.snapshots, m.remote, m.media, m.opts, m.log)
	m.sessions[key] = s
	monitoring.DraftSessionsOpen.Set(float64(len(m.sessions)))
	m.mu.Unlock()

	return s, s.Open(ctx)
}

// Get returns a live session, or nil when none is open.
func (m *Manager) Get(instructorID uint, courseID string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[sessionKey(instructorID, courseID)]
}

// Rebind moves a session from the instructor's "new" slot to its minted
// course id after first submission.
func (m *Manager) Rebind(instructorID uint, courseID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	newKey := sessionKey(instructorID, "")
	s, ok := m.sessions[newKey]
	if !ok {
		return
	}
	delete(m.sessions, newKey)
	m.sessions[sessionKey(instructorID, courseID)] = s
}

// Close tears down a session, flushing a dirty draft to its snapshot.
func (m *Manager) Close(instructorID uint, courseID string) {
	key := sessionKey(instructorID, courseID)
	m.mu.Lock()
	s, ok := m.sessions[key]
	if ok {
		delete(m.sessions, key)
		monitoring.DraftSessionsOpen.Set(float64(len(m.sessions)))
	}
	m.mu.Unlock()
	if ok {
		s.Close()
	}
}

// RunJanitor sweeps idle sessions until Stop is called.
func (m *Manager) RunJanitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.sweep()
		case <-m.stop:
			return
		}
	}
}

func (m *Manager) sweep() {
	cutoff := time.Now().Add(-m.idle)

	m.mu.Lock()
	var expired []*Session
	for key, s := range m.sessions {
		if s.idleSince().Before(cutoff) {
			delete(m.sessions, key)
			expired = append(expired, s)
		}
	}
	monitoring.DraftSessionsOpen.Set(float64(len(m.sessions)))
	m.mu.Unlock()

	for _, s := range expired {
		m.log.Info("closing idle authoring session", zap.String("courseId", s.CourseID()))
		s.Close()
	}
}

// Stop halts the janitor and closes every session.
func (m *Manager) Stop() {
	m.once.Do(func() { close(m.stop) })

	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.sessions = map[string]*Session{}
	monitoring.DraftSessionsOpen.Set(0)
	m.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}
