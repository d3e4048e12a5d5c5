package draft

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"traincape_lms_backend/internal/curriculum"

	"github.com/go-redis/redis/v8"
)

// SnapshotSchemaVersion 快照结构版本，不匹配的快照按不存在处理
const SnapshotSchemaVersion = 1

// Metadata holds the editable scalar fields of a course draft. Values are
// kept as entered (price included), parsing happens at final submission.
type Metadata struct {
	Title           string `json:"title"`
	Subtitle        string `json:"subtitle"`
	Description     string `json:"description"`
	Category        string `json:"category"`
	Level           string `json:"level"`
	Price           string `json:"price"`
	DiscountPrice   string `json:"discountPrice,omitempty"`
	WelcomeMessage  string `json:"welcomeMessage"`
	CongratsMessage string `json:"congratsMessage"`
	ThumbnailURL    string `json:"thumbnailUrl,omitempty"`
}

// Snapshot is a point-in-time serializable copy of a course draft.
// Pending local file references carry a `json:"-"` tag on the curriculum
// types, so a snapshot never contains unsent binary references.
type Snapshot struct {
	SchemaVersion int                  `json:"schemaVersion"`
	CourseID      string               `json:"courseId"`
	Metadata      Metadata             `json:"metadata"`
	Curriculum    []curriculum.Section `json:"curriculum"`
	SavedAt       time.Time            `json:"savedAt"`
}

// SnapshotStore is the injected durable store for draft snapshots.
// Get returns (nil, nil) when no usable snapshot exists.
type SnapshotStore interface {
	Get(ctx context.Context, courseID string) (*Snapshot, error)
	Put(ctx context.Context, snap *Snapshot) error
	Delete(ctx context.Context, courseID string) error
}

// RedisSnapshotStore keeps snapshots in Redis under course_draft_{courseId}.
type RedisSnapshotStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisSnapshotStore 快照保留时间取过期窗口的两倍，过期判定仍由 Reconciler 做
func NewRedisSnapshotStore(rdb *redis.Client, maxAge time.Duration) *RedisSnapshotStore {
	return &RedisSnapshotStore{rdb: rdb, ttl: maxAge * 2}
}

func snapshotKey(courseID string) string {
	return fmt.Sprintf("course_draft_%s", courseID)
}

func (s *RedisSnapshotStore) Get(ctx context.Context, courseID string) (*Snapshot, error) {
	raw, err := s.rdb.Get(ctx, snapshotKey(courseID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		// 坏数据按不存在处理，顺手清掉
		s.rdb.Del(ctx, snapshotKey(courseID))
		return nil, nil
	}
	if snap.SchemaVersion != SnapshotSchemaVersion {
		s.rdb.Del(ctx, snapshotKey(courseID))
		return nil, nil
	}
	return &snap, nil
}

func (s *RedisSnapshotStore) Put(ctx context.Context, snap *Snapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, snapshotKey(snap.CourseID), raw, s.ttl).Err()
}

func (s *RedisSnapshotStore) Delete(ctx context.Context, courseID string) error {
	return s.rdb.Del(ctx, snapshotKey(courseID)).Err()
}
