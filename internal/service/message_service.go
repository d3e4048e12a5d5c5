package service

import (
	"context"
	"sync"
	"time"

	"traincape_lms_backend/internal/config"
	"traincape_lms_backend/internal/model"
	"traincape_lms_backend/internal/repository"
	"traincape_lms_backend/internal/util"
	"traincape_lms_backend/pkg/liveness"

	"go.uber.org/zap"
)

// MessageStore 私信服务依赖的持久层能力
type MessageStore interface {
	FindOrCreateConversation(courseID string, studentID, instructorID uint) (*model.Conversation, error)
	FindConversation(id string) (*model.Conversation, error)
	ListConversations(userID uint) ([]model.Conversation, error)
	CreateMessage(conversationID string, senderID uint, body string) (*model.Message, error)
	ListMessagesAfter(conversationID string, afterSeq uint64, limit int) ([]model.Message, error)
	MarkRead(conversationID string, readerID uint) error
	CountUnread(conversationID string, readerID uint) (int64, error)
}

// MessageService 学员与讲师的站内私信
type MessageService struct {
	MessageRepo MessageStore
	CourseRepo  *repository.CourseRepository
	cfg         config.MessagingConfig
	log         *zap.Logger

	mu    sync.Mutex
	polls map[uint]*liveness.Counter // 每个用户同一时刻只保留一个活跃轮询
}

func NewMessageService(cfg config.MessagingConfig, messageRepo MessageStore, courseRepo *repository.CourseRepository, log *zap.Logger) *MessageService {
	return &MessageService{
		MessageRepo: messageRepo,
		CourseRepo:  courseRepo,
		cfg:         cfg,
		log:         log,
		polls:       map[uint]*liveness.Counter{},
	}
}

// OpenConversation 学员对某门课发起（或复用）与讲师的会话
func (s *MessageService) OpenConversation(studentID uint, courseID string) (*model.Conversation, error) {
	course, err := s.CourseRepo.FindByID(courseID)
	if err != nil {
		return nil, err
	}
	return s.MessageRepo.FindOrCreateConversation(courseID, studentID, course.InstructorID)
}

func (s *MessageService) ListConversations(userID uint) ([]model.Conversation, error) {
	return s.MessageRepo.ListConversations(userID)
}

func (s *MessageService) memberConversation(userID uint, conversationID string) (*model.Conversation, error) {
	conv, err := s.MessageRepo.FindConversation(conversationID)
	if err != nil {
		return nil, err
	}
	if conv.StudentID != userID && conv.InstructorID != userID {
		return nil, util.ErrNotConversationPeer
	}
	return conv, nil
}

func (s *MessageService) Send(userID uint, conversationID, body string) (*model.Message, error) {
	if _, err := s.memberConversation(userID, conversationID); err != nil {
		return nil, err
	}
	return s.MessageRepo.CreateMessage(conversationID, userID, body)
}

// Messages 增量拉取会话消息并把对方消息置为已读
func (s *MessageService) Messages(userID uint, conversationID string, afterSeq uint64, limit int) ([]model.Message, error) {
	if _, err := s.memberConversation(userID, conversationID); err != nil {
		return nil, err
	}
	msgs, err := s.MessageRepo.ListMessagesAfter(conversationID, afterSeq, limit)
	if err != nil {
		return nil, err
	}
	if err := s.MessageRepo.MarkRead(conversationID, userID); err != nil {
		s.log.Warn("failed to mark messages read",
			zap.String("conversationId", conversationID), zap.Error(err))
	}
	return msgs, nil
}

func (s *MessageService) pollCounter(userID uint) *liveness.Counter {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.polls[userID]
	if !ok {
		c = &liveness.Counter{}
		s.polls[userID] = c
	}
	return c
}

// Poll 长轮询会话新消息。同一用户发起新的轮询（比如切换会话）会让
// 旧轮询立即空手返回；到达超时也空手返回，由客户端重新发起。
func (s *MessageService) Poll(ctx context.Context, userID uint, conversationID string, afterSeq uint64) ([]model.Message, error) {
	if _, err := s.memberConversation(userID, conversationID); err != nil {
		return nil, err
	}

	// Invalidate 返回的代数就是本次轮询自己的：并发的两次轮询各拿各的，
	// 旧的那个必然发现代数已前进而退出
	counter := s.pollCounter(userID)
	gen := counter.Invalidate()

	deadline := time.NewTimer(s.cfg.PollTimeout)
	defer deadline.Stop()
	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		msgs, err := s.MessageRepo.ListMessagesAfter(conversationID, afterSeq, 0)
		if err != nil {
			return nil, err
		}
		if len(msgs) > 0 {
			return msgs, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline.C:
			return []model.Message{}, nil
		case <-ticker.C:
		}

		if !counter.StillCurrent(gen) {
			// 用户已切到别的会话
			return []model.Message{}, nil
		}
	}
}

// Unread 返回会话里对方发来的未读条数
func (s *MessageService) Unread(userID uint, conversationID string) (int64, error) {
	if _, err := s.memberConversation(userID, conversationID); err != nil {
		return 0, err
	}
	return s.MessageRepo.CountUnread(conversationID, userID)
}
