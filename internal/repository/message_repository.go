package repository

import (
	"errors"
	"time"
	"traincape_lms_backend/internal/model"
	"traincape_lms_backend/internal/util"

	"gorm.io/gorm"
)

type MessageRepository struct {
	DB *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{DB: db}
}

// FindOrCreateConversation 同一学员+讲师+课程只保留一个会话
func (r *MessageRepository) FindOrCreateConversation(courseID string, studentID, instructorID uint) (*model.Conversation, error) {
	var conv model.Conversation
	err := r.DB.
		Where("student_id = ? AND instructor_id = ? AND course_id = ?", studentID, instructorID, courseID).
		First(&conv).Error
	if err == nil {
		return &conv, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	conv = model.Conversation{
		CourseID:     courseID,
		StudentID:    studentID,
		InstructorID: instructorID,
	}
	if err := r.DB.Create(&conv).Error; err != nil {
		return nil, err
	}
	return &conv, nil
}

func (r *MessageRepository) FindConversation(id string) (*model.Conversation, error) {
	var conv model.Conversation
	err := r.DB.
		Preload("Student").
		Preload("Instructor").
		First(&conv, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrConversationNotFound
	}
	return &conv, err
}

// ListConversations 按最近消息时间倒序返回用户参与的全部会话
func (r *MessageRepository) ListConversations(userID uint) ([]model.Conversation, error) {
	var convs []model.Conversation
	err := r.DB.
		Preload("Student").
		Preload("Instructor").
		Where("student_id = ? OR instructor_id = ?", userID, userID).
		Order("last_message_at DESC").
		Find(&convs).Error
	return convs, err
}

// CreateMessage 在事务内分配会话内递增的SeqID
func (r *MessageRepository) CreateMessage(conversationID string, senderID uint, body string) (*model.Message, error) {
	msg := &model.Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		Body:           body,
	}

	err := r.DB.Transaction(func(tx *gorm.DB) error {
		var maxSeq uint64
		err := tx.Model(&model.Message{}).
			Where("conversation_id = ?", conversationID).
			Select("COALESCE(MAX(seq_id), 0)").
			Scan(&maxSeq).Error
		if err != nil {
			return err
		}

		msg.SeqID = maxSeq + 1
		if err := tx.Create(msg).Error; err != nil {
			return err
		}

		now := time.Now()
		return tx.Model(&model.Conversation{}).
			Where("id = ?", conversationID).
			Update("last_message_at", now).
			Error
	})
	if err != nil {
		return nil, err
	}
	return msg, nil
}

// ListMessagesAfter 增量拉取：只返回SeqID大于afterSeq的消息
func (r *MessageRepository) ListMessagesAfter(conversationID string, afterSeq uint64, limit int) ([]model.Message, error) {
	if limit < 1 || limit > 200 {
		limit = 100
	}
	var msgs []model.Message
	err := r.DB.
		Preload("Sender").
		Where("conversation_id = ? AND seq_id > ?", conversationID, afterSeq).
		Order("seq_id ASC").
		Limit(limit).
		Find(&msgs).Error
	return msgs, err
}

// MarkRead 把对方发来的未读消息标记为已读
func (r *MessageRepository) MarkRead(conversationID string, readerID uint) error {
	return r.DB.Model(&model.Message{}).
		Where("conversation_id = ? AND sender_id != ? AND read_at IS NULL", conversationID, readerID).
		Update("read_at", time.Now()).
		Error
}

func (r *MessageRepository) CountUnread(conversationID string, readerID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.Message{}).
		Where("conversation_id = ? AND sender_id != ? AND read_at IS NULL", conversationID, readerID).
		Count(&count).Error
	return count, err
}
