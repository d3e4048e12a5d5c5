package model

import "time"

// Conversation 学员与讲师之间的一对一会话，可挂在某门课程下
type Conversation struct {
	UUIDBase
	CourseID      string     `gorm:"index;type:varchar(36)" json:"courseId,omitempty"`
	StudentID     uint       `gorm:"index:idx_conv_pair;type:bigint unsigned;not null" json:"studentId"`
	InstructorID  uint       `gorm:"index:idx_conv_pair;type:bigint unsigned;not null" json:"instructorId"`
	Student       User       `gorm:"foreignKey:StudentID" json:"student"`
	Instructor    User       `gorm:"foreignKey:InstructorID" json:"instructor"`
	LastMessageAt *time.Time `gorm:"index" json:"lastMessageAt,omitempty"`
	Messages      []Message  `gorm:"foreignKey:ConversationID" json:"messages,omitempty"`
}

func (Conversation) TableName() string {
	return "conversations"
}

// Message 消息记录，SeqID 保证会话内有序增量拉取
type Message struct {
	UUIDBase
	ConversationID string    `gorm:"index;index:idx_conv_seq;type:varchar(36);not null" json:"conversationId"`
	SeqID          uint64    `gorm:"index:idx_conv_seq" json:"seqId"`
	SenderID       uint      `gorm:"index;type:bigint unsigned" json:"senderId"`
	Sender         User      `gorm:"foreignKey:SenderID" json:"sender"`
	Body           string    `gorm:"type:text" json:"body"`
	ReadAt         *time.Time `json:"readAt,omitempty"`
}

func (Message) TableName() string {
	return "messages"
}
