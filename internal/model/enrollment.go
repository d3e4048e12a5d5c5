package model

import "time"

// Enrollment 选课记录；结算/优惠券计算由外部收银台完成
type Enrollment struct {
	UUIDBase
	CourseID   string    `gorm:"uniqueIndex:idx_enroll_once;type:varchar(36);not null" json:"courseId"`
	UserID     uint      `gorm:"uniqueIndex:idx_enroll_once;type:bigint unsigned;not null" json:"userId"`
	Course     Course    `gorm:"foreignKey:CourseID" json:"course"`
	EnrolledAt time.Time `gorm:"autoCreateTime" json:"enrolledAt"`
}

func (Enrollment) TableName() string {
	return "enrollments"
}

// LectureProgress 学员在单个小节上的完成状态
type LectureProgress struct {
	BaseModel
	ItemID      string     `gorm:"uniqueIndex:idx_progress_once;type:varchar(36);not null" json:"itemId"`
	UserID      uint       `gorm:"uniqueIndex:idx_progress_once;type:bigint unsigned;not null" json:"userId"`
	CourseID    string     `gorm:"index;type:varchar(36);not null" json:"courseId"`
	Completed   bool       `gorm:"default:false" json:"completed"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

func (LectureProgress) TableName() string {
	return "lecture_progress"
}
