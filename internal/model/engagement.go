package model

// Review 课程评价，每个学员每门课一条
type Review struct {
	UUIDBase
	CourseID string `gorm:"uniqueIndex:idx_review_once;type:varchar(36);not null" json:"courseId"`
	UserID   uint   `gorm:"uniqueIndex:idx_review_once;type:bigint unsigned;not null" json:"userId"`
	User     User   `gorm:"foreignKey:UserID" json:"user"`
	Rating   int    `gorm:"not null" json:"rating"` // 1-5
	Body     string `gorm:"type:text" json:"body"`
}

func (Review) TableName() string {
	return "reviews"
}

// LectureNote 学员在视频课某个时间点的私人笔记
type LectureNote struct {
	UUIDBase
	ItemID       string  `gorm:"index;type:varchar(36);not null" json:"itemId"`
	UserID       uint    `gorm:"index;type:bigint unsigned;not null" json:"userId"`
	Body         string  `gorm:"type:text" json:"body"`
	TimestampSec float64 `gorm:"default:0" json:"timestampSec"`
}

func (LectureNote) TableName() string {
	return "lecture_notes"
}

// LectureQuestion 视频课下的公开提问
type LectureQuestion struct {
	UUIDBase
	ItemID  string          `gorm:"index;type:varchar(36);not null" json:"itemId"`
	UserID  uint            `gorm:"index;type:bigint unsigned;not null" json:"userId"`
	User    User            `gorm:"foreignKey:UserID" json:"user"`
	Title   string          `gorm:"size:255" json:"title"`
	Body    string          `gorm:"type:text" json:"body"`
	Answers []LectureAnswer `gorm:"foreignKey:QuestionID" json:"answers,omitempty"`
}

func (LectureQuestion) TableName() string {
	return "lecture_questions"
}

type LectureAnswer struct {
	UUIDBase
	QuestionID string `gorm:"index;type:varchar(36);not null" json:"questionId"`
	UserID     uint   `gorm:"index;type:bigint unsigned;not null" json:"userId"`
	User       User   `gorm:"foreignKey:UserID" json:"user"`
	Body       string `gorm:"type:text" json:"body"`
}

func (LectureAnswer) TableName() string {
	return "lecture_answers"
}
