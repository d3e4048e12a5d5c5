package model

import (
	"encoding/json"
	"time"
)

type CourseStatus string

const (
	CoursePending   CourseStatus = "pending"   // 创建了标识但尚未完整提交
	CourseSubmitted CourseStatus = "submitted" // 已完整提交，待审核/发布
	CoursePublished CourseStatus = "published"
)

// swagger:model Course
type Course struct {
	UUIDBase
	InstructorID    uint         `gorm:"index;type:bigint unsigned" json:"instructorId"`
	Instructor      User         `gorm:"foreignKey:InstructorID" json:"instructor"`
	Title           string       `gorm:"size:255" json:"title"`
	Subtitle        string       `gorm:"size:255" json:"subtitle"`
	Description     string       `gorm:"type:text" json:"description"`
	Category        string       `gorm:"size:100;index" json:"category"`
	Level           string       `gorm:"size:50" json:"level"`
	Price           float64      `gorm:"default:0" json:"price"`
	DiscountPrice   *float64     `json:"discountPrice,omitempty"`
	WelcomeMessage  string       `gorm:"type:text" json:"welcomeMessage"`
	CongratsMessage string       `gorm:"type:text" json:"congratsMessage"`
	ThumbnailURL    string       `gorm:"size:255" json:"thumbnailUrl"`
	Status          CourseStatus `gorm:"type:enum('pending','submitted','published');default:'pending';index" json:"status"`
	PublishedAt     *time.Time   `json:"publishedAt,omitempty"`
	AverageRating   float64      `gorm:"default:0" json:"averageRating"`
	RatingCount     int          `gorm:"default:0" json:"ratingCount"`
	EnrollmentCount int          `gorm:"default:0" json:"enrollmentCount"`
	Sections        []CourseSection `gorm:"foreignKey:CourseID" json:"sections,omitempty"`
}

func (Course) TableName() string {
	return "courses"
}

// CourseSection 课程章节，Position 即作者排列顺序
type CourseSection struct {
	UUIDBase
	CourseID  string       `gorm:"index;type:varchar(36);not null" json:"courseId"`
	Title     string       `gorm:"size:255" json:"title"`
	Published bool         `gorm:"default:false" json:"published"`
	Position  int          `gorm:"default:0" json:"position"`
	Items     []CourseItem `gorm:"foreignKey:SectionID" json:"items,omitempty"`
}

func (CourseSection) TableName() string {
	return "course_sections"
}

// CourseItem 章节内的一个小节：视频课或测验
type CourseItem struct {
	UUIDBase
	SectionID string  `gorm:"index;type:varchar(36);not null" json:"sectionId"`
	Kind      string  `gorm:"type:enum('lecture','quiz');default:'lecture'" json:"kind"`
	Title     string  `gorm:"size:255" json:"title"`
	Position  int     `gorm:"default:0" json:"position"`

	// lecture
	VideoID       string           `gorm:"size:36" json:"videoId,omitempty"`
	VideoURL      string           `gorm:"size:255" json:"videoUrl,omitempty"`
	VideoDuration float64          `gorm:"default:0" json:"videoDuration,omitempty"` // 秒
	Documents     []CourseDocument `gorm:"foreignKey:ItemID" json:"documents,omitempty"`

	// quiz
	QuizID    string           `gorm:"size:36" json:"quizId,omitempty"`
	Questions []CourseQuestion `gorm:"foreignKey:ItemID" json:"questions,omitempty"`
}

func (CourseItem) TableName() string {
	return "course_items"
}

type CourseDocument struct {
	UUIDBase
	ItemID   string `gorm:"index;type:varchar(36);not null" json:"itemId"`
	FileURL  string `gorm:"size:255" json:"fileUrl"`
	FileName string `gorm:"size:255" json:"fileName"`
	Position int    `gorm:"default:0" json:"position"`
}

func (CourseDocument) TableName() string {
	return "course_documents"
}

type CourseQuestion struct {
	UUIDBase
	ItemID     string          `gorm:"index;type:varchar(36);not null" json:"itemId"`
	Text       string          `gorm:"type:text" json:"text"`
	Type       string          `gorm:"size:20" json:"type"` // mcq, multi, tf
	Difficulty string          `gorm:"size:20" json:"difficulty"`
	Hint       string          `gorm:"type:text" json:"hint"`
	Tags       json.RawMessage `gorm:"type:json" json:"tags,omitempty"`
	MediaName  string          `gorm:"size:255" json:"mediaName,omitempty"`
	Position   int             `gorm:"default:0" json:"position"`
	Answers    []CourseAnswer  `gorm:"foreignKey:QuestionID" json:"answers,omitempty"`
}

func (CourseQuestion) TableName() string {
	return "course_questions"
}

type CourseAnswer struct {
	UUIDBase
	QuestionID  string `gorm:"index;type:varchar(36);not null" json:"questionId"`
	Text        string `gorm:"type:text" json:"text"`
	Correct     bool   `gorm:"default:false" json:"correct"`
	Explanation string `gorm:"type:text" json:"explanation"`
	Position    int    `gorm:"default:0" json:"position"`
}

func (CourseAnswer) TableName() string {
	return "course_answers"
}
