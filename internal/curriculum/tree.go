package curriculum

import "github.com/google/uuid"

// ItemKind 小节类型：视频课或测验
type ItemKind string

const (
	KindLecture ItemKind = "lecture"
	KindQuiz    ItemKind = "quiz"
)

type QuestionType string

const (
	QuestionMCQ   QuestionType = "mcq"   // 单选
	QuestionMulti QuestionType = "multi" // 多选
	QuestionTF    QuestionType = "tf"    // 判断
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

const (
	DefaultSectionTitle = "New Section"
	DefaultLectureTitle = "New Lecture"
	DefaultQuizTitle    = "New Quiz"
)

// Answer is one selectable option of a quiz question.
type Answer struct {
	ID          string `json:"id"`
	Text        string `json:"text"`
	Correct     bool   `json:"correct"`
	Explanation string `json:"explanation,omitempty"`
}

// Question is a quiz question with its ordered answers.
type Question struct {
	ID         string       `json:"id"`
	Text       string       `json:"text"`
	Type       QuestionType `json:"type"`
	Difficulty Difficulty   `json:"difficulty"`
	Answers    []Answer     `json:"answers"`
	Hint       string       `json:"hint,omitempty"`
	Tags       []string     `json:"tags,omitempty"`
	MediaName  string       `json:"mediaName,omitempty"`
}

// VideoRef points at a video already known to the media store.
type VideoRef struct {
	ID       string  `json:"id"`
	URL      string  `json:"url"`
	Duration float64 `json:"duration,omitempty"` // 秒，探测失败时为0
}

// Document is a supplementary file attached to a lecture.
type Document struct {
	FileURL  string `json:"fileUrl"`
	FileName string `json:"fileName"`
}

// Item is a lecture or quiz unit inside a section.
//
// PendingVideoPath refers to a file that has not been sent to the media
// store yet; it is never serialized into a draft snapshot.
type Item struct {
	ID        string   `json:"id"`
	Kind      ItemKind `json:"kind"`
	Title     string   `json:"title"`
	Expanded  bool     `json:"expanded"`

	// lecture payload
	Video                *VideoRef  `json:"video,omitempty"`
	Documents            []Document `json:"documents,omitempty"`
	PendingVideoPath     string     `json:"-"`
	PendingVideoDuration float64    `json:"-"`

	// quiz payload
	QuizID    string     `json:"quizId,omitempty"`
	Questions []Question `json:"questions,omitempty"`
}

// Section is an ordered group of items; order is the authoring order.
type Section struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Published bool   `json:"published"`
	Items     []Item `json:"items"`
}

// NewID 生成会话内唯一且稳定的标识
func NewID() string {
	return uuid.New().String()
}
