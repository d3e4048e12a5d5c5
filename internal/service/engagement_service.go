package service

import (
	"traincape_lms_backend/internal/model"
	"traincape_lms_backend/internal/repository"
	"traincape_lms_backend/internal/util"
)

// EngagementService 课程评价、视频笔记与课内问答
type EngagementService struct {
	EngagementRepo *repository.EngagementRepository
	EnrollmentRepo *repository.EnrollmentRepository
	CourseRepo     *repository.CourseRepository
}

func NewEngagementService(engagementRepo *repository.EngagementRepository, enrollmentRepo *repository.EnrollmentRepository, courseRepo *repository.CourseRepository) *EngagementService {
	return &EngagementService{
		EngagementRepo: engagementRepo,
		EnrollmentRepo: enrollmentRepo,
		CourseRepo:     courseRepo,
	}
}

// AddReview 只有已选课学员可评价，评价后重算课程均分
func (s *EngagementService) AddReview(userID uint, courseID string, rating int, body string) (*model.Review, error) {
	if rating < 1 || rating > 5 {
		return nil, util.ErrInvalidRating
	}
	enrolled, err := s.EnrollmentRepo.Exists(userID, courseID)
	if err != nil {
		return nil, err
	}
	if !enrolled {
		return nil, util.ErrNotEnrolled
	}

	review := &model.Review{
		CourseID: courseID,
		UserID:   userID,
		Rating:   rating,
		Body:     body,
	}
	if err := s.EngagementRepo.CreateReview(review); err != nil {
		return nil, err
	}
	if err := s.CourseRepo.UpdateRating(courseID); err != nil {
		return nil, err
	}
	return review, nil
}

func (s *EngagementService) ListReviews(courseID string, page, limit int) ([]model.Review, int64, error) {
	return s.EngagementRepo.ListReviews(courseID, page, limit)
}

func (s *EngagementService) AddNote(userID uint, itemID, body string, timestampSec float64) (*model.LectureNote, error) {
	note := &model.LectureNote{
		ItemID:       itemID,
		UserID:       userID,
		Body:         body,
		TimestampSec: timestampSec,
	}
	if err := s.EngagementRepo.CreateNote(note); err != nil {
		return nil, err
	}
	return note, nil
}

func (s *EngagementService) ListNotes(userID uint, itemID string) ([]model.LectureNote, error) {
	return s.EngagementRepo.ListNotes(userID, itemID)
}

func (s *EngagementService) DeleteNote(noteID string, userID uint) error {
	return s.EngagementRepo.DeleteNote(noteID, userID)
}

func (s *EngagementService) AskQuestion(userID uint, itemID, title, body string) (*model.LectureQuestion, error) {
	question := &model.LectureQuestion{
		ItemID: itemID,
		UserID: userID,
		Title:  title,
		Body:   body,
	}
	if err := s.EngagementRepo.CreateQuestion(question); err != nil {
		return nil, err
	}
	return question, nil
}

func (s *EngagementService) ListQuestions(itemID string) ([]model.LectureQuestion, error) {
	return s.EngagementRepo.ListQuestions(itemID)
}

func (s *EngagementService) AnswerQuestion(userID uint, questionID, body string) (*model.LectureAnswer, error) {
	if _, err := s.EngagementRepo.FindQuestion(questionID); err != nil {
		return nil, err
	}
	answer := &model.LectureAnswer{
		QuestionID: questionID,
		UserID:     userID,
		Body:       body,
	}
	if err := s.EngagementRepo.CreateAnswer(answer); err != nil {
		return nil, err
	}
	return answer, nil
}
