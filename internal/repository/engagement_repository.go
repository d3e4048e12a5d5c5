package repository

import (
	"errors"
	"traincape_lms_backend/internal/model"
	"traincape_lms_backend/internal/util"

	"gorm.io/gorm"
)

type EngagementRepository struct {
	DB *gorm.DB
}

func NewEngagementRepository(db *gorm.DB) *EngagementRepository {
	return &EngagementRepository{DB: db}
}

func (r *EngagementRepository) CreateReview(review *model.Review) error {
	var existing model.Review
	err := r.DB.
		Where("course_id = ? AND user_id = ?", review.CourseID, review.UserID).
		First(&existing).Error
	if err == nil {
		return util.ErrAlreadyReviewed
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return r.DB.Create(review).Error
}

func (r *EngagementRepository) ListReviews(courseID string, page, limit int) ([]model.Review, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	var total int64
	query := r.DB.Model(&model.Review{}).Where("course_id = ?", courseID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var reviews []model.Review
	err := r.DB.
		Preload("User").
		Where("course_id = ?", courseID).
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&reviews).Error
	return reviews, total, err
}

func (r *EngagementRepository) CreateNote(note *model.LectureNote) error {
	return r.DB.Create(note).Error
}

func (r *EngagementRepository) ListNotes(userID uint, itemID string) ([]model.LectureNote, error) {
	var notes []model.LectureNote
	err := r.DB.
		Where("user_id = ? AND item_id = ?", userID, itemID).
		Order("timestamp_sec ASC").
		Find(&notes).Error
	return notes, err
}

func (r *EngagementRepository) DeleteNote(noteID string, userID uint) error {
	result := r.DB.
		Where("id = ? AND user_id = ?", noteID, userID).
		Delete(&model.LectureNote{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *EngagementRepository) CreateQuestion(question *model.LectureQuestion) error {
	return r.DB.Create(question).Error
}

func (r *EngagementRepository) ListQuestions(itemID string) ([]model.LectureQuestion, error) {
	var questions []model.LectureQuestion
	err := r.DB.
		Preload("User").
		Preload("Answers").
		Preload("Answers.User").
		Where("item_id = ?", itemID).
		Order("created_at DESC").
		Find(&questions).Error
	return questions, err
}

func (r *EngagementRepository) FindQuestion(id string) (*model.LectureQuestion, error) {
	var question model.LectureQuestion
	err := r.DB.First(&question, "id = ?", id).Error
	return &question, err
}

func (r *EngagementRepository) CreateAnswer(answer *model.LectureAnswer) error {
	return r.DB.Create(answer).Error
}
