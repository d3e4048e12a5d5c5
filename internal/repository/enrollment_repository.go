package repository

import (
	"errors"
	"time"
	"traincape_lms_backend/internal/model"

	"gorm.io/gorm"
)

type EnrollmentRepository struct {
	DB *gorm.DB
}

func NewEnrollmentRepository(db *gorm.DB) *EnrollmentRepository {
	return &EnrollmentRepository{DB: db}
}

func (r *EnrollmentRepository) Create(enrollment *model.Enrollment) error {
	return r.DB.Create(enrollment).Error
}

func (r *EnrollmentRepository) FindByUserAndCourse(userID uint, courseID string) (*model.Enrollment, error) {
	var enrollment model.Enrollment
	err := r.DB.
		Where("user_id = ? AND course_id = ?", userID, courseID).
		First(&enrollment).Error
	return &enrollment, err
}

func (r *EnrollmentRepository) Exists(userID uint, courseID string) (bool, error) {
	_, err := r.FindByUserAndCourse(userID, courseID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *EnrollmentRepository) ListByUser(userID uint) ([]model.Enrollment, error) {
	var enrollments []model.Enrollment
	err := r.DB.
		Preload("Course").
		Preload("Course.Instructor").
		Where("user_id = ?", userID).
		Order("enrolled_at DESC").
		Find(&enrollments).Error
	return enrollments, err
}

func (r *EnrollmentRepository) CountByCourse(courseID string) (int64, error) {
	var count int64
	err := r.DB.Model(&model.Enrollment{}).
		Where("course_id = ?", courseID).
		Count(&count).Error
	return count, err
}

// MarkItemCompleted 学习进度打点，重复打点保持幂等
func (r *EnrollmentRepository) MarkItemCompleted(userID uint, courseID, itemID string) error {
	now := time.Now()
	var progress model.LectureProgress
	err := r.DB.
		Where("user_id = ? AND item_id = ?", userID, itemID).
		First(&progress).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		progress = model.LectureProgress{
			ItemID:      itemID,
			UserID:      userID,
			CourseID:    courseID,
			Completed:   true,
			CompletedAt: &now,
		}
		return r.DB.Create(&progress).Error
	}
	if err != nil {
		return err
	}
	if progress.Completed {
		return nil
	}
	return r.DB.Model(&progress).
		Updates(map[string]interface{}{
			"completed":    true,
			"completed_at": now,
		}).Error
}

func (r *EnrollmentRepository) ListProgress(userID uint, courseID string) ([]model.LectureProgress, error) {
	var progress []model.LectureProgress
	err := r.DB.
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Find(&progress).Error
	return progress, err
}

func (r *EnrollmentRepository) CountCompleted(userID uint, courseID string) (int64, error) {
	var count int64
	err := r.DB.Model(&model.LectureProgress{}).
		Where("user_id = ? AND course_id = ? AND completed = ?", userID, courseID, true).
		Count(&count).Error
	return count, err
}
