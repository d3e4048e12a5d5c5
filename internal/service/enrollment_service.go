package service

import (
	"traincape_lms_backend/internal/model"
	"traincape_lms_backend/internal/repository"
	"traincape_lms_backend/internal/util"
)

// EnrollmentService 选课与学习进度；支付结算在外部收银台完成
type EnrollmentService struct {
	EnrollmentRepo *repository.EnrollmentRepository
	CourseRepo     *repository.CourseRepository
}

func NewEnrollmentService(enrollmentRepo *repository.EnrollmentRepository, courseRepo *repository.CourseRepository) *EnrollmentService {
	return &EnrollmentService{EnrollmentRepo: enrollmentRepo, CourseRepo: courseRepo}
}

func (s *EnrollmentService) Enroll(userID uint, courseID string) (*model.Enrollment, error) {
	course, err := s.CourseRepo.FindByID(courseID)
	if err != nil {
		return nil, err
	}
	if course.Status != model.CoursePublished {
		return nil, util.ErrCourseNotFound
	}

	exists, err := s.EnrollmentRepo.Exists(userID, courseID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, util.ErrAlreadyEnrolled
	}

	enrollment := &model.Enrollment{
		CourseID: courseID,
		UserID:   userID,
	}
	if err := s.EnrollmentRepo.Create(enrollment); err != nil {
		return nil, err
	}
	if err := s.CourseRepo.IncrementEnrollment(courseID); err != nil {
		return nil, err
	}
	return enrollment, nil
}

// EnrolledCourse 我的学习列表里的一行
type EnrolledCourse struct {
	Course         model.Course `json:"course"`
	CompletedItems int64        `json:"completedItems"`
	TotalItems     int64        `json:"totalItems"`
}

func (s *EnrollmentService) MyLearning(userID uint) ([]EnrolledCourse, error) {
	enrollments, err := s.EnrollmentRepo.ListByUser(userID)
	if err != nil {
		return nil, err
	}

	result := make([]EnrolledCourse, 0, len(enrollments))
	for _, e := range enrollments {
		completed, err := s.EnrollmentRepo.CountCompleted(userID, e.CourseID)
		if err != nil {
			return nil, err
		}
		total, err := s.CourseRepo.CountItems(e.CourseID)
		if err != nil {
			return nil, err
		}
		result = append(result, EnrolledCourse{
			Course:         e.Course,
			CompletedItems: completed,
			TotalItems:     total,
		})
	}
	return result, nil
}

func (s *EnrollmentService) CompleteItem(userID uint, courseID, itemID string) error {
	exists, err := s.EnrollmentRepo.Exists(userID, courseID)
	if err != nil {
		return err
	}
	if !exists {
		return util.ErrNotEnrolled
	}
	return s.EnrollmentRepo.MarkItemCompleted(userID, courseID, itemID)
}

func (s *EnrollmentService) Progress(userID uint, courseID string) ([]model.LectureProgress, error) {
	return s.EnrollmentRepo.ListProgress(userID, courseID)
}
