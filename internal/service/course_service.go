package service

import (
	"context"

	"traincape_lms_backend/internal/model"
	"traincape_lms_backend/internal/repository"
	"traincape_lms_backend/internal/util"
)

// CourseService 面向学员的课程目录
type CourseService struct {
	CourseRepo     *repository.CourseRepository
	EnrollmentRepo *repository.EnrollmentRepository
}

func NewCourseService(courseRepo *repository.CourseRepository, enrollmentRepo *repository.EnrollmentRepository) *CourseService {
	return &CourseService{CourseRepo: courseRepo, EnrollmentRepo: enrollmentRepo}
}

func (s *CourseService) Catalog(filter repository.CourseFilter) ([]model.Course, int64, error) {
	return s.CourseRepo.ListPublished(filter)
}

// Detail 课程详情页。未选课用户能看到大纲结构，但测验答案的
// 正确标记与解析只对已选课学员可见。
func (s *CourseService) Detail(ctx context.Context, courseID string, userID uint) (*model.Course, error) {
	course, err := s.CourseRepo.FindWithCurriculum(ctx, courseID)
	if err != nil {
		return nil, err
	}

	enrolled := false
	if userID != 0 {
		if userID == course.InstructorID {
			enrolled = true
		} else if ok, err := s.EnrollmentRepo.Exists(userID, courseID); err == nil {
			enrolled = ok
		}
	}
	if !enrolled {
		stripAnswerKeys(course)
	}
	return course, nil
}

func stripAnswerKeys(course *model.Course) {
	for si := range course.Sections {
		for ii := range course.Sections[si].Items {
			item := &course.Sections[si].Items[ii]
			for qi := range item.Questions {
				q := &item.Questions[qi]
				for ai := range q.Answers {
					q.Answers[ai].Correct = false
					q.Answers[ai].Explanation = ""
				}
			}
		}
	}
}

func (s *CourseService) InstructorCourses(instructorID uint) ([]model.Course, error) {
	return s.CourseRepo.ListByInstructor(instructorID)
}

// Publish 审核通过后上架；归属校验在这里做
func (s *CourseService) Publish(courseID string, instructorID uint) error {
	course, err := s.CourseRepo.FindByID(courseID)
	if err != nil {
		return err
	}
	if course.InstructorID != instructorID {
		return util.ErrNotCourseOwner
	}
	return s.CourseRepo.UpdateStatus(courseID, model.CoursePublished)
}
