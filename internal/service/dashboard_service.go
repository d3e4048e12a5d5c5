package service

import (
	"traincape_lms_backend/internal/model"
	"traincape_lms_backend/internal/repository"
)

// DashboardService 讲师工作台的汇总数据
type DashboardService struct {
	CourseRepo     *repository.CourseRepository
	EnrollmentRepo *repository.EnrollmentRepository
	MessageRepo    *repository.MessageRepository
}

func NewDashboardService(courseRepo *repository.CourseRepository, enrollmentRepo *repository.EnrollmentRepository, messageRepo *repository.MessageRepository) *DashboardService {
	return &DashboardService{
		CourseRepo:     courseRepo,
		EnrollmentRepo: enrollmentRepo,
		MessageRepo:    messageRepo,
	}
}

type CourseStats struct {
	Course      model.Course `json:"course"`
	Enrollments int64        `json:"enrollments"`
}

type InstructorDashboard struct {
	Courses          []CourseStats `json:"courses"`
	TotalEnrollments int64         `json:"totalEnrollments"`
	UnreadMessages   int64         `json:"unreadMessages"`
}

func (s *DashboardService) Instructor(instructorID uint) (*InstructorDashboard, error) {
	courses, err := s.CourseRepo.ListByInstructor(instructorID)
	if err != nil {
		return nil, err
	}

	dashboard := &InstructorDashboard{
		Courses: make([]CourseStats, 0, len(courses)),
	}
	for _, course := range courses {
		count, err := s.EnrollmentRepo.CountByCourse(course.ID)
		if err != nil {
			return nil, err
		}
		dashboard.Courses = append(dashboard.Courses, CourseStats{
			Course:      course,
			Enrollments: count,
		})
		dashboard.TotalEnrollments += count
	}

	convs, err := s.MessageRepo.ListConversations(instructorID)
	if err != nil {
		return nil, err
	}
	for _, conv := range convs {
		unread, err := s.MessageRepo.CountUnread(conv.ID, instructorID)
		if err != nil {
			return nil, err
		}
		dashboard.UnreadMessages += unread
	}
	return dashboard, nil
}
