package repository

import (
	"context"
	"errors"
	"traincape_lms_backend/internal/model"
	"traincape_lms_backend/internal/util"

	"gorm.io/gorm"
)

type CourseRepository struct {
	DB *gorm.DB
}

func NewCourseRepository(db *gorm.DB) *CourseRepository {
	return &CourseRepository{DB: db}
}

func (r *CourseRepository) Create(ctx context.Context, course *model.Course) error {
	return r.DB.WithContext(ctx).Create(course).Error
}

func (r *CourseRepository) FindByID(id string) (*model.Course, error) {
	var course model.Course
	err := r.DB.First(&course, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrCourseNotFound
	}
	return &course, err
}

// FindWithCurriculum 加载课程及完整大纲，所有层级按position排序
func (r *CourseRepository) FindWithCurriculum(ctx context.Context, id string) (*model.Course, error) {
	var course model.Course
	err := r.DB.WithContext(ctx).
		Preload("Sections", func(db *gorm.DB) *gorm.DB {
			return db.Order("course_sections.position ASC")
		}).
		Preload("Sections.Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("course_items.position ASC")
		}).
		Preload("Sections.Items.Documents", func(db *gorm.DB) *gorm.DB {
			return db.Order("course_documents.position ASC")
		}).
		Preload("Sections.Items.Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("course_questions.position ASC")
		}).
		Preload("Sections.Items.Questions.Answers", func(db *gorm.DB) *gorm.DB {
			return db.Order("course_answers.position ASC")
		}).
		First(&course, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrCourseNotFound
	}
	return &course, err
}

// UpdateMetadata 只更新给定字段，不触碰大纲
func (r *CourseRepository) UpdateMetadata(ctx context.Context, id string, updates map[string]interface{}) error {
	return r.DB.WithContext(ctx).
		Model(&model.Course{}).
		Where("id = ?", id).
		Updates(updates).
		Error
}

// ReplaceCurriculum 整体替换课程大纲：删除旧树后重建
func (r *CourseRepository) ReplaceCurriculum(ctx context.Context, courseID string, sections []model.CourseSection) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var oldSections []model.CourseSection
		if err := tx.Where("course_id = ?", courseID).Find(&oldSections).Error; err != nil {
			return err
		}

		if len(oldSections) > 0 {
			sectionIDs := make([]string, 0, len(oldSections))
			for _, s := range oldSections {
				sectionIDs = append(sectionIDs, s.ID)
			}

			var oldItems []model.CourseItem
			if err := tx.Where("section_id IN ?", sectionIDs).Find(&oldItems).Error; err != nil {
				return err
			}
			if len(oldItems) > 0 {
				itemIDs := make([]string, 0, len(oldItems))
				for _, it := range oldItems {
					itemIDs = append(itemIDs, it.ID)
				}

				var oldQuestions []model.CourseQuestion
				if err := tx.Where("item_id IN ?", itemIDs).Find(&oldQuestions).Error; err != nil {
					return err
				}
				if len(oldQuestions) > 0 {
					questionIDs := make([]string, 0, len(oldQuestions))
					for _, q := range oldQuestions {
						questionIDs = append(questionIDs, q.ID)
					}
					if err := tx.Where("question_id IN ?", questionIDs).Delete(&model.CourseAnswer{}).Error; err != nil {
						return err
					}
					if err := tx.Where("item_id IN ?", itemIDs).Delete(&model.CourseQuestion{}).Error; err != nil {
						return err
					}
				}
				if err := tx.Where("item_id IN ?", itemIDs).Delete(&model.CourseDocument{}).Error; err != nil {
					return err
				}
				if err := tx.Where("section_id IN ?", sectionIDs).Delete(&model.CourseItem{}).Error; err != nil {
					return err
				}
			}
			if err := tx.Where("course_id = ?", courseID).Delete(&model.CourseSection{}).Error; err != nil {
				return err
			}
		}

		for i := range sections {
			sections[i].CourseID = courseID
			if err := tx.Create(&sections[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

type CourseFilter struct {
	Search   string
	Category string
	Level    string
	Page     int
	Limit    int
}

// ListPublished 目录查询，支持关键字/分类/难度过滤
func (r *CourseRepository) ListPublished(filter CourseFilter) ([]model.Course, int64, error) {
	query := r.DB.Model(&model.Course{}).Where("status = ?", model.CoursePublished)

	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("title LIKE ? OR subtitle LIKE ?", like, like)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.Level != "" {
		query = query.Where("level = ?", filter.Level)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 100 {
		filter.Limit = 20
	}

	var courses []model.Course
	err := query.
		Order("created_at DESC").
		Offset((filter.Page - 1) * filter.Limit).
		Limit(filter.Limit).
		Find(&courses).Error
	return courses, total, err
}

func (r *CourseRepository) ListByInstructor(instructorID uint) ([]model.Course, error) {
	var courses []model.Course
	err := r.DB.
		Where("instructor_id = ?", instructorID).
		Order("updated_at DESC").
		Find(&courses).Error
	return courses, err
}

func (r *CourseRepository) UpdateStatus(id string, status model.CourseStatus) error {
	return r.DB.Model(&model.Course{}).Where("id = ?", id).Update("status", status).Error
}

func (r *CourseRepository) IncrementEnrollment(id string) error {
	return r.DB.Model(&model.Course{}).
		Where("id = ?", id).
		Update("enrollment_count", gorm.Expr("enrollment_count + 1")).
		Error
}

// CountItems 课程全部小节数量，用于进度百分比分母
func (r *CourseRepository) CountItems(courseID string) (int64, error) {
	var count int64
	err := r.DB.Model(&model.CourseItem{}).
		Joins("JOIN course_sections ON course_sections.id = course_items.section_id").
		Where("course_sections.course_id = ?", courseID).
		Count(&count).Error
	return count, err
}

// UpdateRating 用评价表重算均分后写回课程
func (r *CourseRepository) UpdateRating(courseID string) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		var stats struct {
			Avg   float64
			Count int64
		}
		err := tx.Model(&model.Review{}).
			Where("course_id = ?", courseID).
			Select("COALESCE(AVG(rating),0) AS avg, COUNT(*) AS count").
			Scan(&stats).Error
		if err != nil {
			return err
		}
		return tx.Model(&model.Course{}).
			Where("id = ?", courseID).
			Updates(map[string]interface{}{
				"average_rating": stats.Avg,
				"rating_count":   stats.Count,
			}).Error
	})
}
