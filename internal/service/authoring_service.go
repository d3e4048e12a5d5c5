package service

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"traincape_lms_backend/internal/config"
	"traincape_lms_backend/internal/curriculum"
	"traincape_lms_backend/internal/draft"
	"traincape_lms_backend/internal/model"
	"traincape_lms_backend/internal/repository"
	"traincape_lms_backend/internal/util"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// AuthoringService 管理讲师的课程编辑会话
type AuthoringService struct {
	Manager    *draft.Manager
	CourseRepo *repository.CourseRepository
	log        *zap.Logger
}

func NewAuthoringService(cfg *config.Config, courseRepo *repository.CourseRepository, rdb *redis.Client, storage *StorageService, log *zap.Logger) *AuthoringService {
	maxAge := time.Duration(cfg.Draft.SnapshotMaxAgeDays) * 24 * time.Hour
	snapshots := draft.NewRedisSnapshotStore(rdb, maxAge)
	remote := &gormRemoteCourse{courses: courseRepo}

	opts := draft.Options{
		SnapshotMaxAge: maxAge,
		LocalDebounce:  cfg.Draft.LocalDebounce,
		RemoteDebounce: cfg.Draft.RemoteDebounce,
	}
	manager := draft.NewManager(snapshots, remote, storage, opts, cfg.Draft.SessionIdleTimeout, log)

	return &AuthoringService{
		Manager:    manager,
		CourseRepo: courseRepo,
		log:        log,
	}
}

// Open 打开（或复用）编辑会话；已有课程先做归属校验
func (s *AuthoringService) Open(ctx context.Context, instructorID uint, courseID string) (*draft.Session, draft.OpenResult, error) {
	if courseID != "" {
		course, err := s.CourseRepo.FindByID(courseID)
		if err != nil {
			return nil, draft.OpenResult{}, err
		}
		if course.InstructorID != instructorID {
			return nil, draft.OpenResult{}, util.ErrNotCourseOwner
		}
	}
	sess, res := s.Manager.Open(ctx, instructorID, courseID)
	return sess, res, nil
}

func (s *AuthoringService) Get(instructorID uint, courseID string) (*draft.Session, error) {
	sess := s.Manager.Get(instructorID, courseID)
	if sess == nil {
		return nil, util.ErrSessionNotFound
	}
	return sess, nil
}

// Submit 完整提交；新课拿到远端标识后把会话迁出new槽位
func (s *AuthoringService) Submit(ctx context.Context, instructorID uint, courseID string, thumbnail *draft.SubmitFile, files []draft.SubmitFile) (string, error) {
	sess, err := s.Get(instructorID, courseID)
	if err != nil {
		return "", err
	}

	mintedID, err := sess.Submit(ctx, thumbnail, files)
	if err != nil {
		return "", err
	}
	if courseID == "" {
		s.Manager.Rebind(instructorID, mintedID)
	}
	return mintedID, nil
}

func (s *AuthoringService) Close(instructorID uint, courseID string) {
	s.Manager.Close(instructorID, courseID)
}

// gormRemoteCourse 把草稿引擎的远端协作方接到MySQL课程库上
type gormRemoteCourse struct {
	courses *repository.CourseRepository
}

func (r *gormRemoteCourse) Create(ctx context.Context, instructorID uint) (string, error) {
	course := &model.Course{
		InstructorID: instructorID,
		Status:       model.CoursePending,
	}
	if err := r.courses.Create(ctx, course); err != nil {
		return "", err
	}
	return course.ID, nil
}

func (r *gormRemoteCourse) Fetch(ctx context.Context, courseID string) (*draft.CourseContent, error) {
	course, err := r.courses.FindWithCurriculum(ctx, courseID)
	if errors.Is(err, util.ErrCourseNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	// 只有标识、尚无内容的课程不参与草稿水合
	if course.Title == "" && len(course.Sections) == 0 {
		return nil, nil
	}
	return &draft.CourseContent{
		Metadata:   metadataFromCourse(course),
		Curriculum: sectionsFromModel(course.Sections),
	}, nil
}

func (r *gormRemoteCourse) Patch(ctx context.Context, courseID string, sections []curriculum.Section) error {
	return r.courses.ReplaceCurriculum(ctx, courseID, sectionsToModel(sections))
}

func (r *gormRemoteCourse) Replace(ctx context.Context, courseID string, meta draft.Metadata, sections []curriculum.Section) error {
	price, err := draft.ParsePrice(meta.Price)
	if err != nil {
		return err
	}

	updates := map[string]interface{}{
		"title":            meta.Title,
		"subtitle":         meta.Subtitle,
		"description":      meta.Description,
		"category":         meta.Category,
		"level":            meta.Level,
		"price":            price,
		"welcome_message":  meta.WelcomeMessage,
		"congrats_message": meta.CongratsMessage,
		"status":           model.CourseSubmitted,
	}
	if meta.ThumbnailURL != "" {
		updates["thumbnail_url"] = meta.ThumbnailURL
	}
	if meta.DiscountPrice != "" {
		if dp, err := draft.ParsePrice(meta.DiscountPrice); err == nil {
			updates["discount_price"] = dp
		}
	}

	if err := r.courses.UpdateMetadata(ctx, courseID, updates); err != nil {
		return err
	}
	return r.courses.ReplaceCurriculum(ctx, courseID, sectionsToModel(sections))
}

func metadataFromCourse(course *model.Course) draft.Metadata {
	meta := draft.Metadata{
		Title:           course.Title,
		Subtitle:        course.Subtitle,
		Description:     course.Description,
		Category:        course.Category,
		Level:           course.Level,
		WelcomeMessage:  course.WelcomeMessage,
		CongratsMessage: course.CongratsMessage,
		ThumbnailURL:    course.ThumbnailURL,
	}
	if course.Price > 0 {
		meta.Price = strconv.FormatFloat(course.Price, 'f', -1, 64)
	}
	if course.DiscountPrice != nil {
		meta.DiscountPrice = strconv.FormatFloat(*course.DiscountPrice, 'f', -1, 64)
	}
	return meta
}

func sectionsFromModel(rows []model.CourseSection) []curriculum.Section {
	sections := make([]curriculum.Section, 0, len(rows))
	for _, row := range rows {
		section := curriculum.Section{
			ID:        row.ID,
			Title:     row.Title,
			Published: row.Published,
			Items:     make([]curriculum.Item, 0, len(row.Items)),
		}
		for _, itemRow := range row.Items {
			section.Items = append(section.Items, itemFromModel(itemRow))
		}
		sections = append(sections, section)
	}
	return sections
}

func itemFromModel(row model.CourseItem) curriculum.Item {
	item := curriculum.Item{
		ID:    row.ID,
		Kind:  curriculum.ItemKind(row.Kind),
		Title: row.Title,
	}
	if row.VideoID != "" || row.VideoURL != "" {
		item.Video = &curriculum.VideoRef{ID: row.VideoID, URL: row.VideoURL, Duration: row.VideoDuration}
	}
	for _, doc := range row.Documents {
		item.Documents = append(item.Documents, curriculum.Document{
			FileURL:  doc.FileURL,
			FileName: doc.FileName,
		})
	}
	if item.Kind == curriculum.KindQuiz {
		item.QuizID = row.QuizID
		for _, q := range row.Questions {
			item.Questions = append(item.Questions, questionFromModel(q))
		}
	}
	return item
}

func questionFromModel(row model.CourseQuestion) curriculum.Question {
	q := curriculum.Question{
		ID:         row.ID,
		Text:       row.Text,
		Type:       curriculum.QuestionType(row.Type),
		Difficulty: curriculum.Difficulty(row.Difficulty),
		Hint:       row.Hint,
		MediaName:  row.MediaName,
	}
	if len(row.Tags) > 0 {
		// 坏标签数据不致命，忽略即可
		_ = json.Unmarshal(row.Tags, &q.Tags)
	}
	for _, a := range row.Answers {
		q.Answers = append(q.Answers, curriculum.Answer{
			ID:          a.ID,
			Text:        a.Text,
			Correct:     a.Correct,
			Explanation: a.Explanation,
		})
	}
	return q
}

func sectionsToModel(sections []curriculum.Section) []model.CourseSection {
	rows := make([]model.CourseSection, 0, len(sections))
	for i, section := range sections {
		row := model.CourseSection{
			Title:     section.Title,
			Published: section.Published,
			Position:  i,
		}
		row.ID = section.ID
		for j, item := range section.Items {
			itemRow := model.CourseItem{
				SectionID: section.ID,
				Kind:      string(item.Kind),
				Title:     item.Title,
				Position:  j,
			}
			itemRow.ID = item.ID
			if item.Video != nil {
				itemRow.VideoID = item.Video.ID
				itemRow.VideoURL = item.Video.URL
				itemRow.VideoDuration = item.Video.Duration
			}
			for k, doc := range item.Documents {
				docRow := model.CourseDocument{
					ItemID:   item.ID,
					FileURL:  doc.FileURL,
					FileName: doc.FileName,
					Position: k,
				}
				itemRow.Documents = append(itemRow.Documents, docRow)
			}
			if item.Kind == curriculum.KindQuiz {
				itemRow.QuizID = item.QuizID
				for k, q := range item.Questions {
					itemRow.Questions = append(itemRow.Questions, questionToModel(item.ID, k, q))
				}
			}
			row.Items = append(row.Items, itemRow)
		}
		rows = append(rows, row)
	}
	return rows
}

func questionToModel(itemID string, position int, q curriculum.Question) model.CourseQuestion {
	row := model.CourseQuestion{
		ItemID:     itemID,
		Text:       q.Text,
		Type:       string(q.Type),
		Difficulty: string(q.Difficulty),
		Hint:       q.Hint,
		MediaName:  q.MediaName,
		Position:   position,
	}
	row.ID = q.ID
	if len(q.Tags) > 0 {
		if raw, err := json.Marshal(q.Tags); err == nil {
			row.Tags = raw
		}
	}
	for k, a := range q.Answers {
		answerRow := model.CourseAnswer{
			QuestionID:  q.ID,
			Text:        a.Text,
			Correct:     a.Correct,
			Explanation: a.Explanation,
			Position:    k,
		}
		answerRow.ID = a.ID
		row.Answers = append(row.Answers, answerRow)
	}
	return row
}
