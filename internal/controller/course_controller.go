package controller

import (
	"errors"
	"net/http"
	"strconv"

	"traincape_lms_backend/internal/repository"
	"traincape_lms_backend/internal/service"
	"traincape_lms_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// CourseController 课程目录与选课相关的API
type CourseController struct {
	CourseService     *service.CourseService
	EnrollmentService *service.EnrollmentService
}

func NewCourseController(courseService *service.CourseService, enrollmentService *service.EnrollmentService) *CourseController {
	return &CourseController{
		CourseService:     courseService,
		EnrollmentService: enrollmentService,
	}
}

// Catalog godoc
// @Summary 课程目录
// @Description 已上架课程列表，支持关键字、分类、难度过滤与分页
// @Tags 课程目录
// @Produce json
// @Param search query string false "标题/副标题关键字"
// @Param category query string false "分类"
// @Param level query string false "难度"
// @Param page query int false "页码"
// @Param limit query int false "每页数量"
// @Success 200 {object} util.Response{data=util.PageResponse} "成功"
// @Router /api/courses [get]
func (c *CourseController) Catalog(ctx *gin.Context) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))

	courses, total, err := c.CourseService.Catalog(repository.CourseFilter{
		Search:   ctx.Query("search"),
		Category: ctx.Query("category"),
		Level:    ctx.Query("level"),
		Page:     page,
		Limit:    limit,
	})
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, util.PageResponse{
		List:  courses,
		Total: total,
		Page:  page,
		Limit: limit,
	})
}

// Detail godoc
// @Summary 课程详情
// @Description 含完整大纲。未选课用户看不到测验的正确答案与解析
// @Tags 课程目录
// @Produce json
// @Param id path string true "课程标识"
// @Success 200 {object} util.Response{data=model.Course} "成功"
// @Failure 404 {object} util.Response "课程不存在"
// @Router /api/courses/{id} [get]
func (c *CourseController) Detail(ctx *gin.Context) {
	var userID uint
	if user := util.GetUserFromContext(ctx); user != nil {
		userID = user.UserID
	}

	course, err := c.CourseService.Detail(ctx.Request.Context(), ctx.Param("id"), userID)
	if err != nil {
		if errors.Is(err, util.ErrCourseNotFound) {
			util.NotFound(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, course)
}

// Enroll godoc
// @Summary 选课
// @Description 为当前学员报名一门已上架课程；支付与优惠结算由外部收银台完成
// @Tags 课程目录
// @Produce json
// @Security BearerAuth
// @Param id path string true "课程标识"
// @Success 201 {object} util.Response{data=model.Enrollment} "成功"
// @Failure 409 {object} util.Response "已选过该课程"
// @Router /api/courses/{id}/enroll [post]
func (c *CourseController) Enroll(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	enrollment, err := c.EnrollmentService.Enroll(user.UserID, ctx.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, util.ErrCourseNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrAlreadyEnrolled):
			util.Error(ctx, http.StatusConflict, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Created(ctx, enrollment)
}

// MyLearning godoc
// @Summary 我的学习
// @Description 当前学员的选课列表及各课完成进度
// @Tags 课程目录
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]service.EnrolledCourse} "成功"
// @Router /api/my-learning [get]
func (c *CourseController) MyLearning(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	courses, err := c.EnrollmentService.MyLearning(user.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, courses)
}

// CompleteItem godoc
// @Summary 小节学习完成打点
// @Tags 课程目录
// @Produce json
// @Security BearerAuth
// @Param id path string true "课程标识"
// @Param itemId path string true "小节标识"
// @Success 200 {object} util.Response "成功"
// @Failure 403 {object} util.Response "未选课"
// @Router /api/courses/{id}/items/{itemId}/complete [post]
func (c *CourseController) CompleteItem(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	err := c.EnrollmentService.CompleteItem(user.UserID, ctx.Param("id"), ctx.Param("itemId"))
	if err != nil {
		if errors.Is(err, util.ErrNotEnrolled) {
			util.Forbidden(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// Progress godoc
// @Summary 单门课程的学习进度
// @Tags 课程目录
// @Produce json
// @Security BearerAuth
// @Param id path string true "课程标识"
// @Success 200 {object} util.Response{data=[]model.LectureProgress} "成功"
// @Router /api/courses/{id}/progress [get]
func (c *CourseController) Progress(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	progress, err := c.EnrollmentService.Progress(user.UserID, ctx.Param("id"))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, progress)
}
