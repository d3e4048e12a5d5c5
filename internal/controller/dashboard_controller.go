package controller

import (
	"errors"

	"traincape_lms_backend/internal/service"
	"traincape_lms_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// DashboardController 讲师工作台API
type DashboardController struct {
	DashboardService *service.DashboardService
	CourseService    *service.CourseService
}

func NewDashboardController(dashboardService *service.DashboardService, courseService *service.CourseService) *DashboardController {
	return &DashboardController{
		DashboardService: dashboardService,
		CourseService:    courseService,
	}
}

// Instructor godoc
// @Summary 讲师工作台
// @Description 名下课程、选课人数与未读私信汇总
// @Tags 讲师工作台
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=service.InstructorDashboard} "成功"
// @Router /api/instructor/dashboard [get]
func (c *DashboardController) Instructor(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	dashboard, err := c.DashboardService.Instructor(user.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, dashboard)
}

// Publish godoc
// @Summary 上架课程
// @Description 把已提交的课程置为已上架，仅限课程归属讲师
// @Tags 讲师工作台
// @Produce json
// @Security BearerAuth
// @Param id path string true "课程标识"
// @Success 200 {object} util.Response "成功"
// @Failure 403 {object} util.Response "非本人课程"
// @Router /api/instructor/courses/{id}/publish [post]
func (c *DashboardController) Publish(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	if err := c.CourseService.Publish(ctx.Param("id"), user.UserID); err != nil {
		switch {
		case errors.Is(err, util.ErrCourseNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrNotCourseOwner):
			util.Forbidden(ctx)
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, nil)
}

// MyCourses godoc
// @Summary 讲师名下课程列表
// @Tags 讲师工作台
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]model.Course} "成功"
// @Router /api/instructor/courses [get]
func (c *DashboardController) MyCourses(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	courses, err := c.CourseService.InstructorCourses(user.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, courses)
}
