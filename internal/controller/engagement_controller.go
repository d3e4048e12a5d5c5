package controller

import (
	"errors"
	"net/http"
	"strconv"

	"traincape_lms_backend/internal/service"
	"traincape_lms_backend/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// EngagementController 课程评价、笔记与课内问答的API
type EngagementController struct {
	EngagementService *service.EngagementService
}

func NewEngagementController(engagementService *service.EngagementService) *EngagementController {
	return &EngagementController{EngagementService: engagementService}
}

// AddReviewRequest 课程评价请求
// swagger:model AddReviewRequest
type AddReviewRequest struct {
	Rating int    `json:"rating" binding:"required,min=1,max=5"`
	Body   string `json:"body"`
}

// AddReview godoc
// @Summary 评价课程
// @Description 仅限已选课学员，每人每课一条；评价后课程均分即时重算
// @Tags 课程互动
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "课程标识"
// @Param request body AddReviewRequest true "评分与评语"
// @Success 201 {object} util.Response{data=model.Review} "成功"
// @Failure 403 {object} util.Response "未选课"
// @Failure 409 {object} util.Response "已评价过"
// @Router /api/courses/{id}/reviews [post]
func (c *EngagementController) AddReview(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var request AddReviewRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	review, err := c.EngagementService.AddReview(user.UserID, ctx.Param("id"), request.Rating, request.Body)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrNotEnrolled):
			util.Forbidden(ctx)
		case errors.Is(err, util.ErrAlreadyReviewed):
			util.Error(ctx, http.StatusConflict, err.Error())
		case errors.Is(err, util.ErrInvalidRating):
			util.BadRequest(ctx, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Created(ctx, review)
}

// ListReviews godoc
// @Summary 课程评价列表
// @Tags 课程互动
// @Produce json
// @Param id path string true "课程标识"
// @Param page query int false "页码"
// @Param limit query int false "每页数量"
// @Success 200 {object} util.Response{data=util.PageResponse} "成功"
// @Router /api/courses/{id}/reviews [get]
func (c *EngagementController) ListReviews(ctx *gin.Context) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))

	reviews, total, err := c.EngagementService.ListReviews(ctx.Param("id"), page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{
		List:  reviews,
		Total: total,
		Page:  page,
		Limit: limit,
	})
}

// AddNoteRequest 视频笔记请求
// swagger:model AddNoteRequest
type AddNoteRequest struct {
	Body         string  `json:"body" binding:"required"`
	TimestampSec float64 `json:"timestampSec"`
}

// AddNote godoc
// @Summary 给视频小节记笔记
// @Description 笔记挂在视频时间点上，仅本人可见
// @Tags 课程互动
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param itemId path string true "小节标识"
// @Param request body AddNoteRequest true "笔记内容与时间点"
// @Success 201 {object} util.Response{data=model.LectureNote} "成功"
// @Router /api/items/{itemId}/notes [post]
func (c *EngagementController) AddNote(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var request AddNoteRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	note, err := c.EngagementService.AddNote(user.UserID, ctx.Param("itemId"), request.Body, request.TimestampSec)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Created(ctx, note)
}

// ListNotes godoc
// @Summary 我在某小节的笔记
// @Tags 课程互动
// @Produce json
// @Security BearerAuth
// @Param itemId path string true "小节标识"
// @Success 200 {object} util.Response{data=[]model.LectureNote} "成功"
// @Router /api/items/{itemId}/notes [get]
func (c *EngagementController) ListNotes(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	notes, err := c.EngagementService.ListNotes(user.UserID, ctx.Param("itemId"))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, notes)
}

// DeleteNote godoc
// @Summary 删除自己的笔记
// @Tags 课程互动
// @Produce json
// @Security BearerAuth
// @Param noteId path string true "笔记标识"
// @Success 200 {object} util.Response "成功"
// @Failure 404 {object} util.Response "笔记不存在或不属于当前用户"
// @Router /api/notes/{noteId} [delete]
func (c *EngagementController) DeleteNote(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	if err := c.EngagementService.DeleteNote(ctx.Param("noteId"), user.UserID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.NotFound(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// AskQuestionRequest 课内提问请求
// swagger:model AskQuestionRequest
type AskQuestionRequest struct {
	Title string `json:"title" binding:"required"`
	Body  string `json:"body"`
}

// AskQuestion godoc
// @Summary 在视频小节下提问
// @Tags 课程互动
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param itemId path string true "小节标识"
// @Param request body AskQuestionRequest true "问题"
// @Success 201 {object} util.Response{data=model.LectureQuestion} "成功"
// @Router /api/items/{itemId}/questions [post]
func (c *EngagementController) AskQuestion(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var request AskQuestionRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	question, err := c.EngagementService.AskQuestion(user.UserID, ctx.Param("itemId"), request.Title, request.Body)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Created(ctx, question)
}

// ListQuestions godoc
// @Summary 小节下的提问列表
// @Tags 课程互动
// @Produce json
// @Param itemId path string true "小节标识"
// @Success 200 {object} util.Response{data=[]model.LectureQuestion} "成功"
// @Router /api/items/{itemId}/questions [get]
func (c *EngagementController) ListQuestions(ctx *gin.Context) {
	questions, err := c.EngagementService.ListQuestions(ctx.Param("itemId"))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, questions)
}

// AnswerQuestionRequest 回答提问请求
// swagger:model AnswerQuestionRequest
type AnswerQuestionRequest struct {
	Body string `json:"body" binding:"required"`
}

// AnswerQuestion godoc
// @Summary 回答课内提问
// @Tags 课程互动
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param questionId path string true "问题标识"
// @Param request body AnswerQuestionRequest true "回答内容"
// @Success 201 {object} util.Response{data=model.LectureAnswer} "成功"
// @Failure 404 {object} util.Response "问题不存在"
// @Router /api/questions/{questionId}/answers [post]
func (c *EngagementController) AnswerQuestion(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var request AnswerQuestionRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	answer, err := c.EngagementService.AnswerQuestion(user.UserID, ctx.Param("questionId"), request.Body)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.NotFound(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Created(ctx, answer)
}
