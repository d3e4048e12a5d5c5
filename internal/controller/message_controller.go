package controller

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"traincape_lms_backend/internal/service"
	"traincape_lms_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// MessageController 站内私信相关的API
type MessageController struct {
	MessageService *service.MessageService
}

func NewMessageController(messageService *service.MessageService) *MessageController {
	return &MessageController{MessageService: messageService}
}

// OpenConversationRequest 发起会话请求
// swagger:model OpenConversationRequest
type OpenConversationRequest struct {
	CourseID string `json:"courseId" binding:"required"`
}

// OpenConversation godoc
// @Summary 发起与课程讲师的会话
// @Description 同一学员对同一门课只保留一个会话，重复发起时复用
// @Tags 私信
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body OpenConversationRequest true "课程标识"
// @Success 200 {object} util.Response{data=model.Conversation} "成功"
// @Router /api/conversations [post]
func (c *MessageController) OpenConversation(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var request OpenConversationRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	conv, err := c.MessageService.OpenConversation(user.UserID, request.CourseID)
	if err != nil {
		if errors.Is(err, util.ErrCourseNotFound) {
			util.NotFound(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, conv)
}

// ListConversations godoc
// @Summary 我的会话列表
// @Tags 私信
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]model.Conversation} "成功"
// @Router /api/conversations [get]
func (c *MessageController) ListConversations(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	convs, err := c.MessageService.ListConversations(user.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, convs)
}

// SendMessageRequest 发送消息请求
// swagger:model SendMessageRequest
type SendMessageRequest struct {
	Body string `json:"body" binding:"required"`
}

// Send godoc
// @Summary 发送消息
// @Tags 私信
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "会话标识"
// @Param request body SendMessageRequest true "消息内容"
// @Success 201 {object} util.Response{data=model.Message} "成功"
// @Failure 403 {object} util.Response "不是会话成员"
// @Router /api/conversations/{id}/messages [post]
func (c *MessageController) Send(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var request SendMessageRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	msg, err := c.MessageService.Send(user.UserID, ctx.Param("id"), request.Body)
	if err != nil {
		c.writeMessageError(ctx, err)
		return
	}
	util.Created(ctx, msg)
}

// Messages godoc
// @Summary 增量拉取会话消息
// @Description 只返回序号大于 after 的消息，同时把对方消息置为已读
// @Tags 私信
// @Produce json
// @Security BearerAuth
// @Param id path string true "会话标识"
// @Param after query int false "已收到的最大消息序号"
// @Param limit query int false "单次最多返回条数"
// @Success 200 {object} util.Response{data=[]model.Message} "成功"
// @Router /api/conversations/{id}/messages [get]
func (c *MessageController) Messages(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	after, _ := strconv.ParseUint(ctx.DefaultQuery("after", "0"), 10, 64)
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "100"))

	msgs, err := c.MessageService.Messages(user.UserID, ctx.Param("id"), after, limit)
	if err != nil {
		c.writeMessageError(ctx, err)
		return
	}
	util.Success(ctx, msgs)
}

// Poll godoc
// @Summary 长轮询会话新消息
// @Description 挂起直到有新消息或超时。同一用户发起新的轮询会让旧轮询立即返回空列表
// @Tags 私信
// @Produce json
// @Security BearerAuth
// @Param id path string true "会话标识"
// @Param after query int false "已收到的最大消息序号"
// @Success 200 {object} util.Response{data=[]model.Message} "成功"
// @Router /api/conversations/{id}/poll [get]
func (c *MessageController) Poll(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	after, _ := strconv.ParseUint(ctx.DefaultQuery("after", "0"), 10, 64)

	msgs, err := c.MessageService.Poll(ctx.Request.Context(), user.UserID, ctx.Param("id"), after)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			// 客户端断开，无需响应
			return
		}
		c.writeMessageError(ctx, err)
		return
	}
	util.Success(ctx, msgs)
}

// Unread godoc
// @Summary 会话未读条数
// @Tags 私信
// @Produce json
// @Security BearerAuth
// @Param id path string true "会话标识"
// @Success 200 {object} util.Response{data=map[string]int64} "成功"
// @Router /api/conversations/{id}/unread [get]
func (c *MessageController) Unread(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	count, err := c.MessageService.Unread(user.UserID, ctx.Param("id"))
	if err != nil {
		c.writeMessageError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"unread": count})
}

func (c *MessageController) writeMessageError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrConversationNotFound):
		util.NotFound(ctx)
	case errors.Is(err, util.ErrNotConversationPeer):
		util.Error(ctx, http.StatusForbidden, err.Error())
	default:
		util.LogInternalError(ctx, err)
	}
}
