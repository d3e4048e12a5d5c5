package controller

import (
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"traincape_lms_backend/internal/curriculum"
	"traincape_lms_backend/internal/draft"
	"traincape_lms_backend/internal/service"
	"traincape_lms_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// AuthoringController 讲师课程编辑相关的API
type AuthoringController struct {
	AuthoringService *service.AuthoringService
	StorageService   *service.StorageService
}

func NewAuthoringController(authoringService *service.AuthoringService, storageService *service.StorageService) *AuthoringController {
	return &AuthoringController{
		AuthoringService: authoringService,
		StorageService:   storageService,
	}
}

// OpenDraftRequest 打开编辑会话；courseId为空表示新建课程
// swagger:model OpenDraftRequest
type OpenDraftRequest struct {
	CourseID string `json:"courseId"`
}

// OpenDraft godoc
// @Summary 打开课程编辑会话
// @Description 打开（或复用）课程草稿会话。存在较新的本地快照时返回 offering-resume，由讲师决定恢复或重新开始
// @Tags 课程编辑
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body OpenDraftRequest true "课程标识，空值表示新课程"
// @Success 200 {object} util.Response{data=draft.OpenResult} "成功"
// @Failure 403 {object} util.Response "非本人课程"
// @Failure 404 {object} util.Response "课程不存在"
// @Router /api/instructor/draft/open [post]
func (c *AuthoringController) OpenDraft(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var request OpenDraftRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	_, result, err := c.AuthoringService.Open(ctx.Request.Context(), user.UserID, request.CourseID)
	if err != nil {
		c.writeAuthoringError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// ResumeDraft godoc
// @Summary 从本地快照恢复草稿
// @Description 接受 offering-resume 状态下的快照，所有可编辑字段回填为快照内容
// @Tags 课程编辑
// @Produce json
// @Security BearerAuth
// @Param courseId query string false "课程标识"
// @Success 200 {object} util.Response{data=draft.OpenResult} "成功"
// @Failure 404 {object} util.Response "会话不存在"
// @Router /api/instructor/draft/resume [post]
func (c *AuthoringController) ResumeDraft(ctx *gin.Context) {
	sess, ok := c.session(ctx)
	if !ok {
		return
	}
	util.Success(ctx, sess.Resume())
}

// StartFresh godoc
// @Summary 丢弃本地快照重新开始
// @Description 拒绝恢复快照。已发出的课程内容请求仍然有效，返回后照常填充草稿
// @Tags 课程编辑
// @Produce json
// @Security BearerAuth
// @Param courseId query string false "课程标识"
// @Success 200 {object} util.Response{data=draft.OpenResult} "成功"
// @Router /api/instructor/draft/start-fresh [post]
func (c *AuthoringController) StartFresh(ctx *gin.Context) {
	sess, ok := c.session(ctx)
	if !ok {
		return
	}
	util.Success(ctx, sess.StartFresh(ctx.Request.Context()))
}

// DraftView godoc
// @Summary 读取草稿当前内容
// @Tags 课程编辑
// @Produce json
// @Security BearerAuth
// @Param courseId query string false "课程标识"
// @Success 200 {object} util.Response{data=draft.View} "成功"
// @Router /api/instructor/draft [get]
func (c *AuthoringController) DraftView(ctx *gin.Context) {
	sess, ok := c.session(ctx)
	if !ok {
		return
	}
	util.Success(ctx, sess.View())
}

// LeaveGuard godoc
// @Summary 离开编辑页是否需要确认
// @Description 已有课程且存在未提交修改时返回 true；会话内新建的课程不拦截
// @Tags 课程编辑
// @Produce json
// @Security BearerAuth
// @Param courseId query string false "课程标识"
// @Success 200 {object} util.Response{data=map[string]bool} "成功"
// @Router /api/instructor/draft/leave-guard [get]
func (c *AuthoringController) LeaveGuard(ctx *gin.Context) {
	sess, ok := c.session(ctx)
	if !ok {
		return
	}
	util.Success(ctx, gin.H{"warn": sess.NeedsLeaveWarning()})
}

// UpdateMetadata godoc
// @Summary 更新课程基本信息
// @Description 整体替换草稿的标量字段；价格等字段按原样保存，提交时才做校验
// @Tags 课程编辑
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param courseId query string false "课程标识"
// @Param request body draft.Metadata true "课程基本信息"
// @Success 200 {object} util.Response "成功"
// @Router /api/instructor/draft/metadata [put]
func (c *AuthoringController) UpdateMetadata(ctx *gin.Context) {
	sess, ok := c.session(ctx)
	if !ok {
		return
	}

	var meta draft.Metadata
	if err := ctx.ShouldBindJSON(&meta); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	sess.UpdateMetadata(meta)
	util.Success(ctx, sess.View())
}

// AddSection godoc
// @Summary 新增章节
// @Tags 课程编辑
// @Produce json
// @Security BearerAuth
// @Param courseId query string false "课程标识"
// @Success 200 {object} util.Response{data=draft.View} "成功"
// @Router /api/instructor/draft/sections [post]
func (c *AuthoringController) AddSection(ctx *gin.Context) {
	sess, ok := c.session(ctx)
	if !ok {
		return
	}
	sess.AddSection()
	util.Success(ctx, sess.View())
}

type editTitleRequest struct {
	Title string `json:"title" binding:"required"`
}

// EditSection godoc
// @Summary 修改章节标题
// @Tags 课程编辑
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param courseId query string false "课程标识"
// @Param sectionId path string true "章节标识"
// @Param request body editTitleRequest true "新标题"
// @Success 200 {object} util.Response{data=draft.View} "成功"
// @Router /api/instructor/draft/sections/{sectionId} [put]
func (c *AuthoringController) EditSection(ctx *gin.Context) {
	sess, ok := c.session(ctx)
	if !ok {
		return
	}

	var request editTitleRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	sess.EditSection(ctx.Param("sectionId"), request.Title)
	util.Success(ctx, sess.View())
}

// DeleteSection godoc
// @Summary 删除章节
// @Tags 课程编辑
// @Produce json
// @Security BearerAuth
// @Param courseId query string false "课程标识"
// @Param sectionId path string true "章节标识"
// @Success 200 {object} util.Response{data=draft.View} "成功"
// @Router /api/instructor/draft/sections/{sectionId} [delete]
func (c *AuthoringController) DeleteSection(ctx *gin.Context) {
	sess, ok := c.session(ctx)
	if !ok {
		return
	}
	sess.DeleteSection(ctx.Param("sectionId"))
	util.Success(ctx, sess.View())
}

type addItemRequest struct {
	Kind curriculum.ItemKind `json:"kind" binding:"required,oneof=lecture quiz"`
}

// AddItem godoc
// @Summary 在章节下新增小节
// @Description kind 为 lecture（视频课）或 quiz（测验）
// @Tags 课程编辑
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param courseId query string false "课程标识"
// @Param sectionId path string true "章节标识"
// @Param request body addItemRequest true "小节类型"
// @Success 200 {object} util.Response{data=draft.View} "成功"
// @Router /api/instructor/draft/sections/{sectionId}/items [post]
func (c *AuthoringController) AddItem(ctx *gin.Context) {
	sess, ok := c.session(ctx)
	if !ok {
		return
	}

	var request addItemRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	sess.AddItem(ctx.Param("sectionId"), request.Kind)
	util.Success(ctx, sess.View())
}

// EditItem godoc
// @Summary 修改小节标题
// @Tags 课程编辑
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param courseId query string false "课程标识"
// @Param sectionId path string true "章节标识"
// @Param itemId path string true "小节标识"
// @Param request body editTitleRequest true "新标题"
// @Success 200 {object} util.Response{data=draft.View} "成功"
// @Router /api/instructor/draft/sections/{sectionId}/items/{itemId} [put]
func (c *AuthoringController) EditItem(ctx *gin.Context) {
	sess, ok := c.session(ctx)
	if !ok {
		return
	}

	var request editTitleRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	sess.EditItem(ctx.Param("sectionId"), ctx.Param("itemId"), request.Title)
	util.Success(ctx, sess.View())
}

// DeleteItem godoc
// @Summary 删除小节
// @Tags 课程编辑
// @Produce json
// @Security BearerAuth
// @Param courseId query string false "课程标识"
// @Param sectionId path string true "章节标识"
// @Param itemId path string true "小节标识"
// @Success 200 {object} util.Response{data=draft.View} "成功"
// @Router /api/instructor/draft/sections/{sectionId}/items/{itemId} [delete]
func (c *AuthoringController) DeleteItem(ctx *gin.Context) {
	sess, ok := c.session(ctx)
	if !ok {
		return
	}
	sess.DeleteItem(ctx.Param("sectionId"), ctx.Param("itemId"))
	util.Success(ctx, sess.View())
}

// ToggleExpand godoc
// @Summary 展开/折叠小节
// @Tags 课程编辑
// @Produce json
// @Security BearerAuth
// @Param courseId query string false "课程标识"
// @Param sectionId path string true "章节标识"
// @Param itemId path string true "小节标识"
// @Success 200 {object} util.Response{data=draft.View} "成功"
// @Router /api/instructor/draft/sections/{sectionId}/items/{itemId}/toggle [post]
func (c *AuthoringController) ToggleExpand(ctx *gin.Context) {
	sess, ok := c.session(ctx)
	if !ok {
		return
	}
	sess.ToggleExpand(ctx.Param("sectionId"), ctx.Param("itemId"))
	util.Success(ctx, sess.View())
}

// AddQuestion godoc
// @Summary 给测验小节新增题目
// @Description 新题目自带两个空白答案，所在小节强制展开
// @Tags 课程编辑
// @Produce json
// @Security BearerAuth
// @Param courseId query string false "课程标识"
// @Param sectionId path string true "章节标识"
// @Param itemId path string true "小节标识"
// @Success 200 {object} util.Response{data=draft.View} "成功"
// @Router /api/instructor/draft/sections/{sectionId}/items/{itemId}/questions [post]
func (c *AuthoringController) AddQuestion(ctx *gin.Context) {
	sess, ok := c.session(ctx)
	if !ok {
		return
	}
	sess.AddQuestion(ctx.Param("sectionId"), ctx.Param("itemId"))
	util.Success(ctx, sess.View())
}

// UpdateQuestion godoc
// @Summary 整体替换题目内容
// @Description 题目标识保持不变，其余字段以请求体为准
// @Tags 课程编辑
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param courseId query string false "课程标识"
// @Param sectionId path string true "章节标识"
// @Param itemId path string true "小节标识"
// @Param questionId path string true "题目标识"
// @Param request body curriculum.Question true "题目内容"
// @Success 200 {object} util.Response{data=draft.View} "成功"
// @Router /api/instructor/draft/sections/{sectionId}/items/{itemId}/questions/{questionId} [put]
func (c *AuthoringController) UpdateQuestion(ctx *gin.Context) {
	sess, ok := c.session(ctx)
	if !ok {
		return
	}

	var question curriculum.Question
	if err := ctx.ShouldBindJSON(&question); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	sess.UpdateQuestion(ctx.Param("sectionId"), ctx.Param("itemId"), ctx.Param("questionId"), question)
	util.Success(ctx, sess.View())
}

// DeleteQuestion godoc
// @Summary 删除题目
// @Tags 课程编辑
// @Produce json
// @Security BearerAuth
// @Param courseId query string false "课程标识"
// @Param sectionId path string true "章节标识"
// @Param itemId path string true "小节标识"
// @Param questionId path string true "题目标识"
// @Success 200 {object} util.Response{data=draft.View} "成功"
// @Router /api/instructor/draft/sections/{sectionId}/items/{itemId}/questions/{questionId} [delete]
func (c *AuthoringController) DeleteQuestion(ctx *gin.Context) {
	sess, ok := c.session(ctx)
	if !ok {
		return
	}
	sess.DeleteQuestion(ctx.Param("sectionId"), ctx.Param("itemId"), ctx.Param("questionId"))
	util.Success(ctx, sess.View())
}

type setAnswerCorrectRequest struct {
	Correct bool `json:"correct"`
}

// SetAnswerCorrect godoc
// @Summary 标记答案正误
// @Description 单选与判断题保持恰好一个正确答案，多选题可任意组合
// @Tags 课程编辑
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param courseId query string false "课程标识"
// @Param sectionId path string true "章节标识"
// @Param itemId path string true "小节标识"
// @Param questionId path string true "题目标识"
// @Param answerId path string true "答案标识"
// @Param request body setAnswerCorrectRequest true "是否正确"
// @Success 200 {object} util.Response{data=draft.View} "成功"
// @Router /api/instructor/draft/sections/{sectionId}/items/{itemId}/questions/{questionId}/answers/{answerId}/correct [put]
func (c *AuthoringController) SetAnswerCorrect(ctx *gin.Context) {
	sess, ok := c.session(ctx)
	if !ok {
		return
	}

	var request setAnswerCorrectRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	sess.SetAnswerCorrect(ctx.Param("sectionId"), ctx.Param("itemId"), ctx.Param("questionId"), ctx.Param("answerId"), request.Correct)
	util.Success(ctx, sess.View())
}

// AttachVideo godoc
// @Summary 给视频小节挂载视频文件
// @Description 文件先落到服务端暂存目录，最终提交时统一上传媒体库；暂存引用不会进入草稿快照
// @Tags 课程编辑
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param courseId query string false "课程标识"
// @Param sectionId path string true "章节标识"
// @Param itemId path string true "小节标识"
// @Param file formData file true "视频文件"
// @Success 200 {object} util.Response{data=draft.View} "成功"
// @Router /api/instructor/draft/sections/{sectionId}/items/{itemId}/video [post]
func (c *AuthoringController) AttachVideo(ctx *gin.Context) {
	sess, ok := c.session(ctx)
	if !ok {
		return
	}

	file, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "video file is required")
		return
	}

	dst := filepath.Join(os.TempDir(), "lms_draft_"+curriculum.NewID()+filepath.Ext(file.Filename))
	if err := ctx.SaveUploadedFile(file, dst); err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	// 探测失败不阻塞挂载，时长记0
	var duration float64
	if info, err := util.GetVideoInfo(dst); err == nil {
		duration = info.Duration
	}

	sess.SetItemPendingVideo(ctx.Param("sectionId"), ctx.Param("itemId"), dst, duration)
	util.Success(ctx, sess.View())
}

// AttachDocument godoc
// @Summary 给视频小节追加课件文档
// @Description 文档立即上传媒体库，草稿中只保留URL
// @Tags 课程编辑
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param courseId query string false "课程标识"
// @Param sectionId path string true "章节标识"
// @Param itemId path string true "小节标识"
// @Param file formData file true "文档文件"
// @Success 200 {object} util.Response{data=draft.View} "成功"
// @Router /api/instructor/draft/sections/{sectionId}/items/{itemId}/documents [post]
func (c *AuthoringController) AttachDocument(ctx *gin.Context) {
	sess, ok := c.session(ctx)
	if !ok {
		return
	}

	file, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "document file is required")
		return
	}

	src, err := file.Open()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	defer src.Close()

	objectName := "documents/" + curriculum.NewID() + "_" + file.Filename
	url, err := c.StorageService.Upload(ctx.Request.Context(), objectName, src, file.Size, file.Header.Get("Content-Type"))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	sess.AddItemDocument(ctx.Param("sectionId"), ctx.Param("itemId"), curriculum.Document{
		FileURL:  url,
		FileName: file.Filename,
	})
	util.Success(ctx, sess.View())
}

// SubmitDraft godoc
// @Summary 完整提交课程
// @Description 以 multipart 整体提交。二进制部分按 curriculum[i][items][j][video] 与
// curriculum[i][items][j][documents][k] 键名定位到大纲位置；缩略图键名为 thumbnail。
// 必填项缺失时返回422并标记需要提示的字段，不产生任何副作用
// @Tags 课程编辑
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param courseId query string false "课程标识"
// @Success 200 {object} util.Response{data=map[string]string} "成功"
// @Failure 422 {object} util.Response "必填项缺失"
// @Router /api/instructor/draft/submit [post]
func (c *AuthoringController) SubmitDraft(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	courseID := ctx.Query("courseId")

	form, err := ctx.MultipartForm()
	if err != nil && !errors.Is(err, http.ErrNotMultipart) {
		util.BadRequest(ctx, err.Error())
		return
	}

	var thumbnail *draft.SubmitFile
	var files []draft.SubmitFile
	var readers []io.Closer
	defer func() {
		for _, r := range readers {
			r.Close()
		}
	}()

	if form != nil {
		for key, headers := range form.File {
			for _, header := range headers {
				src, err := header.Open()
				if err != nil {
					util.LogInternalError(ctx, err)
					return
				}
				readers = append(readers, src)

				part := draft.SubmitFile{
					Key:         key,
					FileName:    header.Filename,
					Reader:      src,
					Size:        header.Size,
					ContentType: header.Header.Get("Content-Type"),
				}
				if key == "thumbnail" {
					t := part
					thumbnail = &t
				} else {
					files = append(files, part)
				}
			}
		}
	}

	mintedID, err := c.AuthoringService.Submit(ctx.Request.Context(), user.UserID, courseID, thumbnail, files)
	if err != nil {
		var vErr *draft.ValidationError
		if errors.As(err, &vErr) {
			ctx.JSON(http.StatusUnprocessableEntity, util.Response{
				Code:    http.StatusUnprocessableEntity,
				Message: vErr.Message,
				Data:    gin.H{"touched": vErr.Touched},
			})
			return
		}
		c.writeAuthoringError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"courseId": mintedID})
}

// CloseDraft godoc
// @Summary 关闭编辑会话
// @Description 停止持久化调度；未提交的修改会做最后一次快照，下次打开时可恢复
// @Tags 课程编辑
// @Produce json
// @Security BearerAuth
// @Param courseId query string false "课程标识"
// @Success 200 {object} util.Response "成功"
// @Router /api/instructor/draft/close [post]
func (c *AuthoringController) CloseDraft(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	c.AuthoringService.Close(user.UserID, ctx.Query("courseId"))
	util.Success(ctx, nil)
}

// session 取当前讲师在该课程上的活跃会话
func (c *AuthoringController) session(ctx *gin.Context) (*draft.Session, bool) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return nil, false
	}
	sess, err := c.AuthoringService.Get(user.UserID, ctx.Query("courseId"))
	if err != nil {
		util.Error(ctx, http.StatusNotFound, err.Error())
		return nil, false
	}
	return sess, true
}

func (c *AuthoringController) writeAuthoringError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrCourseNotFound):
		util.NotFound(ctx)
	case errors.Is(err, util.ErrNotCourseOwner):
		util.Forbidden(ctx)
	case errors.Is(err, util.ErrSessionNotFound):
		util.Error(ctx, http.StatusNotFound, err.Error())
	default:
		util.LogInternalError(ctx, err)
	}
}
