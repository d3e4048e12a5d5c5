package app

import (
	"traincape_lms_backend/docs"
	"traincape_lms_backend/internal/config"
	"traincape_lms_backend/internal/middleware"
	"traincape_lms_backend/internal/model"
	"traincape_lms_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由：目录类接口允许游客访问，登录用户能看到更多
	a.registerPublicRoutes(router, c, repos)

	// 2. 需要登录的学员接口
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg), middleware.ActivityMiddleware(repos.user))
	{
		a.registerStudentRoutes(authGroup, c)

		// 3. 讲师接口
		a.registerInstructorRoutes(authGroup, c)
	}
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers, repos *repositories) {
	public := router.Group("/api")
	public.Use(middleware.TryAuthMiddleware(a.Config), middleware.ActivityMiddleware(repos.user))
	{
		public.GET("/health", c.health.HealthCheck)
		public.GET("/courses", c.course.Catalog)
		public.GET("/courses/:id", c.course.Detail)
		public.GET("/courses/:id/reviews", c.engagement.ListReviews)
		public.GET("/items/:itemId/questions", c.engagement.ListQuestions)
	}
}

func (a *App) registerStudentRoutes(group *gin.RouterGroup, c *controllers) {
	// 选课与学习进度
	group.POST("/courses/:id/enroll", c.course.Enroll)
	group.GET("/my-learning", c.course.MyLearning)
	group.POST("/courses/:id/items/:itemId/complete", c.course.CompleteItem)
	group.GET("/courses/:id/progress", c.course.Progress)

	// 课程互动
	group.POST("/courses/:id/reviews", c.engagement.AddReview)
	group.POST("/items/:itemId/notes", c.engagement.AddNote)
	group.GET("/items/:itemId/notes", c.engagement.ListNotes)
	group.DELETE("/notes/:noteId", c.engagement.DeleteNote)
	group.POST("/items/:itemId/questions", c.engagement.AskQuestion)
	group.POST("/questions/:questionId/answers", c.engagement.AnswerQuestion)

	// 私信
	group.POST("/conversations", c.message.OpenConversation)
	group.GET("/conversations", c.message.ListConversations)
	group.POST("/conversations/:id/messages", c.message.Send)
	group.GET("/conversations/:id/messages", c.message.Messages)
	group.GET("/conversations/:id/poll", c.message.Poll)
	group.GET("/conversations/:id/unread", c.message.Unread)
}

func (a *App) registerInstructorRoutes(group *gin.RouterGroup, c *controllers) {
	instructor := group.Group("/instructor")
	instructor.Use(middleware.RoleMiddleware(model.Instructor))
	{
		instructor.GET("/dashboard", c.dashboard.Instructor)
		instructor.GET("/courses", c.dashboard.MyCourses)
		instructor.POST("/courses/:id/publish", c.dashboard.Publish)

		// 课程草稿编辑会话
		draftGroup := instructor.Group("/draft")
		{
			draftGroup.POST("/open", c.authoring.OpenDraft)
			draftGroup.POST("/resume", c.authoring.ResumeDraft)
			draftGroup.POST("/start-fresh", c.authoring.StartFresh)
			draftGroup.GET("", c.authoring.DraftView)
			draftGroup.GET("/leave-guard", c.authoring.LeaveGuard)
			draftGroup.PUT("/metadata", c.authoring.UpdateMetadata)

			draftGroup.POST("/sections", c.authoring.AddSection)
			draftGroup.PUT("/sections/:sectionId", c.authoring.EditSection)
			draftGroup.DELETE("/sections/:sectionId", c.authoring.DeleteSection)

			draftGroup.POST("/sections/:sectionId/items", c.authoring.AddItem)
			draftGroup.PUT("/sections/:sectionId/items/:itemId", c.authoring.EditItem)
			draftGroup.DELETE("/sections/:sectionId/items/:itemId", c.authoring.DeleteItem)
			draftGroup.POST("/sections/:sectionId/items/:itemId/toggle", c.authoring.ToggleExpand)

			draftGroup.POST("/sections/:sectionId/items/:itemId/questions", c.authoring.AddQuestion)
			draftGroup.PUT("/sections/:sectionId/items/:itemId/questions/:questionId", c.authoring.UpdateQuestion)
			draftGroup.DELETE("/sections/:sectionId/items/:itemId/questions/:questionId", c.authoring.DeleteQuestion)
			draftGroup.PUT("/sections/:sectionId/items/:itemId/questions/:questionId/answers/:answerId/correct", c.authoring.SetAnswerCorrect)

			draftGroup.POST("/sections/:sectionId/items/:itemId/video", c.authoring.AttachVideo)
			draftGroup.POST("/sections/:sectionId/items/:itemId/documents", c.authoring.AttachDocument)

			draftGroup.POST("/submit", c.authoring.SubmitDraft)
			draftGroup.POST("/close", c.authoring.CloseDraft)
		}
	}
}
