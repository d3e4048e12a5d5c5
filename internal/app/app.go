package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"traincape_lms_backend/internal/config"
	"traincape_lms_backend/internal/controller"
	"traincape_lms_backend/internal/repository"
	"traincape_lms_backend/internal/service"
	"traincape_lms_backend/pkg/configwatcher"
	"traincape_lms_backend/pkg/database"
	"traincape_lms_backend/pkg/logger"
	"traincape_lms_backend/pkg/monitoring"
	"traincape_lms_backend/pkg/security"
	"traincape_lms_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config   *config.Config
	Router   *gin.Engine
	DB       *gorm.DB
	Redis    *redis.Client
	services *services
}

type repositories struct {
	user       *repository.UserRepository
	course     *repository.CourseRepository
	enrollment *repository.EnrollmentRepository
	message    *repository.MessageRepository
	engagement *repository.EngagementRepository
}

type services struct {
	storage    *service.StorageService
	authoring  *service.AuthoringService
	course     *service.CourseService
	enrollment *service.EnrollmentService
	message    *service.MessageService
	engagement *service.EngagementService
	dashboard  *service.DashboardService
}

type controllers struct {
	authoring  *controller.AuthoringController
	course     *controller.CourseController
	message    *controller.MessageController
	engagement *controller.EngagementController
	dashboard  *controller.DashboardController
	health     *controller.HealthController
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:       repository.NewUserRepository(db),
		course:     repository.NewCourseRepository(db),
		enrollment: repository.NewEnrollmentRepository(db),
		message:    repository.NewMessageRepository(db),
		engagement: repository.NewEngagementRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) *services {
	s := &services{}

	s.storage = service.NewStorageService(cfg)
	s.authoring = service.NewAuthoringService(cfg, repos.course, rdb, s.storage, logger.Log)
	s.enrollment = service.NewEnrollmentService(repos.enrollment, repos.course)
	s.course = service.NewCourseService(repos.course, repos.enrollment)
	s.message = service.NewMessageService(cfg.Messaging, repos.message, repos.course, logger.Log)
	s.engagement = service.NewEngagementService(repos.engagement, repos.enrollment, repos.course)
	s.dashboard = service.NewDashboardService(repos.course, repos.enrollment, repos.message)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		authoring:  controller.NewAuthoringController(s.authoring, s.storage),
		course:     controller.NewCourseController(s.course, s.enrollment),
		message:    controller.NewMessageController(s.message),
		engagement: controller.NewEngagementController(s.engagement),
		dashboard:  controller.NewDashboardController(s.dashboard, s.course),
		health:     controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if window <= 0 {
		window = time.Minute
	}
	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 10000
	}
	router.Use(security.RateLimiter(maxRequests, window))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// startBackgroundTasks 回收空闲的课程编辑会话，并监听配置文件热更新
func (a *App) startBackgroundTasks(s *services) {
	go s.authoring.Manager.RunJanitor(a.Config.Draft.SessionSweepInterval)

	configFile := "configs/config.yaml"
	if _, err := os.Stat(configFile); err == nil {
		go configwatcher.WatchConfig(configFile, a.Config, func(cfg interface{}) {
			newCfg, ok := cfg.(*config.Config)
			if !ok {
				return
			}
			// 中间件在启动时已捕获旧值，这里只接管JWT密钥这类按请求读取的项
			a.Config.JWT = newCfg.JWT
			logger.Log.Info("Config reloaded")
		})
	}
}

// shouldMigrate debug 模式每次启动都同步表结构；release 模式须显式传 -migrate
func shouldMigrate(cfg *config.Config) bool {
	return cfg.ForceMigrate || cfg.Server.Mode != "release"
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		log.Fatalf("Failed to initialize database: %v", err)
	}

	if shouldMigrate(cfg) {
		if err := database.Migrate(db); err != nil {
			logger.Log.Fatal("Failed to migrate database", zap.Error(err))
			log.Fatalf("Failed to migrate database: %v", err)
		}
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
		log.Fatalf("Failed to initialize redis: %v", err)
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, rdb)
	app.services = services
	controllers := app.initControllers(services, db, rdb)

	// 监控初始化
	monitoring.Init()

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		if _, err := tracing.InitTracer("traincape-lms", cfg.Tracing.CollectorEndpoint); err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app.registerRoutes(router, controllers, repos, cfg)

	if cfg.Storage.Type == "local" {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	app.startBackgroundTasks(services)

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	// 启动服务器
	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// 先停编辑会话：未提交的草稿做最后一次快照
	if a.services != nil && a.services.authoring != nil {
		a.services.authoring.Manager.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
