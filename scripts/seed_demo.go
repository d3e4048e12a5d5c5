// 演示数据初始化脚本
//
// 创建一个讲师、一个学员和一门已上架的示例课程，便于本地联调。
//
// 用法: go run scripts/seed_demo.go

package main

import (
	"log"

	"traincape_lms_backend/internal/config"
	"traincape_lms_backend/internal/model"
	"traincape_lms_backend/pkg/database"
	"traincape_lms_backend/pkg/logger"
)

func main() {
	cfg, err := config.LoadConfig("configs")
	if err != nil {
		log.Fatalf("无法读取配置文件: %v", err)
	}

	logger.InitLogger(cfg)

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("数据库迁移失败: %v", err)
	}

	instructor := model.User{
		Name:     "Demo Instructor",
		Email:    "instructor@example.com",
		Role:     model.Instructor,
		Headline: "Go 后端工程师",
	}
	if err := db.Where("email = ?", instructor.Email).FirstOrCreate(&instructor).Error; err != nil {
		log.Fatalf("创建讲师失败: %v", err)
	}

	student := model.User{
		Name:  "Demo Student",
		Email: "student@example.com",
		Role:  model.Student,
	}
	if err := db.Where("email = ?", student.Email).FirstOrCreate(&student).Error; err != nil {
		log.Fatalf("创建学员失败: %v", err)
	}

	var count int64
	db.Model(&model.Course{}).Where("instructor_id = ?", instructor.ID).Count(&count)
	if count == 0 {
		course := model.Course{
			InstructorID:    instructor.ID,
			Title:           "Go Web 开发入门",
			Subtitle:        "从零搭建一个REST服务",
			Description:     "覆盖路由、中间件、数据库与部署的入门课程。",
			Category:        "development",
			Level:           "beginner",
			Price:           49.99,
			WelcomeMessage:  "欢迎加入课程！",
			CongratsMessage: "恭喜完成全部内容！",
			Status:          model.CoursePublished,
		}
		if err := db.Create(&course).Error; err != nil {
			log.Fatalf("创建课程失败: %v", err)
		}

		section := model.CourseSection{
			CourseID:  course.ID,
			Title:     "准备工作",
			Published: true,
			Position:  0,
		}
		if err := db.Create(&section).Error; err != nil {
			log.Fatalf("创建章节失败: %v", err)
		}

		item := model.CourseItem{
			SectionID: section.ID,
			Kind:      "lecture",
			Title:     "环境搭建",
			Position:  0,
		}
		if err := db.Create(&item).Error; err != nil {
			log.Fatalf("创建小节失败: %v", err)
		}
	}

	log.Println("演示数据初始化完成")
}
