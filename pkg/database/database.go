package database

import (
	"fmt"
	"log"
	"traincape_lms_backend/internal/config"
	"traincape_lms_backend/internal/model"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		cfg.Charset,
		cfg.ParseTime,
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	})

	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")

	return db, nil
}

// Migrate 同步全部表结构。debug 模式下启动时自动执行，
// release 模式只在 -migrate / -migrate-only 下执行。
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&model.User{},
		&model.Course{},
		&model.CourseSection{},
		&model.CourseItem{},
		&model.CourseDocument{},
		&model.CourseQuestion{},
		&model.CourseAnswer{},
		&model.Enrollment{},
		&model.LectureProgress{},
		&model.Conversation{},
		&model.Message{},
		&model.Review{},
		&model.LectureNote{},
		&model.LectureQuestion{},
		&model.LectureAnswer{},
	)
	if err != nil {
		return err
	}

	log.Println("Database migration completed")
	return nil
}
