package db

import (
	"os"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"inkwell/internal/config"
	"inkwell/internal/logging"
	"inkwell/internal/models"
)

var DB *gorm.DB

func Init(cfg *config.DatabaseConfig) {
	log := logging.WithComponent("db")

	var err error
	DB, err = gorm.Open(postgres.Open(cfg.URL), &gorm.Config{})
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}

	log.Info("Database connection established")

	// Auto Migrate
	err = DB.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Post{},
		&models.Page{},
		&models.Comment{},
		&models.CommentLike{},
		&models.ShortenedLink{},
		&models.Setting{},
	)
	if err != nil {
		log.Fatal("Failed to migrate database", zap.Error(err))
	}
	log.Info("Database migration completed")

	seedAdmin()
	seedSettings()
	seedCategories()
}

// seedAdmin 创建初始管理员账号（邮箱/密码来自环境变量，已存在则跳过）
func seedAdmin() {
	log := logging.WithComponent("db")

	var count int64
	DB.Model(&models.User{}).Count(&count)
	if count > 0 {
		return
	}

	email := os.Getenv("INKWELL_ADMIN_EMAIL")
	password := os.Getenv("INKWELL_ADMIN_PASSWORD")
	if email == "" || password == "" {
		log.Warn("No admin account seeded: INKWELL_ADMIN_EMAIL / INKWELL_ADMIN_PASSWORD not set")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("Failed to hash admin password", zap.Error(err))
		return
	}

	admin := models.User{Email: email, Password: string(hash), Role: "admin"}
	if err := DB.Create(&admin).Error; err != nil {
		log.Error("Failed to create admin account", zap.Error(err))
		return
	}
	log.Info("Initial admin account created", zap.String("email", email))
}

// seedSettings 写入缺失的默认站点设置
func seedSettings() {
	defaults := map[string]string{
		models.SettingSiteTitle:       "Inkwell",
		models.SettingSiteDescription: "A quiet place for writing.",
	}

	for key, value := range defaults {
		var count int64
		DB.Model(&models.Setting{}).Where("key = ?", key).Count(&count)
		if count == 0 {
			DB.Create(&models.Setting{Key: key, Value: value})
		}
	}
}

// seedCategories 创建预设分类
func seedCategories() {
	log := logging.WithComponent("db")

	var count int64
	DB.Model(&models.Category{}).Count(&count)
	if count > 0 {
		return
	}

	categories := []models.Category{
		{Name: "General", Slug: "general", Description: "Everything else"},
		{Name: "Tutorials", Slug: "tutorials", Description: "Step-by-step guides"},
		{Name: "Notes", Slug: "notes", Description: "Short-form notes and links"},
	}

	for _, category := range categories {
		if err := DB.Create(&category).Error; err != nil {
			log.Error("Failed to create category", zap.String("name", category.Name), zap.Error(err))
		}
	}
	log.Info("Initial categories created")
}
