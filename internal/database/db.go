package database

import (
	"vardiya-backend/internal/config"
	"vardiya-backend/internal/logger"
	"vardiya-backend/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Init(cfg *config.Config) {
	var err error

	DB, err = gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		logger.Log.Fatalf("Veritabanına bağlanılamadı: %v", err)
	}

	if err := Migrate(DB); err != nil {
		logger.Log.Fatalf("AutoMigrate hatası: %v", err)
	}

	if cfg.AdminUsername != "" && cfg.AdminPassword != "" {
		if err := SeedAdmin(DB, cfg.AdminUsername, cfg.AdminPassword); err != nil {
			logger.Log.Errorf("Admin kullanıcı oluşturulamadı: %v", err)
		}
	}

	logger.Log.Info("Veritabanı bağlantısı başarılı. Migration tamamlandı.")
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Branch{},
		&models.BranchHours{},
		&models.User{},
		&models.ProfileUpdateRequest{},
		&models.Shift{},
		&models.TradeRequest{},
		&models.CancelRequest{},
		&models.Availability{},
		&models.Preference{},
		&models.RestrictionRule{},
		&models.Setting{},
		&models.AuditLog{},
	)
}

// SeedAdmin - hiç admin yoksa ilk admini oluşturur
func SeedAdmin(db *gorm.DB, username, password string) error {
	var count int64
	if err := db.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := models.User{
		Username:     username,
		Email:        username + "@vardiya.local",
		FirstName:    "Sistem",
		LastName:     "Yöneticisi",
		PasswordHash: string(hash),
		Role:         models.RoleAdmin,
		IsActive:     true,
	}
	if err := db.Create(&admin).Error; err != nil {
		return err
	}
	logger.Log.WithField("username", username).Info("İlk admin kullanıcı oluşturuldu")
	return nil
}
