package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	HTTPPort      string
	DatabaseDSN   string
	JWTSecret     string
	JWTTTL        time.Duration
	CORSOrigins   string
	MediaPath     string // profil fotoğraflarının kaydedileceği klasör
	MediaBaseURL  string // istemciye dönen mutlak URL'lerin öneki
	LogLevel      string
	EarlyStart    time.Duration // QR ile vardiya başlatmada izin verilen erken başlama
	BulkWorkers   int
	AdminUsername string
	AdminPassword string
}

const defaultDSN = "host=localhost user=postgres password=postgres dbname=vardiya port=5432 sslmode=disable"

func Load() *Config {
	// .env yoksa sessizce devam et, production'da gerçek env kullanılır
	_ = godotenv.Load()

	cfg := &Config{
		HTTPPort:      getEnv("HTTP_PORT", "8000"),
		DatabaseDSN:   getEnv("DATABASE_DSN", defaultDSN),
		JWTSecret:     getEnv("JWT_SECRET", ""),
		JWTTTL:        time.Duration(getEnvInt("JWT_TTL_HOURS", 24)) * time.Hour,
		CORSOrigins:   getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),
		MediaPath:     getEnv("MEDIA_PATH", "./media"),
		MediaBaseURL:  getEnv("MEDIA_BASE_URL", "http://127.0.0.1:8000/media"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		EarlyStart:    time.Duration(getEnvInt("EARLY_START_MINUTES", 15)) * time.Minute,
		BulkWorkers:   getEnvInt("BULK_CONCURRENCY", 8),
		AdminUsername: getEnv("ADMIN_USERNAME", ""),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),
	}

	if cfg.JWTSecret == "" {
		logrus.Fatal("[FATAL] JWT_SECRET environment değişkeni tanımlanmamış! Production için zorunludur.")
	}
	if len(cfg.JWTSecret) < 32 {
		logrus.Fatal("[FATAL] JWT_SECRET en az 32 karakter olmalıdır! Güvenlik riski.")
	}
	if cfg.DatabaseDSN == defaultDSN {
		logrus.Warn("DATABASE_DSN varsayılan değer kullanılıyor, production için kendi Postgres bağlantı bilgini tanımla.")
	}
	if cfg.CORSOrigins == "http://localhost:3000" {
		logrus.Warn("CORS_ALLOWED_ORIGINS varsayılan değer kullanılıyor, production için kendi domain'ini tanımla.")
	}
	if cfg.BulkWorkers < 1 {
		cfg.BulkWorkers = 1
	}

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		logrus.Warnf("%s sayı değil (%q), varsayılan %d kullanılıyor", key, v, def)
		return def
	}
	return n
}
