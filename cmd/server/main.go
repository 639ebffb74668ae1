package main

import (
	"os"

	"vardiya-backend/internal/config"
	"vardiya-backend/internal/database"
	"vardiya-backend/internal/logger"
	"vardiya-backend/internal/server"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel)

	if err := os.MkdirAll(cfg.MediaPath, 0o755); err != nil {
		logger.Log.Fatalf("Medya klasörü oluşturulamadı: %v", err)
	}

	database.Init(cfg)

	app := server.New(cfg)

	logger.Log.Infof("Server çalışıyor port: %s", cfg.HTTPPort)
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		logger.Log.Fatal(err)
	}
}
