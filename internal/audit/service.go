package audit

import (
	"encoding/json"
	"fmt"

	"vardiya-backend/internal/models"

	"gorm.io/gorm"
)

// Entry - onay geçmişine düşülecek tek bir karar
type Entry struct {
	BranchID    *uint
	UserID      uint
	UserName    string
	EntityType  string
	EntityID    uint
	Action      models.AuditAction
	Description string
	Before      any
	After       any
}

// snapshot - boş değer için JSON "null" döner
func snapshot(v any) string {
	if v == nil {
		return "null"
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}

// Record - kaydı verilen transaction içinde yazar; durum geçişi geri alınırsa kayıt da gider
func Record(tx *gorm.DB, e Entry) error {
	row := models.AuditLog{
		BranchID:    e.BranchID,
		UserID:      e.UserID,
		UserName:    e.UserName,
		EntityType:  e.EntityType,
		EntityID:    e.EntityID,
		Action:      e.Action,
		Description: e.Description,
		BeforeData:  snapshot(e.Before),
		AfterData:   snapshot(e.After),
	}
	if err := tx.Create(&row).Error; err != nil {
		return fmt.Errorf("onay geçmişi kaydedilemedi: %w", err)
	}
	return nil
}

// History - bir kaydın kararları, eskiden yeniye
func History(db *gorm.DB, entityType string, entityID uint) ([]models.AuditLog, error) {
	var logs []models.AuditLog
	err := db.Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("created_at ASC").Order("id ASC").
		Find(&logs).Error
	return logs, err
}
