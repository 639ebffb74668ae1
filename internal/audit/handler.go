package audit

import (
	"encoding/json"
	"time"

	"vardiya-backend/internal/database"
	"vardiya-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type LogResponse struct {
	ID          uint               `json:"id"`
	CreatedAt   string             `json:"tarih"`
	BranchID    *uint              `json:"sube"`
	UserID      uint               `json:"kullanici"`
	UserName    string             `json:"kullanici_adi"`
	EntityType  string             `json:"entity_type"`
	EntityID    uint               `json:"entity_id"`
	Action      models.AuditAction `json:"action"`
	Description string             `json:"aciklama"`
	Before      json.RawMessage    `json:"onceki"`
	After       json.RawMessage    `json:"sonraki"`
}

func rawJSON(s string) json.RawMessage {
	if s == "" || !json.Valid([]byte(s)) {
		return json.RawMessage("null")
	}
	return json.RawMessage(s)
}

func toLogResponses(logs []models.AuditLog) []LogResponse {
	out := make([]LogResponse, 0, len(logs))
	for _, l := range logs {
		out = append(out, LogResponse{
			ID:          l.ID,
			CreatedAt:   l.CreatedAt.Format(time.RFC3339),
			BranchID:    l.BranchID,
			UserID:      l.UserID,
			UserName:    l.UserName,
			EntityType:  l.EntityType,
			EntityID:    l.EntityID,
			Action:      l.Action,
			Description: l.Description,
			Before:      rawJSON(l.BeforeData),
			After:       rawJSON(l.AfterData),
		})
	}
	return out
}

// GET /api/schedules/admin/onay-gecmisi/?entity_type=takas_istegi&entity_id=5
// GET /api/schedules/admin/onay-gecmisi/?kullanici=3&baslangic=2025-10-01&bitis=2025-10-31
//
// entity_type ve entity_id birlikte verilirse tek kaydın geçmişi eskiden yeniye döner.
func ListAuditLogsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		entityType := c.Query("entity_type")
		entityID := c.QueryInt("entity_id")
		if c.Query("entity_id") != "" && entityID <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz kayıt filtresi")
		}

		if entityType != "" && entityID > 0 {
			logs, err := History(database.DB, entityType, uint(entityID))
			if err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Onay geçmişi listelenemedi")
			}
			return c.JSON(toLogResponses(logs))
		}

		dbq := database.DB.Model(&models.AuditLog{})
		if entityType != "" {
			dbq = dbq.Where("entity_type = ?", entityType)
		}
		if entityID > 0 {
			dbq = dbq.Where("entity_id = ?", entityID)
		}
		if s := c.Query("kullanici"); s != "" {
			uid := c.QueryInt("kullanici")
			if uid <= 0 {
				return fiber.NewError(fiber.StatusBadRequest, "Geçersiz kullanıcı filtresi")
			}
			dbq = dbq.Where("user_id = ?", uid)
		}
		if s := c.Query("baslangic"); s != "" {
			from, err := time.ParseInLocation("2006-01-02", s, time.Local)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Geçersiz başlangıç tarihi (YYYY-AA-GG)")
			}
			dbq = dbq.Where("created_at >= ?", from)
		}
		if s := c.Query("bitis"); s != "" {
			to, err := time.ParseInLocation("2006-01-02", s, time.Local)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Geçersiz bitiş tarihi (YYYY-AA-GG)")
			}
			dbq = dbq.Where("created_at < ?", to.AddDate(0, 0, 1))
		}

		var logs []models.AuditLog
		if err := dbq.Order("created_at DESC").Order("id DESC").Limit(500).Find(&logs).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Onay geçmişi listelenemedi")
		}
		return c.JSON(toLogResponses(logs))
	}
}
