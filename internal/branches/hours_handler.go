package branches

import (
	"errors"
	"strings"
	"time"

	"vardiya-backend/internal/database"
	"vardiya-backend/internal/httperr"
	"vardiya-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type HoursResponse struct {
	ID         uint           `json:"id"`
	BranchID   uint           `json:"sube"`
	BranchName string         `json:"sube_adi"`
	Day        models.Weekday `json:"gun"`
	DayName    string         `json:"gun_adi"`
	OpensAt    *string        `json:"acilis_saati"`
	ClosesAt   *string        `json:"kapanis_saati"`
	Closed     bool           `json:"kapali"`
}

type HoursRequest struct {
	BranchID uint           `json:"sube"`
	Day      models.Weekday `json:"gun"`
	OpensAt  *string        `json:"acilis_saati"`
	ClosesAt *string        `json:"kapanis_saati"`
	Closed   bool           `json:"kapali"`
}

func toHoursResponse(h *models.BranchHours) HoursResponse {
	return HoursResponse{
		ID:         h.ID,
		BranchID:   h.BranchID,
		BranchName: h.Branch.Name,
		Day:        h.Day,
		DayName:    h.Day.Name(),
		OpensAt:    h.OpensAt,
		ClosesAt:   h.ClosesAt,
		Closed:     h.Closed,
	}
}

// normalizeHHMM - "9:00" ve "09:00:00" kabul edilir, "09:00" saklanır
func normalizeHHMM(s string) (string, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("15:04"), true
		}
	}
	return "", false
}

// validate - kapalı günde saatler temizlenir, açık günde ikisi de zorunlu
func (r *HoursRequest) validate() error {
	if r.BranchID == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "Şube seçilmeli")
	}
	if !r.Day.Valid() {
		return fiber.NewError(fiber.StatusBadRequest, "Gün 1 (Pazartesi) ile 7 (Pazar) arasında olmalı")
	}
	if r.Closed {
		r.OpensAt, r.ClosesAt = nil, nil
		return nil
	}
	if r.OpensAt == nil || r.ClosesAt == nil || *r.OpensAt == "" || *r.ClosesAt == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Açık günler için açılış ve kapanış saati zorunlu")
	}
	opens, ok1 := normalizeHHMM(*r.OpensAt)
	closes, ok2 := normalizeHHMM(*r.ClosesAt)
	if !ok1 || !ok2 {
		return fiber.NewError(fiber.StatusBadRequest, "Saatler SS:DD formatında olmalı")
	}
	r.OpensAt, r.ClosesAt = &opens, &closes
	return nil
}

func dayTaken(branchID uint, day models.Weekday, exceptID uint) (bool, error) {
	var count int64
	err := database.DB.Model(&models.BranchHours{}).
		Where("branch_id = ? AND day = ? AND id <> ?", branchID, day, exceptID).
		Count(&count).Error
	return count > 0, err
}

func branchExists(id uint) error {
	var branch models.Branch
	if err := database.DB.Select("id").First(&branch, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusBadRequest, "Şube bulunamadı")
		}
		return httperr.From(err)
	}
	return nil
}

// GET /api/subeler/calisma-saatleri/?sube=3
func ListHoursHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Preload("Branch")
		if sube := c.QueryInt("sube"); sube > 0 {
			dbq = dbq.Where("branch_id = ?", sube)
		}

		var hours []models.BranchHours
		if err := dbq.Order("branch_id ASC").Order("day ASC").Find(&hours).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Çalışma saatleri listelenemedi")
		}

		res := make([]HoursResponse, 0, len(hours))
		for i := range hours {
			res = append(res, toHoursResponse(&hours[i]))
		}
		return c.JSON(res)
	}
}

func CreateHoursHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body HoursRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri gönderildi")
		}
		if err := body.validate(); err != nil {
			return err
		}
		if err := branchExists(body.BranchID); err != nil {
			return err
		}

		taken, err := dayTaken(body.BranchID, body.Day, 0)
		if err != nil {
			return httperr.From(err)
		}
		if taken {
			return fiber.NewError(fiber.StatusBadRequest, "Bu şube için bu günün saati zaten tanımlı")
		}

		hours := models.BranchHours{
			BranchID: body.BranchID,
			Day:      body.Day,
			OpensAt:  body.OpensAt,
			ClosesAt: body.ClosesAt,
			Closed:   body.Closed,
		}
		if err := database.DB.Create(&hours).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Çalışma saati kaydedilemedi")
		}
		if err := database.DB.Preload("Branch").First(&hours, hours.ID).Error; err != nil {
			return httperr.From(err)
		}

		return c.Status(fiber.StatusCreated).JSON(toHoursResponse(&hours))
	}
}

func UpdateHoursHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz ID")
		}

		var hours models.BranchHours
		if err := database.DB.First(&hours, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Çalışma saati bulunamadı")
		}

		body := HoursRequest{BranchID: hours.BranchID, Day: hours.Day, OpensAt: hours.OpensAt, ClosesAt: hours.ClosesAt, Closed: hours.Closed}
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri gönderildi")
		}
		if err := body.validate(); err != nil {
			return err
		}
		if err := branchExists(body.BranchID); err != nil {
			return err
		}

		taken, err := dayTaken(body.BranchID, body.Day, hours.ID)
		if err != nil {
			return httperr.From(err)
		}
		if taken {
			return fiber.NewError(fiber.StatusBadRequest, "Bu şube için bu günün saati zaten tanımlı")
		}

		hours.BranchID = body.BranchID
		hours.Day = body.Day
		hours.OpensAt = body.OpensAt
		hours.ClosesAt = body.ClosesAt
		hours.Closed = body.Closed
		if err := database.DB.Save(&hours).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Çalışma saati güncellenemedi")
		}
		if err := database.DB.Preload("Branch").First(&hours, hours.ID).Error; err != nil {
			return httperr.From(err)
		}

		return c.JSON(toHoursResponse(&hours))
	}
}

func DeleteHoursHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz ID")
		}

		res := database.DB.Delete(&models.BranchHours{}, id)
		if res.Error != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Çalışma saati silinemedi")
		}
		if res.RowsAffected == 0 {
			return fiber.NewError(fiber.StatusNotFound, "Çalışma saati bulunamadı")
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
