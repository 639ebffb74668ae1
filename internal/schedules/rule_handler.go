package schedules

import (
	"errors"

	"vardiya-backend/internal/database"
	"vardiya-backend/internal/httperr"
	"vardiya-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type PreferenceResponse struct {
	ID         uint           `json:"id"`
	UserID     uint           `json:"calisan"`
	UserName   string         `json:"calisan_adi"`
	BranchID   uint           `json:"sube"`
	BranchName string         `json:"sube_adi"`
	Day        models.Weekday `json:"gun"`
	DayName    string         `json:"gun_adi"`
}

type PreferenceRequest struct {
	UserID   uint           `json:"calisan"`
	BranchID uint           `json:"sube"`
	Day      models.Weekday `json:"gun"`
}

type RuleResponse struct {
	ID               uint                 `json:"id"`
	BranchID         uint                 `json:"sube"`
	BranchName       string               `json:"sube_adi"`
	Condition        models.RuleCondition `json:"sart"`
	ConditionDisplay string               `json:"sart_display"`
	StartsAt         string               `json:"baslangic_saati"`
}

type RuleRequest struct {
	BranchID  uint                 `json:"sube"`
	Condition models.RuleCondition `json:"sart"`
	StartsAt  string               `json:"baslangic_saati"`
}

func toPreferenceResponse(p *models.Preference) PreferenceResponse {
	return PreferenceResponse{
		ID:         p.ID,
		UserID:     p.UserID,
		UserName:   p.User.FullName(),
		BranchID:   p.BranchID,
		BranchName: p.Branch.Name,
		Day:        p.Day,
		DayName:    p.Day.Name(),
	}
}

func toRuleResponse(r *models.RestrictionRule) RuleResponse {
	return RuleResponse{
		ID:               r.ID,
		BranchID:         r.BranchID,
		BranchName:       r.Branch.Name,
		Condition:        r.Condition,
		ConditionDisplay: r.Condition.Display(),
		StartsAt:         r.StartsAt,
	}
}

func paramID(c *fiber.Ctx) (uint, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Geçersiz ID")
	}
	return uint(id), nil
}

func mustExist(model any, id uint, msg string) error {
	if err := database.DB.Select("id").First(model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusBadRequest, msg)
		}
		return httperr.From(err)
	}
	return nil
}

func (r *PreferenceRequest) validate() error {
	if !r.Day.Valid() {
		return fiber.NewError(fiber.StatusBadRequest, "Gün 1 (Pazartesi) ile 7 (Pazar) arasında olmalı")
	}
	if err := mustExist(&models.User{}, r.UserID, "Çalışan bulunamadı"); err != nil {
		return err
	}
	return mustExist(&models.Branch{}, r.BranchID, "Şube bulunamadı")
}

func (r *RuleRequest) validate() error {
	if !r.Condition.Valid() {
		return fiber.NewError(fiber.StatusBadRequest, "Şart cinsiyet_kadin veya cinsiyet_erkek olmalı")
	}
	start, err := NormalizeClock(r.StartsAt)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Başlangıç saati SS:DD formatında olmalı")
	}
	r.StartsAt = start
	return mustExist(&models.Branch{}, r.BranchID, "Şube bulunamadı")
}

// ----------------------------------------
// ÇALIŞAN TERCİHLERİ
// ----------------------------------------

func loadPreference(id uint) (*models.Preference, error) {
	var p models.Preference
	if err := database.DB.Preload("User").Preload("Branch").First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "Tercih bulunamadı")
		}
		return nil, httperr.From(err)
	}
	return &p, nil
}

// GET /api/schedules/tercihler/?calisan=3
func ListPreferencesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Preload("User").Preload("Branch")
		if calisan := c.QueryInt("calisan"); calisan > 0 {
			dbq = dbq.Where("user_id = ?", calisan)
		}

		var list []models.Preference
		if err := dbq.Order("user_id ASC").Order("day ASC").Find(&list).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Tercihler listelenemedi")
		}

		res := make([]PreferenceResponse, 0, len(list))
		for i := range list {
			res = append(res, toPreferenceResponse(&list[i]))
		}
		return c.JSON(res)
	}
}

func GetPreferenceHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c)
		if err != nil {
			return err
		}
		p, err := loadPreference(id)
		if err != nil {
			return err
		}
		return c.JSON(toPreferenceResponse(p))
	}
}

func CreatePreferenceHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body PreferenceRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri gönderildi")
		}
		if err := body.validate(); err != nil {
			return err
		}

		pref := models.Preference{UserID: body.UserID, BranchID: body.BranchID, Day: body.Day}
		if err := database.DB.Create(&pref).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Tercih kaydedilemedi")
		}

		p, err := loadPreference(pref.ID)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(toPreferenceResponse(p))
	}
}

func UpdatePreferenceHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c)
		if err != nil {
			return err
		}
		pref, err := loadPreference(id)
		if err != nil {
			return err
		}

		body := PreferenceRequest{UserID: pref.UserID, BranchID: pref.BranchID, Day: pref.Day}
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri gönderildi")
		}
		if err := body.validate(); err != nil {
			return err
		}

		if err := database.DB.Model(&models.Preference{}).Where("id = ?", id).
			Updates(map[string]any{"user_id": body.UserID, "branch_id": body.BranchID, "day": body.Day}).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Tercih güncellenemedi")
		}

		p, err := loadPreference(id)
		if err != nil {
			return err
		}
		return c.JSON(toPreferenceResponse(p))
	}
}

func DeletePreferenceHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c)
		if err != nil {
			return err
		}
		res := database.DB.Delete(&models.Preference{}, id)
		if res.Error != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Tercih silinemedi")
		}
		if res.RowsAffected == 0 {
			return fiber.NewError(fiber.StatusNotFound, "Tercih bulunamadı")
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// ----------------------------------------
// KISITLAMA KURALLARI
// ----------------------------------------

func loadRule(id uint) (*models.RestrictionRule, error) {
	var r models.RestrictionRule
	if err := database.DB.Preload("Branch").First(&r, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "Kural bulunamadı")
		}
		return nil, httperr.From(err)
	}
	return &r, nil
}

// GET /api/schedules/kurallar/?sube=1
func ListRulesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Preload("Branch")
		if sube := c.QueryInt("sube"); sube > 0 {
			dbq = dbq.Where("branch_id = ?", sube)
		}

		var list []models.RestrictionRule
		if err := dbq.Order("branch_id ASC").Order("starts_at ASC").Find(&list).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kurallar listelenemedi")
		}

		res := make([]RuleResponse, 0, len(list))
		for i := range list {
			res = append(res, toRuleResponse(&list[i]))
		}
		return c.JSON(res)
	}
}

func GetRuleHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c)
		if err != nil {
			return err
		}
		r, err := loadRule(id)
		if err != nil {
			return err
		}
		return c.JSON(toRuleResponse(r))
	}
}

func CreateRuleHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body RuleRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri gönderildi")
		}
		if err := body.validate(); err != nil {
			return err
		}

		rule := models.RestrictionRule{BranchID: body.BranchID, Condition: body.Condition, StartsAt: body.StartsAt}
		if err := database.DB.Create(&rule).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kural kaydedilemedi")
		}

		r, err := loadRule(rule.ID)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(toRuleResponse(r))
	}
}

func UpdateRuleHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c)
		if err != nil {
			return err
		}
		rule, err := loadRule(id)
		if err != nil {
			return err
		}

		body := RuleRequest{BranchID: rule.BranchID, Condition: rule.Condition, StartsAt: rule.StartsAt}
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri gönderildi")
		}
		if err := body.validate(); err != nil {
			return err
		}

		if err := database.DB.Model(&models.RestrictionRule{}).Where("id = ?", id).
			Updates(map[string]any{"branch_id": body.BranchID, "condition": body.Condition, "starts_at": body.StartsAt}).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kural güncellenemedi")
		}

		r, err := loadRule(id)
		if err != nil {
			return err
		}
		return c.JSON(toRuleResponse(r))
	}
}

func DeleteRuleHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c)
		if err != nil {
			return err
		}
		res := database.DB.Delete(&models.RestrictionRule{}, id)
		if res.Error != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kural silinemedi")
		}
		if res.RowsAffected == 0 {
			return fiber.NewError(fiber.StatusNotFound, "Kural bulunamadı")
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
