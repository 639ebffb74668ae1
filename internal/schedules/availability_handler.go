package schedules

import (
	"errors"
	"fmt"
	"strconv"

	"vardiya-backend/internal/auth"
	"vardiya-backend/internal/clock"
	"vardiya-backend/internal/database"
	"vardiya-backend/internal/httperr"
	"vardiya-backend/internal/importer"
	"vardiya-backend/internal/logger"
	"vardiya-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AvailabilityItem struct {
	Day    models.Weekday            `json:"gun"`
	Status models.AvailabilityStatus `json:"musaitlik_durumu"`
}

type SaveAvailabilityRequest struct {
	Template []AvailabilityItem `json:"sablon"`
}

type WindowRequest struct {
	Open *bool `json:"acik"`
}

// requestPeriod - ?donem= yoksa bir sonraki ay
func requestPeriod(c *fiber.Ctx) (Period, error) {
	if s := c.Query("donem"); s != "" {
		p, err := ParsePeriod(s)
		if err != nil {
			return Period{}, fiber.NewError(fiber.StatusBadRequest, "Geçersiz dönem formatı. YYYY-AA olmalı.")
		}
		return p, nil
	}
	return PeriodOf(clock.Now()).Next(), nil
}

// AvailabilityOpen - ayar hiç yazılmamışsa pencere açık sayılır
func AvailabilityOpen(db *gorm.DB) (bool, error) {
	var s models.Setting
	err := db.Where(&models.Setting{Key: models.SettingAvailabilityOpen}).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return strconv.ParseBool(s.Value)
}

func setAvailabilityOpen(db *gorm.DB, open bool) error {
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&models.Setting{Key: models.SettingAvailabilityOpen, Value: strconv.FormatBool(open)}).Error
}

// replaceAvailability - kullanıcının o dönemki şablonunu tamamen değiştirir
func replaceAvailability(tx *gorm.DB, userID uint, p Period, items []AvailabilityItem) error {
	if err := tx.Where("user_id = ? AND period = ?", userID, p.String()).Delete(&models.Availability{}).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	rows := make([]models.Availability, 0, len(items))
	for _, it := range items {
		rows = append(rows, models.Availability{UserID: userID, Period: p.String(), Day: it.Day, Status: it.Status})
	}
	return tx.Create(&rows).Error
}

// GET /api/schedules/musaitlik/?donem=2025-11
func GetAvailabilityHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.CurrentUserID(c)
		if err != nil {
			return err
		}
		p, err := requestPeriod(c)
		if err != nil {
			return err
		}

		var list []models.Availability
		if err := database.DB.Where("user_id = ? AND period = ?", userID, p.String()).
			Order("day ASC").Find(&list).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Müsaitlik bilgisi alınamadı")
		}

		res := make([]AvailabilityItem, 0, len(list))
		for _, a := range list {
			res = append(res, AvailabilityItem{Day: a.Day, Status: a.Status})
		}
		return c.JSON(res)
	}
}

// POST /api/schedules/musaitlik/?donem=2025-11 {"sablon": [{"gun": 1, "musaitlik_durumu": "musait"}]}
func SaveAvailabilityHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.CurrentUserID(c)
		if err != nil {
			return err
		}
		p, err := requestPeriod(c)
		if err != nil {
			return err
		}

		if !auth.IsAdmin(c) {
			open, err := AvailabilityOpen(database.DB)
			if err != nil {
				return httperr.From(err)
			}
			if !open {
				return fiber.NewError(fiber.StatusForbidden, "Müsaitlik girişi şu anda kapalı.")
			}
		}

		var body SaveAvailabilityRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri gönderildi")
		}

		seen := make(map[models.Weekday]bool)
		for _, it := range body.Template {
			if !it.Day.Valid() {
				return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("Geçersiz gün: %d", it.Day))
			}
			if !it.Status.Valid() {
				return fiber.NewError(fiber.StatusBadRequest, "Geçersiz müsaitlik durumu: "+string(it.Status))
			}
			if seen[it.Day] {
				return fiber.NewError(fiber.StatusBadRequest, "Aynı gün birden fazla kez gönderildi.")
			}
			seen[it.Day] = true
		}

		if err := database.DB.Transaction(func(tx *gorm.DB) error {
			return replaceAvailability(tx, userID, p, body.Template)
		}); err != nil {
			return httperr.From(err)
		}

		return c.JSON(fiber.Map{"mesaj": fmt.Sprintf("%s dönemi için müsaitlik bilgileriniz kaydedildi.", p)})
	}
}

// GET /api/schedules/musaitlik/durum/
func GetAvailabilityWindowHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		open, err := AvailabilityOpen(database.DB)
		if err != nil {
			return httperr.From(err)
		}
		return c.JSON(fiber.Map{"acik": open})
	}
}

// POST /api/schedules/musaitlik/durum/ {"acik": false}
func SetAvailabilityWindowHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body WindowRequest
		if err := c.BodyParser(&body); err != nil || body.Open == nil {
			return fiber.NewError(fiber.StatusBadRequest, `"acik" alanı true veya false olmalı`)
		}

		if err := setAvailabilityOpen(database.DB, *body.Open); err != nil {
			return httperr.From(err)
		}

		logger.Log.WithField("acik", *body.Open).Info("müsaitlik penceresi güncellendi")
		msg := "Müsaitlik girişi kapatıldı."
		if *body.Open {
			msg = "Müsaitlik girişi açıldı."
		}
		return c.JSON(fiber.Map{"mesaj": msg, "acik": *body.Open})
	}
}

// POST /api/schedules/musaitlik/toplu-ice-aktar/?donem=2025-11 (xlsx: username, gun, durum)
func ImportAvailabilityHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := requestPeriod(c)
		if err != nil {
			return err
		}

		rows, err := importer.ReadUpload(c)
		if err != nil {
			return err
		}
		parsed, problems := importer.ParseAvailability(rows)
		if problems == nil {
			problems = []string{}
		}

		// kullanıcı başına şablon; aynı gün tekrar ederse son satır geçerli
		byUser := make(map[string]map[models.Weekday]models.AvailabilityStatus)
		order := []string{}
		for _, r := range parsed {
			if byUser[r.Username] == nil {
				byUser[r.Username] = make(map[models.Weekday]models.AvailabilityStatus)
				order = append(order, r.Username)
			}
			byUser[r.Username][r.Day] = r.Status
		}

		updatedUsers, imported := 0, 0
		err = database.DB.Transaction(func(tx *gorm.DB) error {
			for _, username := range order {
				var user models.User
				if err := tx.Select("id").Where("username = ?", username).First(&user).Error; err != nil {
					if errors.Is(err, gorm.ErrRecordNotFound) {
						problems = append(problems, fmt.Sprintf("Kullanıcı bulunamadı: %s", username))
						continue
					}
					return err
				}

				items := make([]AvailabilityItem, 0, len(byUser[username]))
				for d := models.Pazartesi; d <= models.Pazar; d++ {
					if st, ok := byUser[username][d]; ok {
						items = append(items, AvailabilityItem{Day: d, Status: st})
					}
				}
				if err := replaceAvailability(tx, user.ID, p, items); err != nil {
					return err
				}
				updatedUsers++
				imported += len(items)
			}
			return nil
		})
		if err != nil {
			return httperr.From(err)
		}

		logger.Log.WithFields(logrus.Fields{"donem": p.String(), "kullanici": updatedUsers, "kayit": imported}).Info("müsaitlik içe aktarımı")
		return c.JSON(fiber.Map{
			"mesaj":     fmt.Sprintf("%s dönemi müsaitlik içe aktarımı tamamlandı.", p),
			"eklenen":   imported,
			"kullanici": updatedUsers,
			"hatalar":   problems,
		})
	}
}
