package schedules

import (
	"errors"
	"math"
	"strings"
	"time"

	"vardiya-backend/internal/auth"
	"vardiya-backend/internal/clock"
	"vardiya-backend/internal/config"
	"vardiya-backend/internal/database"
	"vardiya-backend/internal/httperr"
	"vardiya-backend/internal/logger"
	"vardiya-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var knownShiftStatuses = map[models.ShiftStatus]bool{
	models.ShiftDraft:         true,
	models.ShiftPlanned:       true,
	models.ShiftStarted:       true,
	models.ShiftCompleted:     true,
	models.ShiftCancelled:     true,
	models.ShiftCancelPending: true,
}

// ActiveShiftStatuses - "vardiyalarım" sayfasında bugünden itibaren gösterilenler
var ActiveShiftStatuses = []models.ShiftStatus{
	models.ShiftDraft,
	models.ShiftPlanned,
	models.ShiftCancelPending,
	models.ShiftStarted,
}

type ControlRequest struct {
	Action  string `json:"action"`
	QRToken string `json:"qr_token"`
}

func parseDate(s string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", s, time.Local)
}

func shiftID(c *fiber.Ctx) (uint, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Geçersiz vardiya ID")
	}
	return uint(id), nil
}

// GET /api/schedules/vardiyalar/?durum=planlandi,taslak&sube=1&calisan=2&baslangic=2025-11-01&bitis=2025-11-30
func ListShiftsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Preload("Branch").Preload("Employee", func(db *gorm.DB) *gorm.DB { return db.Unscoped() })

		if durum := c.Query("durum"); durum != "" {
			var statuses []models.ShiftStatus
			for _, part := range strings.Split(durum, ",") {
				st := models.ShiftStatus(strings.TrimSpace(part))
				if !knownShiftStatuses[st] {
					return fiber.NewError(fiber.StatusBadRequest, "Geçersiz vardiya durumu: "+string(st))
				}
				statuses = append(statuses, st)
			}
			dbq = dbq.Where("status IN ?", statuses)
		} else {
			dbq = dbq.Where("status <> ?", models.ShiftCancelled)
		}

		if sube := c.QueryInt("sube"); sube > 0 {
			dbq = dbq.Where("branch_id = ?", sube)
		}
		if calisan := c.QueryInt("calisan"); calisan > 0 {
			dbq = dbq.Where("employee_id = ?", calisan)
		}
		if s := c.Query("baslangic"); s != "" {
			from, err := parseDate(s)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Geçersiz başlangıç tarihi (YYYY-AA-GG)")
			}
			dbq = dbq.Where("starts_at >= ?", from)
		}
		if s := c.Query("bitis"); s != "" {
			to, err := parseDate(s)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Geçersiz bitiş tarihi (YYYY-AA-GG)")
			}
			dbq = dbq.Where("starts_at < ?", to.AddDate(0, 0, 1))
		}

		var shifts []models.Shift
		if err := dbq.Order("starts_at ASC").Order("id ASC").Find(&shifts).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Vardiyalar listelenemedi")
		}

		res, err := serializeShifts(database.DB, shifts)
		if err != nil {
			return httperr.From(err)
		}
		return c.JSON(res)
	}
}

// GET /api/schedules/vardiyalarim/ - bugünden itibaren aktif vardiyalar ve son 7 günün tamamlananları
func MyShiftsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.CurrentUserID(c)
		if err != nil {
			return err
		}

		now := clock.Now()
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

		var shifts []models.Shift
		if err := database.DB.Preload("Branch").Preload("Employee").
			Where("employee_id = ?", userID).
			Where(database.DB.
				Where("status IN ? AND ends_at >= ?", ActiveShiftStatuses, today).
				Or("status = ? AND starts_at >= ?", models.ShiftCompleted, now.AddDate(0, 0, -7))).
			Order("starts_at ASC").
			Find(&shifts).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Vardiyalar listelenemedi")
		}

		res, err := serializeShifts(database.DB, shifts)
		if err != nil {
			return httperr.From(err)
		}
		return c.JSON(res)
	}
}

// POST /api/schedules/vardiyalar/:id/kontrol/ {"action": "baslat"|"bitir", "qr_token": "..."}
func ControlShiftHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.CurrentUserID(c)
		if err != nil {
			return err
		}
		id, err := shiftID(c)
		if err != nil {
			return err
		}

		var body ControlRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri gönderildi")
		}

		var shift models.Shift
		if err := database.DB.Preload("Branch").
			Where("id = ? AND employee_id = ?", id, userID).
			First(&shift).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "Vardiya bulunamadı.")
			}
			return httperr.From(err)
		}

		if body.QRToken == "" || body.QRToken != shift.Branch.QRToken {
			return fiber.NewError(fiber.StatusBadRequest, "QR kod şube ile eşleşmiyor!")
		}

		now := clock.Now()
		log := logger.Log.WithFields(logrus.Fields{"shift_id": shift.ID, "user_id": userID})

		switch body.Action {
		case "baslat":
			if shift.Status != models.ShiftPlanned {
				return fiber.NewError(fiber.StatusBadRequest, "Bu vardiya başlatılamaz.")
			}
			if now.Before(shift.StartsAt.Add(-cfg.EarlyStart)) {
				return fiber.NewError(fiber.StatusBadRequest, "Vardiya başlama saati henüz gelmedi.")
			}

			res := database.DB.Model(&models.Shift{}).
				Where("id = ? AND status = ?", shift.ID, models.ShiftPlanned).
				Updates(map[string]any{"status": models.ShiftStarted, "started_at": now})
			if res.Error != nil {
				return httperr.From(res.Error)
			}
			if res.RowsAffected == 0 {
				return fiber.NewError(fiber.StatusConflict, "Vardiya durumu değişti, sayfayı yenileyin.")
			}

			log.Info("vardiya başlatıldı")
			return c.JSON(fiber.Map{
				"mesaj":            "Vardiya başarıyla başlatıldı!",
				"baslangic_zamani": now,
			})

		case "bitir":
			if shift.Status != models.ShiftStarted {
				return fiber.NewError(fiber.StatusBadRequest, "Vardiya henüz başlatılmadı.")
			}

			res := database.DB.Model(&models.Shift{}).
				Where("id = ? AND status = ?", shift.ID, models.ShiftStarted).
				Updates(map[string]any{"status": models.ShiftCompleted, "finished_at": now})
			if res.Error != nil {
				return httperr.From(res.Error)
			}
			if res.RowsAffected == 0 {
				return fiber.NewError(fiber.StatusConflict, "Vardiya durumu değişti, sayfayı yenileyin.")
			}

			started := shift.StartsAt
			if shift.StartedAt != nil {
				started = *shift.StartedAt
			}
			hours := math.Round(now.Sub(started).Hours()*100) / 100

			log.WithField("saat", hours).Info("vardiya tamamlandı")
			return c.JSON(fiber.Map{
				"mesaj":          "Vardiya başarıyla tamamlandı!",
				"bitis_zamani":   now,
				"calisilan_sure": hours,
			})
		}

		return fiber.NewError(fiber.StatusBadRequest, "Geçersiz işlem.")
	}
}

// GET /api/schedules/vardiyalar/:id/uygun-calisanlar/
func EligibleEmployeesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := shiftID(c)
		if err != nil {
			return err
		}

		var shift models.Shift
		if err := database.DB.First(&shift, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "Vardiya bulunamadı.")
			}
			return httperr.From(err)
		}

		list, err := EligibleEmployees(database.DB, &shift)
		if err != nil {
			return httperr.From(err)
		}
		return c.JSON(toEmployeeOptions(list))
	}
}
