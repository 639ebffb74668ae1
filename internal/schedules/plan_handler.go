package schedules

import (
	"fmt"
	"time"

	"vardiya-backend/internal/audit"
	"vardiya-backend/internal/auth"
	"vardiya-backend/internal/database"
	"vardiya-backend/internal/httperr"
	"vardiya-backend/internal/logger"
	"vardiya-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type PlanRequest struct {
	Period string `json:"donem"`
}

type PlanResult struct {
	Message    string `json:"mesaj"`
	Created    int    `json:"olusturulan"`
	Unassigned int    `json:"atanamayan"`
}

// loadPlanInput - taslaklar silindikten sonra aynı transaction içinde okunur
func loadPlanInput(tx *gorm.DB, p Period, loc *time.Location) (PlanInput, error) {
	in := PlanInput{
		Period:       p,
		Location:     loc,
		Availability: make(map[uint]map[models.Weekday]models.AvailabilityStatus),
		Preferences:  make(map[PreferenceKey]bool),
		Rules:        make(map[uint][]models.RestrictionRule),
		Covered:      make(map[SlotKey]bool),
	}

	if err := tx.Preload("Hours").Order("id ASC").Find(&in.Branches).Error; err != nil {
		return in, err
	}
	if err := tx.Where("role = ? AND is_active = ?", models.RoleCalisan, true).
		Order("id ASC").Find(&in.Employees).Error; err != nil {
		return in, err
	}

	var avail []models.Availability
	if err := tx.Where("period = ?", p.String()).Find(&avail).Error; err != nil {
		return in, err
	}
	for _, a := range avail {
		if in.Availability[a.UserID] == nil {
			in.Availability[a.UserID] = make(map[models.Weekday]models.AvailabilityStatus)
		}
		in.Availability[a.UserID][a.Day] = a.Status
	}

	var prefs []models.Preference
	if err := tx.Find(&prefs).Error; err != nil {
		return in, err
	}
	for _, pr := range prefs {
		in.Preferences[PreferenceKey{UserID: pr.UserID, BranchID: pr.BranchID, Day: pr.Day}] = true
	}

	var rules []models.RestrictionRule
	if err := tx.Find(&rules).Error; err != nil {
		return in, err
	}
	for _, r := range rules {
		in.Rules[r.BranchID] = append(in.Rules[r.BranchID], r)
	}

	// gece yarısını geçen vardiyalar için dönemin bir gün öncesi ve sonrası da dahil
	from := p.Start(loc).AddDate(0, 0, -1)
	to := p.End(loc).AddDate(0, 0, 1)
	if err := tx.Where("employee_id IS NOT NULL AND status IN ?", models.BusyShiftStatuses).
		Where("starts_at < ? AND ends_at > ?", to, from).
		Find(&in.Busy).Error; err != nil {
		return in, err
	}

	// yayınlanmış ya da işlenmiş vardiyanın aralığına ikinci vardiya üretilmez
	var kept []models.Shift
	if err := tx.Select("branch_id", "starts_at").
		Where("status NOT IN ?", []models.ShiftStatus{models.ShiftDraft, models.ShiftCancelled}).
		Where("starts_at >= ? AND starts_at < ?", p.Start(loc), p.End(loc)).
		Find(&kept).Error; err != nil {
		return in, err
	}
	for _, s := range kept {
		in.Covered[slotKeyOf(s.BranchID, s.StartsAt)] = true
	}
	return in, nil
}

// GeneratePlan - dönemin taslaklarını silip yeniden üretir; planlanmış vardiyalara dokunmaz
func GeneratePlan(admin *models.User, p Period) (*PlanResult, error) {
	loc := time.Local
	start, end := p.Start(loc), p.End(loc)
	var result PlanResult

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var draftIDs []uint
		if err := tx.Model(&models.Shift{}).
			Where("status = ? AND starts_at >= ? AND starts_at < ?", models.ShiftDraft, start, end).
			Pluck("id", &draftIDs).Error; err != nil {
			return err
		}
		if len(draftIDs) > 0 {
			if err := tx.Where("requester_shift_id IN ? OR target_shift_id IN ?", draftIDs, draftIDs).
				Delete(&models.TradeRequest{}).Error; err != nil {
				return err
			}
			if err := tx.Where("shift_id IN ?", draftIDs).Delete(&models.CancelRequest{}).Error; err != nil {
				return err
			}
			if err := tx.Where("id IN ?", draftIDs).Delete(&models.Shift{}).Error; err != nil {
				return err
			}
		}

		in, err := loadPlanInput(tx, p, loc)
		if err != nil {
			return err
		}
		planned := BuildPlan(in)

		shifts := make([]models.Shift, 0, len(planned))
		for _, ps := range planned {
			if ps.EmployeeID == nil {
				result.Unassigned++
			}
			shifts = append(shifts, models.Shift{
				BranchID:   ps.BranchID,
				EmployeeID: ps.EmployeeID,
				StartsAt:   ps.StartsAt,
				EndsAt:     ps.EndsAt,
				Status:     models.ShiftDraft,
			})
		}
		if len(shifts) > 0 {
			if err := tx.CreateInBatches(&shifts, 200).Error; err != nil {
				return err
			}
		}
		result.Created = len(shifts)

		return audit.Record(tx, audit.Entry{
			UserID:      admin.ID,
			UserName:    admin.FullName(),
			EntityType:  models.EntityPlan,
			Action:      models.AuditActionGenerate,
			Description: fmt.Sprintf("%s dönemi planı oluşturuldu", p),
			Before:      map[string]any{"silinen_taslak": len(draftIDs)},
			After:       map[string]any{"olusturulan": result.Created, "atanamayan": result.Unassigned},
		})
	})
	if err != nil {
		return nil, err
	}

	result.Message = fmt.Sprintf("%s dönemi için plan başarıyla oluşturuldu.", p)
	logger.Log.WithFields(logrus.Fields{
		"donem":       p.String(),
		"olusturulan": result.Created,
		"atanamayan":  result.Unassigned,
	}).Info("plan oluşturuldu")
	return &result, nil
}

// PublishPlan - çalışanı atanmış taslakları planlandı yapar
func PublishPlan(admin *models.User, p Period) (int64, error) {
	loc := time.Local
	var published int64
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Shift{}).
			Where("status = ? AND employee_id IS NOT NULL", models.ShiftDraft).
			Where("starts_at >= ? AND starts_at < ?", p.Start(loc), p.End(loc)).
			Update("status", models.ShiftPlanned)
		if res.Error != nil {
			return res.Error
		}
		published = res.RowsAffected

		return audit.Record(tx, audit.Entry{
			UserID:      admin.ID,
			UserName:    admin.FullName(),
			EntityType:  models.EntityPlan,
			Action:      models.AuditActionPublish,
			Description: fmt.Sprintf("%s dönemi planı yayınlandı", p),
			After:       map[string]any{"yayinlanan": published},
		})
	})
	return published, err
}

func parsePlanRequest(c *fiber.Ctx) (Period, error) {
	var body PlanRequest
	if err := c.BodyParser(&body); err != nil {
		return Period{}, fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri gönderildi")
	}
	if body.Period == "" {
		return Period{}, fiber.NewError(fiber.StatusBadRequest, "Dönem (YYYY-AA) gönderilmeli.")
	}
	p, err := ParsePeriod(body.Period)
	if err != nil {
		return Period{}, fiber.NewError(fiber.StatusBadRequest, "Geçersiz dönem formatı. YYYY-AA olmalı.")
	}
	return p, nil
}

// POST /api/schedules/plan-olustur/ {"donem": "2025-11"}
func GeneratePlanHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		admin, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}
		p, err := parsePlanRequest(c)
		if err != nil {
			return err
		}

		res, err := GeneratePlan(admin, p)
		if err != nil {
			return httperr.From(err)
		}
		return c.JSON(res)
	}
}

// POST /api/schedules/plan-yayinla/ {"donem": "2025-11"}
func PublishPlanHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		admin, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}
		p, err := parsePlanRequest(c)
		if err != nil {
			return err
		}

		n, err := PublishPlan(admin, p)
		if err != nil {
			return httperr.From(err)
		}
		return c.JSON(fiber.Map{
			"mesaj":      fmt.Sprintf("%s dönemi planı yayınlandı.", p),
			"yayinlanan": n,
		})
	}
}
