package schedules

import (
	"math"
	"sort"
	"time"

	"vardiya-backend/internal/clock"
	"vardiya-backend/internal/database"
	"vardiya-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

const topPerformers = 10

type GeneralStats struct {
	Total          int     `json:"toplam_vardiya"`
	Completed      int     `json:"tamamlanan_vardiya"`
	Cancelled      int     `json:"iptal_edilen"`
	CompletionRate float64 `json:"tamamlanma_orani"`
}

type EmployeePerformance struct {
	ID        uint    `json:"calisan__id"`
	FirstName string  `json:"calisan__first_name"`
	LastName  string  `json:"calisan__last_name"`
	Shifts    int     `json:"toplam_vardiya"`
	Hours     float64 `json:"toplam_saat"`
}

type BranchStats struct {
	Name      string `json:"sube__sube_adi"`
	ID        uint   `json:"sube__id"`
	Total     int    `json:"toplam_vardiya"`
	Completed int    `json:"tamamlanan"`
	Cancelled int    `json:"iptal"`
}

type MonthlyTrend struct {
	Month     string `json:"ay"` // "2025-11-01"
	Total     int    `json:"toplam"`
	Completed int    `json:"tamamlanan"`
}

type PendingCounts struct {
	Trades  int64 `json:"takas"`
	Cancels int64 `json:"iptal"`
}

type StatsResponse struct {
	General     GeneralStats          `json:"genel"`
	Performance []EmployeePerformance `json:"calisan_performans"`
	Branches    []BranchStats         `json:"sube_istatistik"`
	Monthly     []MonthlyTrend        `json:"aylik_trend"`
	Pending     PendingCounts         `json:"bekleyen_islemler"`
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ComputeStats - Branch ve Employee preload edilmiş vardiyalardan özet çıkarır.
// Saat hesabı sadece QR ile başlatılıp bitirilmiş tamamlanan vardiyalardan yapılır.
func ComputeStats(shifts []models.Shift) StatsResponse {
	res := StatsResponse{
		Performance: []EmployeePerformance{},
		Branches:    []BranchStats{},
		Monthly:     []MonthlyTrend{},
	}

	perf := make(map[uint]*EmployeePerformance)
	branches := make(map[uint]*BranchStats)
	months := make(map[string]*MonthlyTrend)

	for i := range shifts {
		s := &shifts[i]
		completed := s.Status == models.ShiftCompleted
		cancelled := s.Status == models.ShiftCancelled

		res.General.Total++
		if completed {
			res.General.Completed++
		}
		if cancelled {
			res.General.Cancelled++
		}

		b, ok := branches[s.BranchID]
		if !ok {
			b = &BranchStats{ID: s.BranchID, Name: s.Branch.Name}
			branches[s.BranchID] = b
		}
		b.Total++
		if completed {
			b.Completed++
		}
		if cancelled {
			b.Cancelled++
		}

		key := s.StartsAt.Format("2006-01") + "-01"
		m, ok := months[key]
		if !ok {
			m = &MonthlyTrend{Month: key}
			months[key] = m
		}
		m.Total++
		if completed {
			m.Completed++
		}

		if !completed || s.EmployeeID == nil || s.StartedAt == nil || s.FinishedAt == nil {
			continue
		}
		p, ok := perf[*s.EmployeeID]
		if !ok {
			p = &EmployeePerformance{ID: *s.EmployeeID}
			if s.Employee != nil {
				p.FirstName = s.Employee.FirstName
				p.LastName = s.Employee.LastName
			}
			perf[*s.EmployeeID] = p
		}
		p.Shifts++
		p.Hours += s.FinishedAt.Sub(*s.StartedAt).Hours()
	}

	if res.General.Total > 0 {
		res.General.CompletionRate = round2(float64(res.General.Completed) / float64(res.General.Total) * 100)
	}

	for _, p := range perf {
		p.Hours = round2(p.Hours)
		res.Performance = append(res.Performance, *p)
	}
	sort.Slice(res.Performance, func(i, j int) bool {
		a, b := res.Performance[i], res.Performance[j]
		if a.Hours != b.Hours {
			return a.Hours > b.Hours
		}
		return a.ID < b.ID
	})
	if len(res.Performance) > topPerformers {
		res.Performance = res.Performance[:topPerformers]
	}

	for _, b := range branches {
		res.Branches = append(res.Branches, *b)
	}
	sort.Slice(res.Branches, func(i, j int) bool { return res.Branches[i].ID < res.Branches[j].ID })

	for _, m := range months {
		res.Monthly = append(res.Monthly, *m)
	}
	sort.Slice(res.Monthly, func(i, j int) bool { return res.Monthly[i].Month < res.Monthly[j].Month })

	return res
}

// statsRange - varsayılan son 90 gün; bitiş günü dahil
func statsRange(c *fiber.Ctx) (time.Time, time.Time, error) {
	now := clock.Now().In(time.Local)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local)
	from, to := today.AddDate(0, 0, -90), today

	if s := c.Query("baslangic"); s != "" {
		t, err := parseDate(s)
		if err != nil {
			return from, to, fiber.NewError(fiber.StatusBadRequest, "Geçersiz başlangıç tarihi (YYYY-AA-GG)")
		}
		from = t
	}
	if s := c.Query("bitis"); s != "" {
		t, err := parseDate(s)
		if err != nil {
			return from, to, fiber.NewError(fiber.StatusBadRequest, "Geçersiz bitiş tarihi (YYYY-AA-GG)")
		}
		to = t
	}
	if to.Before(from) {
		return from, to, fiber.NewError(fiber.StatusBadRequest, "Bitiş tarihi başlangıçtan önce olamaz")
	}
	return from, to.AddDate(0, 0, 1), nil
}

// GET /api/schedules/admin/istatistikler/?baslangic=2025-08-01&bitis=2025-10-31
func StatsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		from, to, err := statsRange(c)
		if err != nil {
			return err
		}

		var shifts []models.Shift
		if err := database.DB.Preload("Branch").Preload("Employee", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
			Where("starts_at >= ? AND starts_at < ?", from, to).
			Find(&shifts).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "İstatistikler yüklenirken hata oluştu")
		}

		res := ComputeStats(shifts)

		if err := database.DB.Model(&models.TradeRequest{}).
			Where("status IN ?", models.ActiveRequestStatuses).
			Count(&res.Pending.Trades).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "İstatistikler yüklenirken hata oluştu")
		}
		if err := database.DB.Model(&models.CancelRequest{}).
			Where("status = ?", models.RequestAwaitingAdmin).
			Count(&res.Pending.Cancels).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "İstatistikler yüklenirken hata oluştu")
		}

		return c.JSON(res)
	}
}
