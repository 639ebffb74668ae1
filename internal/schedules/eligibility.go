package schedules

import (
	"time"

	"vardiya-backend/internal/models"

	"gorm.io/gorm"
)

// EligibleEmployees - vardiyayı devralabilecek çalışanlar: aktif, rolü calisan,
// mevcut çalışan değil, o saatte başka vardiyası yok, o gün müsait değil
// işaretlememiş ve şube kurallarına uyuyor.
func EligibleEmployees(db *gorm.DB, shift *models.Shift) ([]models.User, error) {
	exclude := make(map[uint]bool)
	if shift.EmployeeID != nil {
		exclude[*shift.EmployeeID] = true
	}

	var busy []uint
	if err := db.Model(&models.Shift{}).
		Where("id <> ? AND employee_id IS NOT NULL AND status IN ?", shift.ID, models.BusyShiftStatuses).
		Where("starts_at < ? AND ends_at > ?", shift.EndsAt, shift.StartsAt).
		Pluck("employee_id", &busy).Error; err != nil {
		return nil, err
	}
	for _, id := range busy {
		exclude[id] = true
	}

	var unavailable []uint
	if err := db.Model(&models.Availability{}).
		Where("period = ? AND day = ? AND status = ?", shift.Period(), models.WeekdayOf(shift.StartsAt), models.Unavailable).
		Pluck("user_id", &unavailable).Error; err != nil {
		return nil, err
	}
	for _, id := range unavailable {
		exclude[id] = true
	}

	var rules []models.RestrictionRule
	if err := db.Where("branch_id = ?", shift.BranchID).Find(&rules).Error; err != nil {
		return nil, err
	}

	var candidates []models.User
	if err := db.Where("role = ? AND is_active = ?", models.RoleCalisan, true).
		Order("first_name ASC").Order("id ASC").
		Find(&candidates).Error; err != nil {
		return nil, err
	}

	out := make([]models.User, 0, len(candidates))
	for _, u := range candidates {
		if exclude[u.ID] || !RulesAllow(rules, shift.StartsAt, u.Gender) {
			continue
		}
		out = append(out, u)
	}
	return out, nil
}

// hasOverlap - çalışanın (hariç tutulan vardiyalar dışında) bu aralıkta dolu vardiyası var mı
func hasOverlap(db *gorm.DB, employeeID uint, start, end time.Time, excludeIDs ...uint) (bool, error) {
	q := db.Model(&models.Shift{}).
		Where("employee_id = ? AND status IN ?", employeeID, models.BusyShiftStatuses).
		Where("starts_at < ? AND ends_at > ?", end, start)
	if len(excludeIDs) > 0 {
		q = q.Where("id NOT IN ?", excludeIDs)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
