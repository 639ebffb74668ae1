package schedules

import (
	"time"

	"vardiya-backend/internal/models"
)

// RulesAllow - şubenin kısıtlama kuralları bu çalışanın verilen saatte başlayan
// vardiyaya atanmasına izin veriyor mu. Kural, vardiya kuralın saatinde ya da
// sonrasında başlıyorsa geçerlidir.
func RulesAllow(rules []models.RestrictionRule, shiftStart time.Time, gender *models.Gender) bool {
	start := minutesOfDay(shiftStart)
	for _, r := range rules {
		from, err := parseClock(r.StartsAt)
		if err != nil || start < from {
			continue
		}
		switch r.Condition {
		case models.RuleFemaleOnly:
			if gender == nil || *gender != models.GenderKadin {
				return false
			}
		case models.RuleMaleOnly:
			if gender == nil || *gender != models.GenderErkek {
				return false
			}
		}
	}
	return true
}
