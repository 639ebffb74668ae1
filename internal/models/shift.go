package models

import "time"

type ShiftStatus string

const (
	ShiftDraft         ShiftStatus = "taslak"
	ShiftPlanned       ShiftStatus = "planlandi"
	ShiftStarted       ShiftStatus = "baslatildi"
	ShiftCompleted     ShiftStatus = "tamamlandi"
	ShiftCancelled     ShiftStatus = "iptal"
	ShiftCancelPending ShiftStatus = "iptal_istegi"
)

var shiftStatusNames = map[ShiftStatus]string{
	ShiftDraft:         "Taslak",
	ShiftPlanned:       "Planlandı",
	ShiftStarted:       "Başlatıldı",
	ShiftCompleted:     "Tamamlandı",
	ShiftCancelled:     "İptal",
	ShiftCancelPending: "İptal İsteği",
}

func (s ShiftStatus) Display() string {
	if n, ok := shiftStatusNames[s]; ok {
		return n
	}
	return string(s)
}

// BusyShiftStatuses - çakışma kontrolünde "dolu" sayılan durumlar
var BusyShiftStatuses = []ShiftStatus{ShiftDraft, ShiftPlanned, ShiftCancelPending, ShiftStarted}

type Shift struct {
	ID         uint        `gorm:"primaryKey"`
	BranchID   uint        `gorm:"index;not null"`
	Branch     Branch      `gorm:"constraint:OnDelete:CASCADE"`
	EmployeeID *uint       `gorm:"index"`
	Employee   *User       `gorm:"constraint:OnDelete:SET NULL"`
	StartsAt   time.Time   `gorm:"index;not null"`
	EndsAt     time.Time   `gorm:"not null"`
	StartedAt  *time.Time  // QR ile gerçek başlangıç
	FinishedAt *time.Time  // QR ile gerçek bitiş
	Status     ShiftStatus `gorm:"size:20;not null;default:taslak;index"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Overlaps - [StartsAt, EndsAt) aralıkları kesişiyor mu
func (s *Shift) Overlaps(start, end time.Time) bool {
	return s.StartsAt.Before(end) && s.EndsAt.After(start)
}

// Period - vardiyanın ait olduğu dönem ("2025-11")
func (s *Shift) Period() string {
	return s.StartsAt.Format("2006-01")
}
