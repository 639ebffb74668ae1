package models

import "time"

type AvailabilityStatus string

const (
	Available     AvailabilityStatus = "musait"
	Unavailable   AvailabilityStatus = "musait_degil"
	PrefersToWork AvailabilityStatus = "tercih_ediyor"
)

func (s AvailabilityStatus) Valid() bool {
	switch s {
	case Available, Unavailable, PrefersToWork:
		return true
	}
	return false
}

// Availability - çalışanın bir dönemde haftanın gününe göre müsaitliği
type Availability struct {
	ID        uint               `gorm:"primaryKey"`
	UserID    uint               `gorm:"uniqueIndex:idx_availability;not null"`
	User      User               `gorm:"constraint:OnDelete:CASCADE"`
	Period    string             `gorm:"size:7;uniqueIndex:idx_availability;not null"` // "YYYY-MM"
	Day       Weekday            `gorm:"uniqueIndex:idx_availability;not null"`
	Status    AvailabilityStatus `gorm:"size:20;not null"`
	CreatedAt time.Time
}

// Preference - adminin bir çalışana atadığı favori şube/gün
type Preference struct {
	ID        uint    `gorm:"primaryKey"`
	UserID    uint    `gorm:"index;not null"`
	User      User    `gorm:"constraint:OnDelete:CASCADE"`
	BranchID  uint    `gorm:"index;not null"`
	Branch    Branch  `gorm:"constraint:OnDelete:CASCADE"`
	Day       Weekday `gorm:"not null"`
	CreatedAt time.Time
}

type RuleCondition string

const (
	RuleFemaleOnly RuleCondition = "cinsiyet_kadin"
	RuleMaleOnly   RuleCondition = "cinsiyet_erkek"
)

var ruleConditionNames = map[RuleCondition]string{
	RuleFemaleOnly: "Cinsiyet: Kadın",
	RuleMaleOnly:   "Cinsiyet: Erkek",
}

func (r RuleCondition) Valid() bool {
	_, ok := ruleConditionNames[r]
	return ok
}

func (r RuleCondition) Display() string {
	return ruleConditionNames[r]
}

// RestrictionRule - şubede belirli saatten sonra başlayan vardiyalar için şart
type RestrictionRule struct {
	ID        uint          `gorm:"primaryKey"`
	BranchID  uint          `gorm:"index;not null"`
	Branch    Branch        `gorm:"constraint:OnDelete:CASCADE"`
	Condition RuleCondition `gorm:"size:30;not null"`
	StartsAt  string        `gorm:"size:5;not null"` // "HH:MM"
	CreatedAt time.Time
}

// Setting - basit anahtar/değer ayarları
type Setting struct {
	Key       string `gorm:"primaryKey;size:64"`
	Value     string `gorm:"size:255"`
	UpdatedAt time.Time
}

const SettingAvailabilityOpen = "musaitlik_acik"
