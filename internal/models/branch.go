package models

import "time"

type Branch struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:100;not null;unique"`
	Address   string `gorm:"size:255"`
	QRToken   string `gorm:"size:64;uniqueIndex"` // şubeye asılan QR kodun içeriği
	CreatedAt time.Time
	UpdatedAt time.Time

	Hours []BranchHours `gorm:"constraint:OnDelete:CASCADE"`
}

// BranchHours - şubenin haftanın bir günündeki açılış/kapanış saati
type BranchHours struct {
	ID        uint    `gorm:"primaryKey"`
	BranchID  uint    `gorm:"uniqueIndex:idx_branch_day;not null"`
	Branch    Branch
	Day       Weekday `gorm:"uniqueIndex:idx_branch_day;not null"`
	OpensAt   *string `gorm:"size:5"` // "HH:MM"
	ClosesAt  *string `gorm:"size:5"`
	Closed    bool    `gorm:"not null;default:false"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
