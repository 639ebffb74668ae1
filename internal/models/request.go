package models

import "time"

type RequestStatus string

const (
	RequestAwaitingTarget RequestStatus = "hedef_onayi_bekliyor"
	RequestAwaitingAdmin  RequestStatus = "admin_onayi_bekliyor"
	RequestApproved       RequestStatus = "onaylandi"
	RequestRejected       RequestStatus = "reddedildi"
)

// ActiveRequestStatuses - henüz karara bağlanmamış durumlar
var ActiveRequestStatuses = []RequestStatus{RequestAwaitingTarget, RequestAwaitingAdmin}

type RequestKind string

const RequestKindTrade RequestKind = "takas"

// TradeRequest - iki çalışan arasında vardiya takası
type TradeRequest struct {
	ID               uint          `gorm:"primaryKey"`
	Kind             RequestKind   `gorm:"size:20;not null;default:takas"`
	Status           RequestStatus `gorm:"size:30;not null;index"`
	RequesterID      uint          `gorm:"index;not null"`
	Requester        User          `gorm:"constraint:OnDelete:CASCADE"`
	TargetEmployeeID uint          `gorm:"index;not null"`
	TargetEmployee   User          `gorm:"constraint:OnDelete:CASCADE"`
	RequesterShiftID uint          `gorm:"index;not null"`
	RequesterShift   Shift         `gorm:"constraint:OnDelete:CASCADE"`
	TargetShiftID    uint          `gorm:"index;not null"`
	TargetShift      Shift         `gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// CancelRequest - çalışanın kendi vardiyası için iptal isteği
type CancelRequest struct {
	ID                  uint          `gorm:"primaryKey"`
	ShiftID             uint          `gorm:"index;not null"`
	Shift               Shift         `gorm:"constraint:OnDelete:CASCADE"`
	RequesterID         uint          `gorm:"index;not null"`
	Requester           User          `gorm:"constraint:OnDelete:CASCADE"`
	OriginalShiftStatus ShiftStatus   `gorm:"size:20;not null"`
	Status              RequestStatus `gorm:"size:30;not null;index"`
	ReplacementID       *uint         // onayda atanan yeni çalışan
	CreatedAt           time.Time
	UpdatedAt           time.Time
}
