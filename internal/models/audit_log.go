package models

import "time"

type AuditAction string

const (
	AuditActionCreate   AuditAction = "create"
	AuditActionRespond  AuditAction = "respond"
	AuditActionApprove  AuditAction = "approve"
	AuditActionReject   AuditAction = "reject"
	AuditActionWithdraw AuditAction = "withdraw"
	AuditActionGenerate AuditAction = "generate"
	AuditActionPublish  AuditAction = "publish"
)

// Entity tipleri
const (
	EntityTradeRequest   = "takas_istegi"
	EntityCancelRequest  = "iptal_istegi"
	EntityProfileRequest = "profil_talebi"
	EntityPlan           = "plan"
)

type AuditLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	// Vardiyanın şubesi (varsa)
	BranchID *uint `json:"branch_id"`

	// İşlemi yapan kullanıcı
	UserID   uint   `json:"user_id"`
	UserName string `gorm:"size:100" json:"user_name"` // denormalize

	EntityType string `gorm:"size:50;index" json:"entity_type"`
	EntityID   uint   `gorm:"index" json:"entity_id"`

	Action      AuditAction `gorm:"size:20" json:"action"`
	Description string      `gorm:"size:255" json:"description"`

	// Önceki ve sonraki hal (JSON)
	BeforeData string `gorm:"type:text" json:"before_data"`
	AfterData  string `gorm:"type:text" json:"after_data"`
}
