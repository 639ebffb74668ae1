package models

import (
	"time"

	"gorm.io/gorm"
)

type UserRole string

const (
	RoleAdmin   UserRole = "admin"
	RoleCalisan UserRole = "calisan"
)

type Gender string

const (
	GenderKadin Gender = "kadin"
	GenderErkek Gender = "erkek"
)

type User struct {
	ID           uint     `gorm:"primaryKey"`
	Username     string   `gorm:"size:150;uniqueIndex;not null"`
	FirstName    string   `gorm:"size:150"`
	LastName     string   `gorm:"size:150"`
	Email        string   `gorm:"size:254;uniqueIndex;not null"`
	PasswordHash string   `gorm:"size:255"`
	Role         UserRole `gorm:"size:10;not null;default:calisan"`
	Phone        *string  `gorm:"size:20"`
	Address      *string  `gorm:"type:text"`
	Latitude     *float64
	Longitude    *float64
	Gender       *Gender  `gorm:"size:10"`
	ProfilePhoto *string  `gorm:"size:255"` // MEDIA_PATH altındaki göreli yol
	IsActive     bool     `gorm:"not null;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    gorm.DeletedAt `gorm:"index"` // tamamlanan vardiyalar silinen çalışana bağlı kalır
}

// IsStaff - istemci admin menüsünü bu alana göre açar
func (u *User) IsStaff() bool {
	return u.Role == RoleAdmin
}

// FullName - ad soyad, boşsa kullanıcı adı
func (u *User) FullName() string {
	name := u.FirstName
	if u.LastName != "" {
		if name != "" {
			name += " "
		}
		name += u.LastName
	}
	if name == "" {
		return u.Username
	}
	return name
}

type ProfileRequestStatus string

const (
	ProfileRequestPending  ProfileRequestStatus = "beklemede"
	ProfileRequestApproved ProfileRequestStatus = "onaylandi"
	ProfileRequestRejected ProfileRequestStatus = "reddedildi"
)

// ProfileUpdateRequest - çalışanın telefon/adres/fotoğraf değişikliği talebi
type ProfileUpdateRequest struct {
	ID         uint                 `gorm:"primaryKey"`
	UserID     uint                 `gorm:"index;not null"`
	User       User                 `gorm:"constraint:OnDelete:CASCADE"`
	NewPhone   *string              `gorm:"size:20"`
	NewAddress *string              `gorm:"type:text"`
	NewPhoto   *string              `gorm:"size:255"`
	Status     ProfileRequestStatus `gorm:"size:20;not null;default:beklemede;index"`
	CreatedAt  time.Time
	DecidedAt  *time.Time
}
