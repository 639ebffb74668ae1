package schedules

import (
	"time"

	"vardiya-backend/internal/models"

	"gorm.io/gorm"
)

type ShiftResponse struct {
	ID                  uint                  `json:"id"`
	BranchID            uint                  `json:"sube"`
	BranchName          string                `json:"sube_adi"`
	EmployeeID          *uint                 `json:"calisan"`
	EmployeeName        *string               `json:"calisan_adi"`
	StartsAt            time.Time             `json:"baslangic_zamani"`
	EndsAt              time.Time             `json:"bitis_zamani"`
	StartedAt           *time.Time            `json:"gercek_baslangic_zamani"`
	FinishedAt          *time.Time            `json:"gercek_bitis_zamani"`
	Status              models.ShiftStatus    `json:"durum"`
	CancelRequestID     *uint                 `json:"iptal_istegi_id"`
	ActiveRequestStatus *models.RequestStatus `json:"aktif_istek_durumu"`
}

// shiftSerializer - listelerde istek bilgisini tek sorguyla toplar
type shiftSerializer struct {
	cancelByShift map[uint]uint
	tradeByShift  map[uint]models.RequestStatus
}

func newShiftSerializer(db *gorm.DB, shifts []models.Shift) (*shiftSerializer, error) {
	s := &shiftSerializer{
		cancelByShift: make(map[uint]uint),
		tradeByShift:  make(map[uint]models.RequestStatus),
	}
	if len(shifts) == 0 {
		return s, nil
	}

	ids := make([]uint, 0, len(shifts))
	for _, sh := range shifts {
		ids = append(ids, sh.ID)
	}

	var cancels []models.CancelRequest
	if err := db.Select("id", "shift_id").
		Where("shift_id IN ? AND status = ?", ids, models.RequestAwaitingAdmin).
		Find(&cancels).Error; err != nil {
		return nil, err
	}
	for _, cr := range cancels {
		s.cancelByShift[cr.ShiftID] = cr.ID
	}

	var trades []models.TradeRequest
	if err := db.Select("id", "requester_shift_id", "status").
		Where("requester_shift_id IN ? AND status IN ?", ids, models.ActiveRequestStatuses).
		Order("id ASC").
		Find(&trades).Error; err != nil {
		return nil, err
	}
	for _, tr := range trades {
		if _, ok := s.tradeByShift[tr.RequesterShiftID]; !ok {
			s.tradeByShift[tr.RequesterShiftID] = tr.Status
		}
	}
	return s, nil
}

// Branch ve Employee yüklenmiş olmalı
func (s *shiftSerializer) one(sh *models.Shift) ShiftResponse {
	r := ShiftResponse{
		ID:         sh.ID,
		BranchID:   sh.BranchID,
		BranchName: sh.Branch.Name,
		EmployeeID: sh.EmployeeID,
		StartsAt:   sh.StartsAt,
		EndsAt:     sh.EndsAt,
		StartedAt:  sh.StartedAt,
		FinishedAt: sh.FinishedAt,
		Status:     sh.Status,
	}
	if sh.Employee != nil {
		name := sh.Employee.FullName()
		r.EmployeeName = &name
	}
	if id, ok := s.cancelByShift[sh.ID]; ok {
		r.CancelRequestID = &id
	}
	if st, ok := s.tradeByShift[sh.ID]; ok {
		r.ActiveRequestStatus = &st
	}
	return r
}

func serializeShifts(db *gorm.DB, shifts []models.Shift) ([]ShiftResponse, error) {
	s, err := newShiftSerializer(db, shifts)
	if err != nil {
		return nil, err
	}
	out := make([]ShiftResponse, 0, len(shifts))
	for i := range shifts {
		out = append(out, s.one(&shifts[i]))
	}
	return out, nil
}

type EmployeeOption struct {
	ID       uint   `json:"id"`
	FullName string `json:"ad_soyad"`
	Username string `json:"username"`
}

func toEmployeeOptions(list []models.User) []EmployeeOption {
	out := make([]EmployeeOption, 0, len(list))
	for i := range list {
		out = append(out, EmployeeOption{ID: list[i].ID, FullName: list[i].FullName(), Username: list[i].Username})
	}
	return out
}
