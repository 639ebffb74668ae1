// Package workflow, takas ve iptal isteklerinin durum geçişlerini tanımlar.
// Veritabanına dokunmaz; servisler geçişi burada doğrulayıp koşullu UPDATE ile uygular.
package workflow

import (
	"errors"
	"strings"

	"vardiya-backend/internal/models"
)

var (
	ErrInvalidAction     = errors.New(`geçersiz eylem, "onayla" veya "reddet" gönderilmeli`)
	ErrInvalidTransition = errors.New("istek bu durumda bu işleme uygun değil")
	ErrNotWithdrawable   = errors.New("sadece beklemede olan istekler geri çekilebilir")
)

type Action string

const (
	ActionApprove Action = "onayla"
	ActionReject  Action = "reddet"
)

func ParseAction(s string) (Action, error) {
	switch Action(strings.TrimSpace(strings.ToLower(s))) {
	case ActionApprove:
		return ActionApprove, nil
	case ActionReject:
		return ActionReject, nil
	}
	return "", ErrInvalidAction
}

func IsActive(s models.RequestStatus) bool {
	return s == models.RequestAwaitingTarget || s == models.RequestAwaitingAdmin
}

func IsTerminal(s models.RequestStatus) bool {
	return s == models.RequestApproved || s == models.RequestRejected
}

// TradeRespond - hedef çalışanın yanıtı. Onay admin onayına iletir, red kapatır.
func TradeRespond(current models.RequestStatus, a Action) (models.RequestStatus, error) {
	if current != models.RequestAwaitingTarget {
		return current, ErrInvalidTransition
	}
	if a == ActionApprove {
		return models.RequestAwaitingAdmin, nil
	}
	return models.RequestRejected, nil
}

// AdminDecide - takas ve iptal isteklerinde admin kararı
func AdminDecide(current models.RequestStatus, a Action) (models.RequestStatus, error) {
	if current != models.RequestAwaitingAdmin {
		return current, ErrInvalidTransition
	}
	if a == ActionApprove {
		return models.RequestApproved, nil
	}
	return models.RequestRejected, nil
}

func CanWithdrawTrade(current models.RequestStatus) error {
	if !IsActive(current) {
		return ErrNotWithdrawable
	}
	return nil
}

// İptal isteği sadece admin onayı beklerken geri çekilebilir
func CanWithdrawCancel(current models.RequestStatus) error {
	if current != models.RequestAwaitingAdmin {
		return ErrNotWithdrawable
	}
	return nil
}

// Cancellable - iptal isteği açılabilecek vardiya durumları
func Cancellable(s models.ShiftStatus) bool {
	return s == models.ShiftPlanned || s == models.ShiftDraft
}

// Tradable - takasa konabilecek vardiya durumları
func Tradable(s models.ShiftStatus) bool {
	return s == models.ShiftPlanned || s == models.ShiftDraft
}
