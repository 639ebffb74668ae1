package schedules

import (
	"errors"
	"fmt"

	"vardiya-backend/internal/audit"
	"vardiya-backend/internal/clock"
	"vardiya-backend/internal/database"
	"vardiya-backend/internal/logger"
	"vardiya-backend/internal/models"
	"vardiya-backend/internal/workflow"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	errTradeNotFound    = fiber.NewError(fiber.StatusNotFound, "İstek bulunamadı veya bu isteğe erişim yetkiniz yok.")
	errTradeProcessed   = fiber.NewError(fiber.StatusNotFound, "İstek bulunamadı veya zaten işlenmiş.")
	errTradeActive      = fiber.NewError(fiber.StatusBadRequest, "Bu vardiyalardan biri için zaten aktif bir takas isteği var.")
	errShiftCancelPend  = fiber.NewError(fiber.StatusBadRequest, "Bu vardiyalardan biri için bekleyen bir iptal isteği var.")
	errTradeChanged     = fiber.NewError(fiber.StatusConflict, "Vardiyalar istek oluşturulduktan sonra değişmiş, takas yapılamaz.")
	errConcurrentChange = fiber.NewError(fiber.StatusConflict, "İstek başka bir işlemle güncellendi, sayfayı yenileyin.")
)

type CreateTradeInput struct {
	RequesterShiftID uint `json:"istek_yapan_vardiya"`
	TargetShiftID    uint `json:"hedef_vardiya"`
	RequesterID      uint `json:"istek_yapan"`
	TargetEmployeeID uint `json:"hedef_calisan"`
}

// lockShift - satırı transaction sonuna kadar kilitler (SQLite'ta kilit ifadesi yok sayılır)
func lockShift(tx *gorm.DB, id uint) (*models.Shift, error) {
	var s models.Shift
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&s, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "Vardiya bulunamadı.")
		}
		return nil, err
	}
	return &s, nil
}

func ownedBy(s *models.Shift, userID uint) bool {
	return s.EmployeeID != nil && *s.EmployeeID == userID
}

// activeTradeExists - vardiyalardan herhangi biri bekleyen bir takasta geçiyor mu
func activeTradeExists(tx *gorm.DB, shiftIDs ...uint) (bool, error) {
	var count int64
	err := tx.Model(&models.TradeRequest{}).
		Where("status IN ?", models.ActiveRequestStatuses).
		Where("requester_shift_id IN ? OR target_shift_id IN ?", shiftIDs, shiftIDs).
		Count(&count).Error
	return count > 0, err
}

func pendingCancelExists(tx *gorm.DB, shiftIDs ...uint) (bool, error) {
	var count int64
	err := tx.Model(&models.CancelRequest{}).
		Where("shift_id IN ? AND status = ?", shiftIDs, models.RequestAwaitingAdmin).
		Count(&count).Error
	return count > 0, err
}

// checkSwap - iki vardiya yer değiştirdiğinde kimse çakışan vardiyaya düşmemeli
func checkSwap(tx *gorm.DB, a, b *models.Shift, aOwner, bOwner uint) error {
	clash, err := hasOverlap(tx, aOwner, b.StartsAt, b.EndsAt, a.ID, b.ID)
	if err != nil {
		return err
	}
	if !clash {
		clash, err = hasOverlap(tx, bOwner, a.StartsAt, a.EndsAt, a.ID, b.ID)
		if err != nil {
			return err
		}
	}
	if clash {
		return fiber.NewError(fiber.StatusBadRequest, "Takas sonrası çalışanlardan birinin vardiyaları çakışıyor.")
	}
	return nil
}

// CreateTrade - takas teklifi hedef çalışanın onayına düşer
func CreateTrade(actor *models.User, in CreateTradeInput) (*models.TradeRequest, error) {
	if in.RequesterID != actor.ID {
		return nil, fiber.NewError(fiber.StatusForbidden, "Sadece kendi adınıza takas isteği gönderebilirsiniz.")
	}
	if in.RequesterShiftID == 0 || in.TargetShiftID == 0 || in.TargetEmployeeID == 0 {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Vardiyalar ve hedef çalışan seçilmeli.")
	}
	if in.TargetEmployeeID == actor.ID || in.RequesterShiftID == in.TargetShiftID {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Kendinizle takas yapamazsınız.")
	}

	var created models.TradeRequest
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		mine, err := lockShift(tx, in.RequesterShiftID)
		if err != nil {
			return err
		}
		theirs, err := lockShift(tx, in.TargetShiftID)
		if err != nil {
			return err
		}

		if !ownedBy(mine, actor.ID) {
			return fiber.NewError(fiber.StatusForbidden, "Sadece kendi vardiyanızı takasa verebilirsiniz.")
		}
		if !ownedBy(theirs, in.TargetEmployeeID) {
			return fiber.NewError(fiber.StatusBadRequest, "Hedef vardiya seçilen çalışana ait değil.")
		}

		now := clock.Now()
		for _, s := range []*models.Shift{mine, theirs} {
			if !workflow.Tradable(s.Status) {
				return fiber.NewError(fiber.StatusBadRequest, "Sadece planlanmış veya taslak vardiyalar takas edilebilir.")
			}
			if !s.StartsAt.After(now) {
				return fiber.NewError(fiber.StatusBadRequest, "Geçmiş veya başlamış vardiyalar takas edilemez.")
			}
		}

		if exists, err := activeTradeExists(tx, mine.ID, theirs.ID); err != nil {
			return err
		} else if exists {
			return errTradeActive
		}
		if exists, err := pendingCancelExists(tx, mine.ID, theirs.ID); err != nil {
			return err
		} else if exists {
			return errShiftCancelPend
		}
		if err := checkSwap(tx, mine, theirs, actor.ID, in.TargetEmployeeID); err != nil {
			return err
		}

		created = models.TradeRequest{
			Kind:             models.RequestKindTrade,
			Status:           models.RequestAwaitingTarget,
			RequesterID:      actor.ID,
			TargetEmployeeID: in.TargetEmployeeID,
			RequesterShiftID: mine.ID,
			TargetShiftID:    theirs.ID,
		}
		if err := tx.Create(&created).Error; err != nil {
			return err
		}

		return audit.Record(tx, audit.Entry{
			BranchID:    &mine.BranchID,
			UserID:      actor.ID,
			UserName:    actor.FullName(),
			EntityType:  models.EntityTradeRequest,
			EntityID:    created.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Takas isteği: vardiya #%d <-> #%d", mine.ID, theirs.ID),
			After:       map[string]any{"durum": created.Status},
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Log.WithFields(logrus.Fields{"request_id": created.ID, "user_id": actor.ID}).Info("takas isteği oluşturuldu")
	return &created, nil
}

// transitionTrade - durum sadece beklenen durumdaysa değişir; eşzamanlı ikinci işlem 0 satır görür
func transitionTrade(tx *gorm.DB, id uint, from, to models.RequestStatus) error {
	res := tx.Model(&models.TradeRequest{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errConcurrentChange
	}
	return nil
}

// RespondTrade - hedef çalışanın yanıtı
func RespondTrade(actor *models.User, id uint, action workflow.Action) (models.RequestStatus, error) {
	var next models.RequestStatus
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var req models.TradeRequest
		if err := tx.Where("id = ? AND target_employee_id = ?", id, actor.ID).First(&req).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "İstek bulunamadı veya bu isteğe yanıt verme yetkiniz yok.")
			}
			return err
		}

		var err error
		next, err = workflow.TradeRespond(req.Status, action)
		if err != nil {
			return err
		}
		if err := transitionTrade(tx, req.ID, req.Status, next); err != nil {
			return err
		}

		return audit.Record(tx, audit.Entry{
			UserID:      actor.ID,
			UserName:    actor.FullName(),
			EntityType:  models.EntityTradeRequest,
			EntityID:    req.ID,
			Action:      models.AuditActionRespond,
			Description: fmt.Sprintf("Hedef çalışan yanıtı: %s", action),
			Before:      map[string]any{"durum": req.Status},
			After:       map[string]any{"durum": next},
		})
	})
	return next, err
}

// DecideTrade - admin kararı; onayda iki vardiyanın çalışanları tek transaction'da yer değiştirir
func DecideTrade(admin *models.User, id uint, action workflow.Action) (models.RequestStatus, error) {
	var next models.RequestStatus
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var req models.TradeRequest
		if err := tx.First(&req, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errTradeProcessed
			}
			return err
		}

		var err error
		next, err = workflow.AdminDecide(req.Status, action)
		if err != nil {
			return errTradeProcessed
		}

		mine, err := lockShift(tx, req.RequesterShiftID)
		if err != nil {
			return err
		}
		theirs, err := lockShift(tx, req.TargetShiftID)
		if err != nil {
			return err
		}

		if action == workflow.ActionApprove {
			if !ownedBy(mine, req.RequesterID) || !ownedBy(theirs, req.TargetEmployeeID) ||
				!workflow.Tradable(mine.Status) || !workflow.Tradable(theirs.Status) {
				return errTradeChanged
			}
			if err := checkSwap(tx, mine, theirs, req.RequesterID, req.TargetEmployeeID); err != nil {
				return err
			}

			if err := tx.Model(&models.Shift{}).Where("id = ? AND employee_id = ?", mine.ID, req.RequesterID).
				Update("employee_id", req.TargetEmployeeID).Error; err != nil {
				return err
			}
			if err := tx.Model(&models.Shift{}).Where("id = ? AND employee_id = ?", theirs.ID, req.TargetEmployeeID).
				Update("employee_id", req.RequesterID).Error; err != nil {
				return err
			}
		}

		if err := transitionTrade(tx, req.ID, req.Status, next); err != nil {
			return err
		}

		auditAction := models.AuditActionReject
		if action == workflow.ActionApprove {
			auditAction = models.AuditActionApprove
		}
		return audit.Record(tx, audit.Entry{
			BranchID:    &mine.BranchID,
			UserID:      admin.ID,
			UserName:    admin.FullName(),
			EntityType:  models.EntityTradeRequest,
			EntityID:    req.ID,
			Action:      auditAction,
			Description: fmt.Sprintf("Takas isteği admin kararı: %s", action),
			Before:      map[string]any{"durum": req.Status, "istek_yapan_vardiya_calisan": req.RequesterID, "hedef_vardiya_calisan": req.TargetEmployeeID},
			After:       map[string]any{"durum": next},
		})
	})
	if err == nil {
		logger.Log.WithFields(logrus.Fields{"request_id": id, "status": next}).Info("takas isteği karara bağlandı")
	}
	return next, err
}

// WithdrawTrade - isteği yapan ya da hedef çalışan, bekleyen isteği geri çeker; kayıt silinir
func WithdrawTrade(actor *models.User, id uint) error {
	return database.DB.Transaction(func(tx *gorm.DB) error {
		var req models.TradeRequest
		if err := tx.Where("id = ? AND (requester_id = ? OR target_employee_id = ?)", id, actor.ID, actor.ID).
			First(&req).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errTradeNotFound
			}
			return err
		}

		if err := workflow.CanWithdrawTrade(req.Status); err != nil {
			return err
		}

		res := tx.Where("id = ? AND status = ?", req.ID, req.Status).Delete(&models.TradeRequest{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errConcurrentChange
		}

		return audit.Record(tx, audit.Entry{
			UserID:      actor.ID,
			UserName:    actor.FullName(),
			EntityType:  models.EntityTradeRequest,
			EntityID:    req.ID,
			Action:      models.AuditActionWithdraw,
			Description: "Takas isteği geri çekildi",
			Before:      map[string]any{"durum": req.Status},
		})
	})
}
