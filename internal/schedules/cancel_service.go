package schedules

import (
	"errors"
	"fmt"

	"vardiya-backend/internal/audit"
	"vardiya-backend/internal/database"
	"vardiya-backend/internal/logger"
	"vardiya-backend/internal/models"
	"vardiya-backend/internal/workflow"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var errCancelProcessed = fiber.NewError(fiber.StatusNotFound, "İptal isteği bulunamadı veya zaten işlenmiş.")

// CancelDecision - admin kararı sonrası istemciye dönen özet
type CancelDecision struct {
	Status      models.RequestStatus
	ShiftStatus models.ShiftStatus
	Replacement *models.User
}

// CreateCancel - vardiya iptal_istegi durumuna geçer, eski durum istekte saklanır
func CreateCancel(actor *models.User, shiftID uint) (*models.CancelRequest, error) {
	if shiftID == 0 {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Vardiya seçilmeli.")
	}

	var created models.CancelRequest
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		shift, err := lockShift(tx, shiftID)
		if err != nil {
			return err
		}
		if !ownedBy(shift, actor.ID) {
			return fiber.NewError(fiber.StatusForbidden, "Sadece kendi vardiyanız için iptal isteği oluşturabilirsiniz.")
		}
		if !workflow.Cancellable(shift.Status) {
			return fiber.NewError(fiber.StatusBadRequest, "Sadece planlanmış veya taslak vardiyalar için iptal isteği oluşturulabilir.")
		}

		if exists, err := pendingCancelExists(tx, shift.ID); err != nil {
			return err
		} else if exists {
			return fiber.NewError(fiber.StatusBadRequest, "Bu vardiya için zaten bekleyen bir iptal isteği var.")
		}
		if exists, err := activeTradeExists(tx, shift.ID); err != nil {
			return err
		} else if exists {
			return fiber.NewError(fiber.StatusBadRequest, "Bu vardiya aktif bir takas isteğinde, önce takası geri çekin.")
		}

		res := tx.Model(&models.Shift{}).
			Where("id = ? AND status = ?", shift.ID, shift.Status).
			Update("status", models.ShiftCancelPending)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errConcurrentChange
		}

		created = models.CancelRequest{
			ShiftID:             shift.ID,
			RequesterID:         actor.ID,
			OriginalShiftStatus: shift.Status,
			Status:              models.RequestAwaitingAdmin,
		}
		if err := tx.Create(&created).Error; err != nil {
			return err
		}

		return audit.Record(tx, audit.Entry{
			BranchID:    &shift.BranchID,
			UserID:      actor.ID,
			UserName:    actor.FullName(),
			EntityType:  models.EntityCancelRequest,
			EntityID:    created.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Vardiya #%d için iptal isteği", shift.ID),
			Before:      map[string]any{"vardiya_durumu": shift.Status},
			After:       map[string]any{"vardiya_durumu": models.ShiftCancelPending, "durum": created.Status},
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Log.WithFields(logrus.Fields{"request_id": created.ID, "shift_id": shiftID}).Info("iptal isteği oluşturuldu")
	return &created, nil
}

// DecideCancel - red eski durumu geri yükler; onay ya vardiyayı iptal eder ya da
// uygun listeden seçilen çalışana devreder
func DecideCancel(admin *models.User, id uint, action workflow.Action, replacementID *uint) (*CancelDecision, error) {
	var out CancelDecision
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var req models.CancelRequest
		if err := tx.Where("id = ? AND status = ?", id, models.RequestAwaitingAdmin).First(&req).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errCancelProcessed
			}
			return err
		}

		next, err := workflow.AdminDecide(req.Status, action)
		if err != nil {
			return errCancelProcessed
		}

		shift, err := lockShift(tx, req.ShiftID)
		if err != nil {
			return err
		}

		shiftUpdates := map[string]any{}
		auditAction := models.AuditActionApprove
		switch {
		case action == workflow.ActionReject:
			auditAction = models.AuditActionReject
			shiftUpdates["status"] = req.OriginalShiftStatus
			out.ShiftStatus = req.OriginalShiftStatus

		case replacementID == nil || *replacementID == 0:
			shiftUpdates["status"] = models.ShiftCancelled
			shiftUpdates["employee_id"] = nil
			out.ShiftStatus = models.ShiftCancelled

		default:
			var replacement models.User
			if err := tx.First(&replacement, *replacementID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fiber.NewError(fiber.StatusNotFound, "Seçilen yeni çalışan bulunamadı.")
				}
				return err
			}
			eligible, err := EligibleEmployees(tx, shift)
			if err != nil {
				return err
			}
			ok := false
			for _, u := range eligible {
				if u.ID == replacement.ID {
					ok = true
					break
				}
			}
			if !ok {
				return fiber.NewError(fiber.StatusBadRequest, "Seçilen çalışan bu vardiya için uygun değil.")
			}
			shiftUpdates["status"] = req.OriginalShiftStatus
			shiftUpdates["employee_id"] = replacement.ID
			out.ShiftStatus = req.OriginalShiftStatus
			out.Replacement = &replacement
		}

		res := tx.Model(&models.Shift{}).
			Where("id = ? AND status = ?", shift.ID, models.ShiftCancelPending).
			Updates(shiftUpdates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errConcurrentChange
		}

		reqUpdates := map[string]any{"status": next}
		if out.Replacement != nil {
			reqUpdates["replacement_id"] = out.Replacement.ID
		}
		res = tx.Model(&models.CancelRequest{}).
			Where("id = ? AND status = ?", req.ID, req.Status).
			Updates(reqUpdates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errConcurrentChange
		}
		out.Status = next

		after := map[string]any{"durum": next, "vardiya_durumu": out.ShiftStatus}
		if out.Replacement != nil {
			after["yeni_calisan"] = out.Replacement.ID
		}
		return audit.Record(tx, audit.Entry{
			BranchID:    &shift.BranchID,
			UserID:      admin.ID,
			UserName:    admin.FullName(),
			EntityType:  models.EntityCancelRequest,
			EntityID:    req.ID,
			Action:      auditAction,
			Description: fmt.Sprintf("İptal isteği admin kararı: %s", action),
			Before:      map[string]any{"durum": req.Status, "calisan": shift.EmployeeID},
			After:       after,
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Log.WithFields(logrus.Fields{"request_id": id, "status": out.Status}).Info("iptal isteği karara bağlandı")
	return &out, nil
}

// WithdrawCancel - sadece isteği yapan, admin karar vermeden geri çekebilir
func WithdrawCancel(actor *models.User, id uint) error {
	return database.DB.Transaction(func(tx *gorm.DB) error {
		var req models.CancelRequest
		if err := tx.Where("id = ? AND requester_id = ?", id, actor.ID).First(&req).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "İptal isteği bulunamadı veya bu isteğe erişim yetkiniz yok.")
			}
			return err
		}

		if err := workflow.CanWithdrawCancel(req.Status); err != nil {
			return err
		}

		if err := tx.Model(&models.Shift{}).
			Where("id = ? AND status = ?", req.ShiftID, models.ShiftCancelPending).
			Update("status", req.OriginalShiftStatus).Error; err != nil {
			return err
		}

		res := tx.Where("id = ? AND status = ?", req.ID, req.Status).Delete(&models.CancelRequest{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errConcurrentChange
		}

		return audit.Record(tx, audit.Entry{
			UserID:      actor.ID,
			UserName:    actor.FullName(),
			EntityType:  models.EntityCancelRequest,
			EntityID:    req.ID,
			Action:      models.AuditActionWithdraw,
			Description: fmt.Sprintf("Vardiya #%d iptal isteği geri çekildi", req.ShiftID),
			Before:      map[string]any{"durum": req.Status},
			After:       map[string]any{"vardiya_durumu": req.OriginalShiftStatus},
		})
	})
}
