// Package httperr, servis katmanı hatalarını fiber hatalarına çevirir.
package httperr

import (
	"errors"

	"vardiya-backend/internal/logger"
	"vardiya-backend/internal/workflow"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func From(err error) error {
	if err == nil {
		return nil
	}

	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe
	}

	switch {
	case errors.Is(err, workflow.ErrInvalidAction),
		errors.Is(err, workflow.ErrInvalidTransition),
		errors.Is(err, workflow.ErrNotWithdrawable):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fiber.NewError(fiber.StatusNotFound, "Kayıt bulunamadı")
	}

	logger.Log.WithError(err).Error("beklenmeyen hata")
	return fiber.NewError(fiber.StatusInternalServerError, "Beklenmeyen sunucu hatası")
}

// Handler - uygulamanın ErrorHandler'ı, mesaj her zaman {"hata": ...} gövdesinde döner
func Handler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if !errors.As(From(err), &fe) {
		fe = fiber.ErrInternalServerError
	}
	return c.Status(fe.Code).JSON(fiber.Map{"hata": fe.Message})
}
