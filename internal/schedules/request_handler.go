package schedules

import (
	"time"

	"vardiya-backend/internal/auth"
	"vardiya-backend/internal/database"
	"vardiya-backend/internal/httperr"
	"vardiya-backend/internal/models"
	"vardiya-backend/internal/workflow"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type TradeResponse struct {
	ID                   uint                 `json:"id"`
	Kind                 models.RequestKind   `json:"istek_tipi"`
	Status               models.RequestStatus `json:"durum"`
	CreatedAt            time.Time            `json:"olusturulma_tarihi"`
	RequesterID          uint                 `json:"istek_yapan"`
	TargetEmployeeID     uint                 `json:"hedef_calisan"`
	RequesterShiftID     uint                 `json:"istek_yapan_vardiya"`
	TargetShiftID        uint                 `json:"hedef_vardiya"`
	RequesterName        string               `json:"istek_yapan_adi"`
	TargetEmployeeName   string               `json:"hedef_calisan_adi"`
	RequesterShiftDetail ShiftResponse        `json:"istek_yapan_vardiya_detay"`
	TargetShiftDetail    ShiftResponse        `json:"hedef_vardiya_detay"`
}

type CancelResponse struct {
	ID            uint                 `json:"id"`
	RequesterName string               `json:"istek_yapan"`
	Shift         ShiftResponse        `json:"vardiya"`
	Status        models.RequestStatus `json:"durum"`
	CreatedAt     time.Time            `json:"olusturulma_tarihi"`
}

type RespondRequest struct {
	Answer string `json:"yanit"`
}

type ActionRequest struct {
	Action        string `json:"action"`
	ReplacementID *uint  `json:"yeni_calisan_id"`
}

type CreateCancelRequest struct {
	ShiftID uint `json:"vardiya"`
}

func requestID(c *fiber.Ctx) (uint, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek ID")
	}
	return uint(id), nil
}

func preloadTrade(db *gorm.DB) *gorm.DB {
	return db.Preload("Requester").Preload("TargetEmployee").
		Preload("RequesterShift.Branch").Preload("RequesterShift.Employee").
		Preload("TargetShift.Branch").Preload("TargetShift.Employee")
}

func serializeTrades(db *gorm.DB, list []models.TradeRequest) ([]TradeResponse, error) {
	shifts := make([]models.Shift, 0, len(list)*2)
	for _, r := range list {
		shifts = append(shifts, r.RequesterShift, r.TargetShift)
	}
	s, err := newShiftSerializer(db, shifts)
	if err != nil {
		return nil, err
	}

	out := make([]TradeResponse, 0, len(list))
	for i := range list {
		r := &list[i]
		out = append(out, TradeResponse{
			ID:                   r.ID,
			Kind:                 r.Kind,
			Status:               r.Status,
			CreatedAt:            r.CreatedAt,
			RequesterID:          r.RequesterID,
			TargetEmployeeID:     r.TargetEmployeeID,
			RequesterShiftID:     r.RequesterShiftID,
			TargetShiftID:        r.TargetShiftID,
			RequesterName:        r.Requester.FullName(),
			TargetEmployeeName:   r.TargetEmployee.FullName(),
			RequesterShiftDetail: s.one(&r.RequesterShift),
			TargetShiftDetail:    s.one(&r.TargetShift),
		})
	}
	return out, nil
}

func serializeCancels(db *gorm.DB, list []models.CancelRequest) ([]CancelResponse, error) {
	shifts := make([]models.Shift, 0, len(list))
	for _, r := range list {
		shifts = append(shifts, r.Shift)
	}
	s, err := newShiftSerializer(db, shifts)
	if err != nil {
		return nil, err
	}

	out := make([]CancelResponse, 0, len(list))
	for i := range list {
		r := &list[i]
		out = append(out, CancelResponse{
			ID:            r.ID,
			RequesterName: r.Requester.FullName(),
			Shift:         s.one(&r.Shift),
			Status:        r.Status,
			CreatedAt:     r.CreatedAt,
		})
	}
	return out, nil
}

// ----------------------------------------
// TAKAS İSTEKLERİ
// ----------------------------------------

// GET /api/schedules/istekler/ - kullanıcının yaptığı ve kendisine gelen istekler
func ListMyTradesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.CurrentUserID(c)
		if err != nil {
			return err
		}

		var list []models.TradeRequest
		if err := preloadTrade(database.DB).
			Where("requester_id = ? OR target_employee_id = ?", userID, userID).
			Order("created_at DESC").Order("id DESC").
			Find(&list).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "İstekler listelenemedi")
		}

		res, err := serializeTrades(database.DB, list)
		if err != nil {
			return httperr.From(err)
		}
		return c.JSON(res)
	}
}

// POST /api/schedules/istekler/
func CreateTradeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		var body CreateTradeInput
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri gönderildi")
		}

		req, err := CreateTrade(actor, body)
		if err != nil {
			return httperr.From(err)
		}

		if err := preloadTrade(database.DB).First(req, req.ID).Error; err != nil {
			return httperr.From(err)
		}
		res, err := serializeTrades(database.DB, []models.TradeRequest{*req})
		if err != nil {
			return httperr.From(err)
		}
		return c.Status(fiber.StatusCreated).JSON(res[0])
	}
}

// POST /api/schedules/istekler/:id/yanitla/ {"yanit": "onayla"|"reddet"}
func RespondTradeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}
		id, err := requestID(c)
		if err != nil {
			return err
		}

		var body RespondRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri gönderildi")
		}
		action, err := workflow.ParseAction(body.Answer)
		if err != nil {
			return httperr.From(err)
		}

		if _, err := RespondTrade(actor, id, action); err != nil {
			return httperr.From(err)
		}

		msg := "İstek reddedildi."
		if action == workflow.ActionApprove {
			msg = "İstek onaylandı ve admin onayına gönderildi."
		}
		return c.JSON(fiber.Map{"mesaj": msg})
	}
}

// POST /api/schedules/istekler/:id/geri-cek/
func WithdrawTradeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}
		id, err := requestID(c)
		if err != nil {
			return err
		}

		if err := WithdrawTrade(actor, id); err != nil {
			return httperr.From(err)
		}
		return c.JSON(fiber.Map{"mesaj": "Takas isteği başarıyla geri çekildi."})
	}
}

// GET /api/schedules/admin/istekler/ - admin onayı bekleyenler, en eski önce
func ListAdminTradesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var list []models.TradeRequest
		if err := preloadTrade(database.DB).
			Where("status = ?", models.RequestAwaitingAdmin).
			Order("created_at ASC").Order("id ASC").
			Find(&list).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "İstekler listelenemedi")
		}

		res, err := serializeTrades(database.DB, list)
		if err != nil {
			return httperr.From(err)
		}
		return c.JSON(res)
	}
}

// POST /api/schedules/admin/istekler/:id/aksiyon/ {"action": "onayla"|"reddet"}
func DecideTradeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		admin, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}
		id, err := requestID(c)
		if err != nil {
			return err
		}

		var body ActionRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri gönderildi")
		}
		action, err := workflow.ParseAction(body.Action)
		if err != nil {
			return httperr.From(err)
		}

		if _, err := DecideTrade(admin, id, action); err != nil {
			return httperr.From(err)
		}

		msg := "İstek reddedildi."
		if action == workflow.ActionApprove {
			msg = "Takas başarıyla onaylandı ve vardiyalar değiştirildi."
		}
		return c.JSON(fiber.Map{"mesaj": msg})
	}
}

// ----------------------------------------
// İPTAL İSTEKLERİ
// ----------------------------------------

// POST /api/schedules/iptal-istekleri/ {"vardiya": 12}
func CreateCancelHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		var body CreateCancelRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri gönderildi")
		}

		req, err := CreateCancel(actor, body.ShiftID)
		if err != nil {
			return httperr.From(err)
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"mesaj": "İptal isteğiniz admin onayına gönderildi.",
			"id":    req.ID,
		})
	}
}

func listCancels(c *fiber.Ctx, scope func(*gorm.DB) *gorm.DB, order string) error {
	var list []models.CancelRequest
	if err := scope(database.DB.Preload("Requester").Preload("Shift.Branch").Preload("Shift.Employee")).
		Order(order).Order("id ASC").
		Find(&list).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "İptal istekleri listelenemedi")
	}

	res, err := serializeCancels(database.DB, list)
	if err != nil {
		return httperr.From(err)
	}
	return c.JSON(res)
}

// GET /api/schedules/iptal-isteklerim/
func ListMyCancelsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.CurrentUserID(c)
		if err != nil {
			return err
		}
		return listCancels(c, func(db *gorm.DB) *gorm.DB {
			return db.Where("requester_id = ?", userID)
		}, "created_at DESC")
	}
}

// GET /api/schedules/admin/iptal-istekleri/
func ListAdminCancelsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return listCancels(c, func(db *gorm.DB) *gorm.DB {
			return db.Where("status = ?", models.RequestAwaitingAdmin)
		}, "created_at ASC")
	}
}

// POST /api/schedules/admin/iptal-istekleri/:id/aksiyon/ {"action": "onayla", "yeni_calisan_id": 5}
func DecideCancelHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		admin, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}
		id, err := requestID(c)
		if err != nil {
			return err
		}

		var body ActionRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri gönderildi")
		}
		action, err := workflow.ParseAction(body.Action)
		if err != nil {
			return httperr.From(err)
		}

		decision, err := DecideCancel(admin, id, action, body.ReplacementID)
		if err != nil {
			return httperr.From(err)
		}

		switch {
		case action == workflow.ActionReject:
			return c.JSON(fiber.Map{"mesaj": "İptal isteği reddedildi."})
		case decision.Replacement != nil:
			return c.JSON(fiber.Map{"mesaj": "Vardiya başarıyla " + decision.Replacement.FullName() + " adlı çalışana atandı."})
		}
		return c.JSON(fiber.Map{"mesaj": "Vardiya başarıyla iptal edildi."})
	}
}

// POST /api/schedules/iptal-istekleri/:id/geri-cek/
func WithdrawCancelHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}
		id, err := requestID(c)
		if err != nil {
			return err
		}

		if err := WithdrawCancel(actor, id); err != nil {
			return httperr.From(err)
		}
		return c.JSON(fiber.Map{"mesaj": "Vardiya iptal isteği başarıyla geri çekildi."})
	}
}
