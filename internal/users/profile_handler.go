package users

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"vardiya-backend/internal/audit"
	"vardiya-backend/internal/auth"
	"vardiya-backend/internal/config"
	"vardiya-backend/internal/database"
	"vardiya-backend/internal/httperr"
	"vardiya-backend/internal/logger"
	"vardiya-backend/internal/models"
	"vardiya-backend/internal/workflow"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const photoDir = "profil_resimleri"

var allowedPhotoExt = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true}

type ProfileUpdateBody struct {
	Phone   *string `json:"telefon" form:"telefon"`
	Address *string `json:"adres" form:"adres"`
}

type ProfileRequestResponse struct {
	ID          uint                        `json:"id"`
	UserID      uint                        `json:"calisan_id"`
	UserName    string                      `json:"calisan"`
	NewPhone    *string                     `json:"yeni_telefon"`
	NewAddress  *string                     `json:"yeni_adres"`
	HasPhoto    bool                        `json:"profil_resmi_var"`
	NewPhotoURL *string                     `json:"yeni_profil_resmi_url"`
	Status      models.ProfileRequestStatus `json:"durum"`
	CreatedAt   time.Time                   `json:"olusturma_tarihi"`
	DecidedAt   *time.Time                  `json:"karar_tarihi"`
}

type ProfileDecisionRequest struct {
	Action string `json:"action"`
}

// GET /api/kullanicilar/profil/
func GetProfileHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}
		return c.JSON(ToUserResponse(cfg, user))
	}
}

// savePhoto - yüklenen dosyayı MEDIA_PATH/profil_resimleri altına rastgele adla yazar
func savePhoto(c *fiber.Ctx, cfg *config.Config) (*string, error) {
	fh, err := c.FormFile("profil_resmi")
	if err != nil {
		// dosya gönderilmemiş
		return nil, nil
	}

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !allowedPhotoExt[ext] {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Profil resmi jpg, png veya webp olmalı")
	}

	dir := filepath.Join(cfg.MediaPath, photoDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("medya klasörü oluşturulamadı: %w", err)
	}

	rel := photoDir + "/" + uuid.NewString() + ext
	if err := c.SaveFile(fh, filepath.Join(cfg.MediaPath, filepath.FromSlash(rel))); err != nil {
		return nil, fmt.Errorf("profil resmi kaydedilemedi: %w", err)
	}
	return &rel, nil
}

// removePhoto - kaydedilemeyen talebin dosyası diskte kalmaz
func removePhoto(cfg *config.Config, rel *string) {
	if rel == nil {
		return
	}
	if err := os.Remove(filepath.Join(cfg.MediaPath, filepath.FromSlash(*rel))); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Log.WithFields(logrus.Fields{"dosya": *rel}).WithError(err).Warn("profil resmi silinemedi")
	}
}

// POST /api/kullanicilar/profil/ (multipart veya JSON: telefon, adres, profil_resmi)
func CreateProfileRequestHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.CurrentUserID(c)
		if err != nil {
			return err
		}

		var body ProfileUpdateBody
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri gönderildi")
		}

		photo, err := savePhoto(c, cfg)
		if err != nil {
			return httperr.From(err)
		}

		req := models.ProfileUpdateRequest{
			UserID:     userID,
			NewPhone:   emptyToNil(body.Phone),
			NewAddress: emptyToNil(body.Address),
			NewPhoto:   photo,
			Status:     models.ProfileRequestPending,
		}
		if req.NewPhone == nil && req.NewAddress == nil && req.NewPhoto == nil {
			return fiber.NewError(fiber.StatusBadRequest, "En az bir alan değiştirilmeli.")
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			// kullanıcı satırı kilitlenir; aynı anda gelen iki talepten biri beklemeye düşer
			var u models.User
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Select("id").First(&u, userID).Error; err != nil {
				return err
			}
			var pending int64
			if err := tx.Model(&models.ProfileUpdateRequest{}).
				Where("user_id = ? AND status = ?", userID, models.ProfileRequestPending).
				Count(&pending).Error; err != nil {
				return err
			}
			if pending > 0 {
				return fiber.NewError(fiber.StatusBadRequest, "Zaten beklemede olan bir güncelleme talebiniz var.")
			}
			if err := tx.Create(&req).Error; err != nil {
				return fmt.Errorf("güncelleme talebi kaydedilemedi: %w", err)
			}
			return nil
		})
		if err != nil {
			removePhoto(cfg, photo)
			return httperr.From(err)
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"mesaj": "Güncelleme talebiniz admin onayına gönderildi.",
			"id":    req.ID,
		})
	}
}

func toProfileRequestResponse(cfg *config.Config, r *models.ProfileUpdateRequest) ProfileRequestResponse {
	return ProfileRequestResponse{
		ID:          r.ID,
		UserID:      r.UserID,
		UserName:    r.User.FullName(),
		NewPhone:    r.NewPhone,
		NewAddress:  r.NewAddress,
		HasPhoto:    r.NewPhoto != nil,
		NewPhotoURL: PhotoURL(cfg, r.NewPhoto),
		Status:      r.Status,
		CreatedAt:   r.CreatedAt,
		DecidedAt:   r.DecidedAt,
	}
}

// GET /api/kullanicilar/admin/profil-talepleri/
func ListProfileRequestsHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var list []models.ProfileUpdateRequest
		if err := database.DB.Preload("User").
			Where("status = ?", models.ProfileRequestPending).
			Order("created_at DESC").
			Find(&list).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Talepler listelenemedi")
		}

		res := make([]ProfileRequestResponse, 0, len(list))
		for i := range list {
			res = append(res, toProfileRequestResponse(cfg, &list[i]))
		}
		return c.JSON(res)
	}
}

// POST /api/kullanicilar/admin/profil-talepleri/:id/ {"action": "onayla"|"reddet"}
func DecideProfileRequestHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		admin, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz talep ID")
		}

		var body ProfileDecisionRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri gönderildi")
		}
		action, err := workflow.ParseAction(body.Action)
		if err != nil {
			return httperr.From(err)
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			return decideProfileRequest(tx, admin, uint(id), action)
		})
		if err != nil {
			return httperr.From(err)
		}

		msg := "Talep reddedildi."
		if action == workflow.ActionApprove {
			msg = "Talep onaylandı ve profil güncellendi."
		}
		return c.JSON(fiber.Map{"mesaj": msg})
	}
}

var errProfileRequestGone = fiber.NewError(fiber.StatusNotFound, "Talep bulunamadı veya zaten işlenmiş.")

func decideProfileRequest(tx *gorm.DB, admin *models.User, id uint, action workflow.Action) error {
	var req models.ProfileUpdateRequest
	if err := tx.Where("id = ? AND status = ?", id, models.ProfileRequestPending).First(&req).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errProfileRequestGone
		}
		return err
	}

	next := models.ProfileRequestRejected
	if action == workflow.ActionApprove {
		next = models.ProfileRequestApproved
	}

	now := time.Now()
	res := tx.Model(&models.ProfileUpdateRequest{}).
		Where("id = ? AND status = ?", req.ID, models.ProfileRequestPending).
		Updates(map[string]any{"status": next, "decided_at": now})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errProfileRequestGone
	}

	if action == workflow.ActionApprove {
		updates := map[string]any{}
		if req.NewPhone != nil && *req.NewPhone != "" {
			updates["phone"] = *req.NewPhone
		}
		if req.NewAddress != nil && *req.NewAddress != "" {
			updates["address"] = *req.NewAddress
		}
		if req.NewPhoto != nil {
			updates["profile_photo"] = *req.NewPhoto
		}
		if len(updates) > 0 {
			if err := tx.Model(&models.User{}).Where("id = ?", req.UserID).Updates(updates).Error; err != nil {
				return err
			}
		}
	}

	auditAction := models.AuditActionReject
	if action == workflow.ActionApprove {
		auditAction = models.AuditActionApprove
	}
	logger.Log.WithFields(logrus.Fields{"request_id": req.ID, "status": next}).Info("profil talebi karara bağlandı")

	return audit.Record(tx, audit.Entry{
		UserID:      admin.ID,
		UserName:    admin.FullName(),
		EntityType:  models.EntityProfileRequest,
		EntityID:    req.ID,
		Action:      auditAction,
		Description: fmt.Sprintf("Profil güncelleme talebi %s", next),
		Before:      map[string]any{"durum": req.Status},
		After:       map[string]any{"durum": next},
	})
}
