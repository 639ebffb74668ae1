package branches

import (
	"errors"
	"strings"

	"vardiya-backend/internal/database"
	"vardiya-backend/internal/httperr"
	"vardiya-backend/internal/logger"
	"vardiya-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BranchResponse struct {
	ID        uint   `json:"id"`
	Name      string `json:"sube_adi"`
	Address   string `json:"adres"`
	CreatedAt string `json:"olusturma_tarihi"`
}

type CreateBranchRequest struct {
	Name    string `json:"sube_adi"`
	Address string `json:"adres"`
}

type UpdateBranchRequest struct {
	Name    *string `json:"sube_adi"`
	Address *string `json:"adres"`
}

type QRResponse struct {
	BranchID uint   `json:"sube"`
	Name     string `json:"sube_adi"`
	QRToken  string `json:"qr_token"`
}

func toBranchResponse(b *models.Branch) BranchResponse {
	return BranchResponse{
		ID:        b.ID,
		Name:      b.Name,
		Address:   b.Address,
		CreatedAt: b.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

func findBranch(c *fiber.Ctx) (*models.Branch, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Geçersiz şube ID")
	}
	var branch models.Branch
	if err := database.DB.First(&branch, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "Şube bulunamadı")
		}
		return nil, httperr.From(err)
	}
	return &branch, nil
}

func nameTaken(name string, exceptID uint) (bool, error) {
	var count int64
	err := database.DB.Model(&models.Branch{}).
		Where("LOWER(name) = LOWER(?) AND id <> ?", name, exceptID).
		Count(&count).Error
	return count > 0, err
}

// ----------------------------------------
// ŞUBE CRUD
// ----------------------------------------

func CreateBranchHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateBranchRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri gönderildi")
		}

		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Şube adı boş olamaz")
		}

		taken, err := nameTaken(body.Name, 0)
		if err != nil {
			return httperr.From(err)
		}
		if taken {
			return fiber.NewError(fiber.StatusBadRequest, "Bu isimde bir şube zaten var")
		}

		branch := models.Branch{
			Name:    body.Name,
			Address: strings.TrimSpace(body.Address),
			QRToken: uuid.NewString(),
		}
		if err := database.DB.Create(&branch).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Şube oluşturulamadı")
		}

		return c.Status(fiber.StatusCreated).JSON(toBranchResponse(&branch))
	}
}

func ListBranchesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var branches []models.Branch
		if err := database.DB.Order("name ASC").Find(&branches).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Şubeler listelenemedi")
		}

		res := make([]BranchResponse, 0, len(branches))
		for i := range branches {
			res = append(res, toBranchResponse(&branches[i]))
		}
		return c.JSON(res)
	}
}

func GetBranchHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		branch, err := findBranch(c)
		if err != nil {
			return err
		}
		return c.JSON(toBranchResponse(branch))
	}
}

// PUT ve PATCH aynı handler'a gelir, gönderilmeyen alanlar değişmez
func UpdateBranchHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		branch, err := findBranch(c)
		if err != nil {
			return err
		}

		var body UpdateBranchRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri gönderildi")
		}

		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "Şube adı boş olamaz")
			}
			taken, err := nameTaken(name, branch.ID)
			if err != nil {
				return httperr.From(err)
			}
			if taken {
				return fiber.NewError(fiber.StatusBadRequest, "Bu isimde bir şube zaten var")
			}
			branch.Name = name
		}

		if body.Address != nil {
			branch.Address = strings.TrimSpace(*body.Address)
		}

		if err := database.DB.Save(branch).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Şube güncellenemedi")
		}

		return c.JSON(toBranchResponse(branch))
	}
}

func DeleteBranchHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		branch, err := findBranch(c)
		if err != nil {
			return err
		}

		if err := deleteBranch(database.DB, branch.ID); err != nil {
			logger.Log.WithError(err).WithField("branch_id", branch.ID).Error("şube silinemedi")
			return fiber.NewError(fiber.StatusInternalServerError, "Şube silinemedi")
		}

		return c.SendStatus(fiber.StatusNoContent)
	}
}

// deleteBranch - şubeye bağlı kayıtlar da silinir; SQLite'ta FK cascade kapalı olabilir
func deleteBranch(db *gorm.DB, id uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var shiftIDs []uint
		if err := tx.Model(&models.Shift{}).Where("branch_id = ?", id).Pluck("id", &shiftIDs).Error; err != nil {
			return err
		}
		if len(shiftIDs) > 0 {
			if err := tx.Where("requester_shift_id IN ? OR target_shift_id IN ?", shiftIDs, shiftIDs).Delete(&models.TradeRequest{}).Error; err != nil {
				return err
			}
			if err := tx.Where("shift_id IN ?", shiftIDs).Delete(&models.CancelRequest{}).Error; err != nil {
				return err
			}
		}
		for _, m := range []any{&models.Shift{}, &models.BranchHours{}, &models.Preference{}, &models.RestrictionRule{}} {
			if err := tx.Where("branch_id = ?", id).Delete(m).Error; err != nil {
				return err
			}
		}
		res := tx.Delete(&models.Branch{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// ----------------------------------------
// QR KOD
// ----------------------------------------

// GET /api/subeler/:id/qr/
func GetQRHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		branch, err := findBranch(c)
		if err != nil {
			return err
		}
		return c.JSON(QRResponse{BranchID: branch.ID, Name: branch.Name, QRToken: branch.QRToken})
	}
}

// POST /api/subeler/:id/qr/yenile/ - eski basılı QR artık geçmez
func RotateQRHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		branch, err := findBranch(c)
		if err != nil {
			return err
		}

		branch.QRToken = uuid.NewString()
		if err := database.DB.Model(branch).Update("qr_token", branch.QRToken).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "QR kod yenilenemedi")
		}

		logger.Log.WithField("branch_id", branch.ID).Info("şube QR kodu yenilendi")
		return c.JSON(QRResponse{BranchID: branch.ID, Name: branch.Name, QRToken: branch.QRToken})
	}
}
