package branches

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"vardiya-backend/internal/bulk"
	"vardiya-backend/internal/config"
	"vardiya-backend/internal/database"
	"vardiya-backend/internal/httperr"
	"vardiya-backend/internal/importer"
	"vardiya-backend/internal/logger"
	"vardiya-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var errBranchNotFound = errors.New("şube bulunamadı")

type ImportResponse struct {
	Message  string   `json:"mesaj"`
	Added    int      `json:"eklenen"`
	Skipped  int      `json:"atlanan"`
	Problems []string `json:"hatalar"`
}

type BulkDeleteRequest struct {
	IDs []uint `json:"ids"`
}

type BulkDeleteResponse struct {
	Message string `json:"mesaj"`
	bulk.Result
}

// POST /api/subeler/toplu-ice-aktar/ (multipart "file": sube_adi, adres)
func ImportBranchesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		rows, err := importer.ReadUpload(c)
		if err != nil {
			return err
		}

		parsed, problems := importer.ParseBranches(rows)
		if problems == nil {
			problems = []string{}
		}

		added, skipped := 0, 0
		seen := make(map[string]bool)
		for _, r := range parsed {
			key := strings.ToLower(r.Name)
			if seen[key] {
				skipped++
				continue
			}
			seen[key] = true

			taken, err := nameTaken(r.Name, 0)
			if err != nil {
				return httperr.From(err)
			}
			if taken {
				skipped++
				continue
			}

			branch := models.Branch{Name: r.Name, Address: r.Address, QRToken: uuid.NewString()}
			if err := database.DB.Create(&branch).Error; err != nil {
				problems = append(problems, "Satır "+strconv.Itoa(r.Line)+": kaydedilemedi")
				continue
			}
			added++
		}

		logger.Log.WithFields(logrus.Fields{"eklenen": added, "atlanan": skipped}).Info("şube içe aktarımı")
		return c.JSON(ImportResponse{
			Message:  "Şube içe aktarımı tamamlandı",
			Added:    added,
			Skipped:  skipped,
			Problems: problems,
		})
	}
}

// POST /api/subeler/toplu-sil/ {"ids": [...]}
func BulkDeleteBranchesHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body BulkDeleteRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri gönderildi")
		}
		if len(body.IDs) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Silinecek şube seçilmedi")
		}

		res := bulk.Run(c.UserContext(), body.IDs, cfg.BulkWorkers, func(ctx context.Context, id uint) error {
			err := deleteBranch(database.DB.WithContext(ctx), id)
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errBranchNotFound
			}
			return err
		})

		return c.JSON(BulkDeleteResponse{Message: "Toplu silme tamamlandı", Result: res})
	}
}
