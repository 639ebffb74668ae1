package users

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"vardiya-backend/internal/auth"
	"vardiya-backend/internal/bulk"
	"vardiya-backend/internal/config"
	"vardiya-backend/internal/database"
	"vardiya-backend/internal/httperr"
	"vardiya-backend/internal/importer"
	"vardiya-backend/internal/logger"
	"vardiya-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type GeneratedPassword struct {
	Username string `json:"username"`
	Password string `json:"sifre"`
}

type ImportResponse struct {
	Message   string              `json:"mesaj"`
	Added     int                 `json:"eklenen"`
	Skipped   int                 `json:"atlanan"`
	Problems  []string            `json:"hatalar"`
	Passwords []GeneratedPassword `json:"olusturulan_sifreler"`
}

type BulkDeleteRequest struct {
	IDs []uint `json:"ids"`
}

type BulkDeleteResponse struct {
	Message string `json:"mesaj"`
	bulk.Result
}

var (
	errSelfDelete   = errors.New("kendi hesabınızı silemezsiniz")
	errUserNotFound = errors.New("kullanıcı bulunamadı")
)

const passwordAlphabet = "abcdefghijkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// generatePassword - karışması kolay karakterler (0/O, 1/l) hariç
func generatePassword(n int) (string, error) {
	var sb strings.Builder
	limit := big.NewInt(int64(len(passwordAlphabet)))
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		sb.WriteByte(passwordAlphabet[idx.Int64()])
	}
	return sb.String(), nil
}

// POST /api/kullanicilar/toplu-ice-aktar/
// Kolonlar: username, first_name, last_name, email, telefon, cinsiyet, sifre
func ImportUsersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		rows, err := importer.ReadUpload(c)
		if err != nil {
			return err
		}

		parsed, problems := importer.ParseEmployees(rows)
		if problems == nil {
			problems = []string{}
		}

		resp := ImportResponse{
			Message:   "Kullanıcı içe aktarımı tamamlandı",
			Problems:  problems,
			Passwords: []GeneratedPassword{},
		}

		for _, r := range parsed {
			if err := checkUnique(r.Username, r.Email, 0); err != nil {
				var fe *fiber.Error
				if errors.As(err, &fe) && fe.Code == fiber.StatusBadRequest {
					resp.Skipped++
					continue
				}
				return err
			}

			password := r.Password
			generated := password == ""
			if generated {
				if password, err = generatePassword(10); err != nil {
					return httperr.From(err)
				}
			}
			hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
			if err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Şifre hash'lenemedi")
			}

			user := models.User{
				Username:     r.Username,
				Email:        r.Email,
				FirstName:    r.FirstName,
				LastName:     r.LastName,
				Phone:        emptyToNil(&r.Phone),
				Gender:       r.Gender,
				PasswordHash: string(hash),
				Role:         models.RoleCalisan,
				IsActive:     true,
			}
			if err := database.DB.Create(&user).Error; err != nil {
				resp.Problems = append(resp.Problems, fmt.Sprintf("Satır %d: kaydedilemedi", r.Line))
				continue
			}
			resp.Added++
			if generated {
				resp.Passwords = append(resp.Passwords, GeneratedPassword{Username: user.Username, Password: password})
			}
		}

		logger.Log.WithFields(logrus.Fields{"eklenen": resp.Added, "atlanan": resp.Skipped}).Info("kullanıcı içe aktarımı")
		return c.JSON(resp)
	}
}

// POST /api/kullanicilar/toplu-sil/ {"ids": [...]}
func BulkDeleteUsersHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		currentID, err := auth.CurrentUserID(c)
		if err != nil {
			return err
		}

		var body BulkDeleteRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri gönderildi")
		}
		if len(body.IDs) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Silinecek kullanıcı seçilmedi")
		}

		res := bulk.Run(c.UserContext(), body.IDs, cfg.BulkWorkers, func(ctx context.Context, id uint) error {
			if id == currentID {
				return errSelfDelete
			}
			err := deleteUser(database.DB.WithContext(ctx), id)
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errUserNotFound
			}
			return err
		})

		return c.JSON(BulkDeleteResponse{Message: "Toplu silme tamamlandı", Result: res})
	}
}
