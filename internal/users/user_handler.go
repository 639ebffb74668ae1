package users

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"vardiya-backend/internal/auth"
	"vardiya-backend/internal/config"
	"vardiya-backend/internal/database"
	"vardiya-backend/internal/httperr"
	"vardiya-backend/internal/logger"
	"vardiya-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type UserResponse struct {
	ID              uint            `json:"id"`
	Username        string          `json:"username"`
	FirstName       string          `json:"first_name"`
	LastName        string          `json:"last_name"`
	Email           string          `json:"email"`
	Role            models.UserRole `json:"rol"`
	Phone           *string         `json:"telefon"`
	Address         *string         `json:"adres"`
	IsStaff         bool            `json:"is_staff"`
	IsActive        bool            `json:"is_active"`
	ProfilePhoto    *string         `json:"profil_resmi"`
	ProfilePhotoURL *string         `json:"profil_resmi_url"`
	Gender          *models.Gender  `json:"cinsiyet"`
	Latitude        *float64        `json:"enlem"`
	Longitude       *float64        `json:"boylam"`
}

type CreateUserRequest struct {
	Username  string          `json:"username"`
	Email     string          `json:"email"`
	FirstName string          `json:"first_name"`
	LastName  string          `json:"last_name"`
	Password  string          `json:"password"`
	Role      models.UserRole `json:"rol"`
	Phone     *string         `json:"telefon"`
	Address   *string         `json:"adres"`
	Gender    *models.Gender  `json:"cinsiyet"`
	Latitude  *float64        `json:"enlem"`
	Longitude *float64        `json:"boylam"`
}

type UpdateUserRequest struct {
	Username  *string          `json:"username"`
	Email     *string          `json:"email"`
	FirstName *string          `json:"first_name"`
	LastName  *string          `json:"last_name"`
	Password  *string          `json:"password"`
	Role      *models.UserRole `json:"rol"`
	Phone     *string          `json:"telefon"`
	Address   *string          `json:"adres"`
	Gender    *models.Gender   `json:"cinsiyet"`
	Latitude  *float64         `json:"enlem"`
	Longitude *float64         `json:"boylam"`
	IsActive  *bool            `json:"is_active"`
}

// PhotoURL - göreli medya yolunu istemcinin açabileceği mutlak URL'ye çevirir
func PhotoURL(cfg *config.Config, path *string) *string {
	if path == nil || *path == "" {
		return nil
	}
	url := strings.TrimRight(cfg.MediaBaseURL, "/") + "/" + strings.TrimLeft(*path, "/")
	return &url
}

func ToUserResponse(cfg *config.Config, u *models.User) UserResponse {
	photoURL := PhotoURL(cfg, u.ProfilePhoto)
	return UserResponse{
		ID:              u.ID,
		Username:        u.Username,
		FirstName:       u.FirstName,
		LastName:        u.LastName,
		Email:           u.Email,
		Role:            u.Role,
		Phone:           u.Phone,
		Address:         u.Address,
		IsStaff:         u.IsStaff(),
		IsActive:        u.IsActive,
		ProfilePhoto:    photoURL,
		ProfilePhotoURL: photoURL,
		Gender:          u.Gender,
		Latitude:        u.Latitude,
		Longitude:       u.Longitude,
	}
}

func validRole(r models.UserRole) bool {
	return r == models.RoleAdmin || r == models.RoleCalisan
}

func validGender(g *models.Gender) bool {
	return g == nil || *g == models.GenderKadin || *g == models.GenderErkek
}

func emptyToNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// uniqueTaken - username/email başka bir kullanıcıda var mı
func uniqueTaken(column, value string, exceptID uint) (bool, error) {
	var count int64
	err := database.DB.Model(&models.User{}).
		Where("LOWER("+column+") = LOWER(?) AND id <> ?", value, exceptID).
		Count(&count).Error
	return count > 0, err
}

func checkUnique(username, email string, exceptID uint) error {
	if taken, err := uniqueTaken("username", username, exceptID); err != nil {
		return httperr.From(err)
	} else if taken {
		return fiber.NewError(fiber.StatusBadRequest, "Bu kullanıcı adı zaten kullanılıyor")
	}
	if taken, err := uniqueTaken("email", email, exceptID); err != nil {
		return httperr.From(err)
	} else if taken {
		return fiber.NewError(fiber.StatusBadRequest, "Bu email zaten kullanılıyor")
	}
	return nil
}

func findUser(c *fiber.Ctx) (*models.User, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Geçersiz kullanıcı ID")
	}
	var user models.User
	if err := database.DB.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "Kullanıcı bulunamadı")
		}
		return nil, httperr.From(err)
	}
	return &user, nil
}

// GET /api/kullanicilar/ ve /api/kullanicilar/liste/
func ListUsersHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Order("first_name ASC").Order("id ASC")
		if rol := c.Query("rol"); rol != "" {
			dbq = dbq.Where("role = ?", rol)
		}

		var list []models.User
		if err := dbq.Find(&list).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kullanıcılar listelenemedi")
		}

		res := make([]UserResponse, 0, len(list))
		for i := range list {
			res = append(res, ToUserResponse(cfg, &list[i]))
		}
		return c.JSON(res)
	}
}

func GetUserHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := findUser(c)
		if err != nil {
			return err
		}
		return c.JSON(ToUserResponse(cfg, user))
	}
}

func CreateUserHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateUserRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri gönderildi")
		}

		body.Username = strings.TrimSpace(body.Username)
		body.Email = strings.ToLower(strings.TrimSpace(body.Email))
		if body.Username == "" || body.Email == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Kullanıcı adı ve email zorunlu")
		}
		if _, err := mail.ParseAddress(body.Email); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz email adresi")
		}
		if body.Role == "" {
			body.Role = models.RoleCalisan
		}
		if !validRole(body.Role) {
			return fiber.NewError(fiber.StatusBadRequest, "Rol admin veya calisan olmalı")
		}
		if !validGender(body.Gender) {
			return fiber.NewError(fiber.StatusBadRequest, "Cinsiyet kadin veya erkek olmalı")
		}
		if err := checkUnique(body.Username, body.Email, 0); err != nil {
			return err
		}

		user := models.User{
			Username:  body.Username,
			Email:     body.Email,
			FirstName: strings.TrimSpace(body.FirstName),
			LastName:  strings.TrimSpace(body.LastName),
			Role:      body.Role,
			Phone:     emptyToNil(body.Phone),
			Address:   emptyToNil(body.Address),
			Gender:    body.Gender,
			Latitude:  body.Latitude,
			Longitude: body.Longitude,
			IsActive:  true,
		}

		// Şifre yoksa kullanıcı, şifre atanana kadar giriş yapamaz
		if body.Password != "" {
			hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
			if err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Şifre hash'lenemedi")
			}
			user.PasswordHash = string(hash)
		}

		if err := database.DB.Create(&user).Error; err != nil {
			logger.Log.WithError(err).Error("kullanıcı oluşturulamadı")
			return fiber.NewError(fiber.StatusInternalServerError, "Kullanıcı oluşturulamadı")
		}

		return c.Status(fiber.StatusCreated).JSON(ToUserResponse(cfg, &user))
	}
}

// PUT ve PATCH, gönderilmeyen alanlar değişmez
func UpdateUserHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := findUser(c)
		if err != nil {
			return err
		}

		var body UpdateUserRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri gönderildi")
		}

		if body.Username != nil {
			user.Username = strings.TrimSpace(*body.Username)
		}
		if body.Email != nil {
			user.Email = strings.ToLower(strings.TrimSpace(*body.Email))
			if _, err := mail.ParseAddress(user.Email); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Geçersiz email adresi")
			}
		}
		if user.Username == "" || user.Email == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Kullanıcı adı ve email boş olamaz")
		}
		if err := checkUnique(user.Username, user.Email, user.ID); err != nil {
			return err
		}

		if body.FirstName != nil {
			user.FirstName = strings.TrimSpace(*body.FirstName)
		}
		if body.LastName != nil {
			user.LastName = strings.TrimSpace(*body.LastName)
		}
		if body.Role != nil {
			if !validRole(*body.Role) {
				return fiber.NewError(fiber.StatusBadRequest, "Rol admin veya calisan olmalı")
			}
			user.Role = *body.Role
		}
		if body.Phone != nil {
			user.Phone = emptyToNil(body.Phone)
		}
		if body.Address != nil {
			user.Address = emptyToNil(body.Address)
		}
		if body.Gender != nil {
			g := body.Gender
			if *g == "" {
				g = nil
			}
			if !validGender(g) {
				return fiber.NewError(fiber.StatusBadRequest, "Cinsiyet kadin veya erkek olmalı")
			}
			user.Gender = g
		}
		if body.Latitude != nil {
			user.Latitude = body.Latitude
		}
		if body.Longitude != nil {
			user.Longitude = body.Longitude
		}
		if body.IsActive != nil {
			user.IsActive = *body.IsActive
		}
		if body.Password != nil && *body.Password != "" {
			hash, err := bcrypt.GenerateFromPassword([]byte(*body.Password), bcrypt.DefaultCost)
			if err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Şifre hash'lenemedi")
			}
			user.PasswordHash = string(hash)
		}

		// Save, false olan is_active'i de yazar
		if err := database.DB.Save(user).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kullanıcı güncellenemedi")
		}

		return c.JSON(ToUserResponse(cfg, user))
	}
}

func DeleteUserHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := findUser(c)
		if err != nil {
			return err
		}

		currentID, err := auth.CurrentUserID(c)
		if err != nil {
			return err
		}
		if currentID == user.ID {
			return fiber.NewError(fiber.StatusBadRequest, "Kendi hesabınızı silemezsiniz")
		}

		if err := deleteUser(database.DB, user.ID); err != nil {
			logger.Log.WithError(err).WithField("user_id", user.ID).Error("kullanıcı silinemedi")
			return fiber.NewError(fiber.StatusInternalServerError, "Kullanıcı silinemedi")
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// deleteUser - tamamlanmamış vardiyalar boşa düşer, kullanıcıya ait istek ve tercihler silinir
func deleteUser(db *gorm.DB, id uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("requester_id = ? OR target_employee_id = ?", id, id).Delete(&models.TradeRequest{}).Error; err != nil {
			return err
		}
		var pending []models.CancelRequest
		if err := tx.Where("requester_id = ? AND status = ?", id, models.RequestAwaitingAdmin).Find(&pending).Error; err != nil {
			return err
		}
		for _, cr := range pending {
			if err := tx.Model(&models.Shift{}).
				Where("id = ? AND status = ?", cr.ShiftID, models.ShiftCancelPending).
				Update("status", cr.OriginalShiftStatus).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("requester_id = ?", id).Delete(&models.CancelRequest{}).Error; err != nil {
			return err
		}
		for _, m := range []any{&models.Availability{}, &models.Preference{}, &models.ProfileUpdateRequest{}} {
			if err := tx.Where("user_id = ?", id).Delete(m).Error; err != nil {
				return err
			}
		}
		// tamamlanan vardiyalar istatistik için çalışanında kalır
		if err := tx.Model(&models.Shift{}).
			Where("employee_id = ? AND status <> ?", id, models.ShiftCompleted).
			Update("employee_id", nil).Error; err != nil {
			return err
		}
		// soft delete; username ve email yeni kullanıcılar için boşa çıkar
		prefix := fmt.Sprintf("silinmis_%d_", id)
		if err := tx.Model(&models.User{}).Where("id = ?", id).Updates(map[string]any{
			"username":  gorm.Expr("? || username", prefix),
			"email":     gorm.Expr("? || email", prefix),
			"is_active": false,
		}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.User{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
