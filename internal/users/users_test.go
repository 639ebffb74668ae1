package users_test

import (
	"bytes"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"vardiya-backend/internal/database"
	"vardiya-backend/internal/models"
	"vardiya-backend/internal/testutil"
	"vardiya-backend/internal/users"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func TestCreateUser(t *testing.T) {
	app, cfg := testutil.App(t)
	admin := testutil.CreateUser(t, "admin", models.RoleAdmin)
	token := testutil.Token(t, cfg, admin)

	resp := testutil.Do(t, app, http.MethodPost, "/api/kullanicilar/", token, map[string]any{
		"username":   "mehmet",
		"email":      "Mehmet@Example.com",
		"first_name": "Mehmet",
		"cinsiyet":   "erkek",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := testutil.Decode[users.UserResponse](t, resp)
	assert.Equal(t, "mehmet@example.com", created.Email)
	assert.Equal(t, models.RoleCalisan, created.Role)
	assert.False(t, created.IsStaff)

	t.Run("user without password cannot log in", func(t *testing.T) {
		resp := testutil.Do(t, app, http.MethodPost, "/api/auth/login/", "", map[string]string{
			"username": "mehmet",
			"password": "herhangi",
		})
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	tests := []struct {
		name string
		body map[string]any
	}{
		{"duplicate username", map[string]any{"username": "mehmet", "email": "baska@example.com"}},
		{"duplicate email", map[string]any{"username": "baska", "email": "mehmet@example.com"}},
		{"missing email", map[string]any{"username": "yeni"}},
		{"invalid email", map[string]any{"username": "yeni", "email": "yok"}},
		{"invalid role", map[string]any{"username": "yeni", "email": "yeni@example.com", "rol": "patron"}},
		{"invalid gender", map[string]any{"username": "yeni", "email": "yeni@example.com", "cinsiyet": "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := testutil.Do(t, app, http.MethodPost, "/api/kullanicilar/", token, tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestListUsersOrderedByFirstName(t *testing.T) {
	app, cfg := testutil.App(t)
	emp := testutil.CreateUser(t, "zeynep", models.RoleCalisan, testutil.WithName("Zeynep", "Kaya"))
	testutil.CreateUser(t, "ali", models.RoleCalisan, testutil.WithName("Ali", "Demir"))
	testutil.CreateUser(t, "admin", models.RoleAdmin, testutil.WithName("Mert", "Admin"))
	token := testutil.Token(t, cfg, emp)

	for _, path := range []string{"/api/kullanicilar/", "/api/kullanicilar/liste/"} {
		resp := testutil.Do(t, app, http.MethodGet, path, token, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		list := testutil.Decode[[]users.UserResponse](t, resp)
		require.Len(t, list, 3)
		assert.Equal(t, "Ali", list[0].FirstName)
		assert.Equal(t, "Zeynep", list[2].FirstName)
	}

	resp := testutil.Do(t, app, http.MethodGet, "/api/kullanicilar/?rol=calisan", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, testutil.Decode[[]users.UserResponse](t, resp), 2)
}

func TestUpdateUserDeactivates(t *testing.T) {
	app, cfg := testutil.App(t)
	admin := testutil.CreateUser(t, "admin", models.RoleAdmin)
	emp := testutil.CreateUser(t, "ayse", models.RoleCalisan)
	empToken := testutil.Token(t, cfg, emp)

	resp := testutil.Do(t, app, http.MethodPatch, fmt.Sprintf("/api/kullanicilar/%d/", emp.ID), testutil.Token(t, cfg, admin), map[string]any{
		"is_active": false,
		"telefon":   "05551112233",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := testutil.Decode[users.UserResponse](t, resp)
	assert.False(t, got.IsActive)
	require.NotNil(t, got.Phone)
	assert.Equal(t, "05551112233", *got.Phone)

	// pasif kullanıcının eski token'ı artık geçmez
	resp = testutil.Do(t, app, http.MethodGet, "/api/kullanicilar/profil/", empToken, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestDeleteUserReleasesShifts(t *testing.T) {
	app, cfg := testutil.App(t)
	admin := testutil.CreateUser(t, "admin", models.RoleAdmin)
	token := testutil.Token(t, cfg, admin)
	emp := testutil.CreateUser(t, "ayse", models.RoleCalisan)
	branch := testutil.CreateBranch(t, "Merkez")
	shift := testutil.CreateShift(t, branch, emp, testutil.Tomorrow(9), 8*time.Hour, models.ShiftPlanned)
	done := testutil.CreateShift(t, branch, emp, testutil.Day(-2, 9), 8*time.Hour, models.ShiftCompleted)

	resp := testutil.Do(t, app, http.MethodDelete, fmt.Sprintf("/api/kullanicilar/%d/", admin.ID), token, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = testutil.Do(t, app, http.MethodDelete, fmt.Sprintf("/api/kullanicilar/%d/", emp.ID), token, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	var reloaded models.Shift
	require.NoError(t, database.DB.First(&reloaded, shift.ID).Error)
	assert.Nil(t, reloaded.EmployeeID)

	t.Run("completed shifts keep their employee", func(t *testing.T) {
		var kept models.Shift
		require.NoError(t, database.DB.Preload("Employee", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).First(&kept, done.ID).Error)
		require.NotNil(t, kept.EmployeeID)
		assert.Equal(t, emp.ID, *kept.EmployeeID)
		require.NotNil(t, kept.Employee)
		assert.Equal(t, emp.FirstName, kept.Employee.FirstName)
	})

	t.Run("deleted user is gone and the username is free again", func(t *testing.T) {
		resp := testutil.Do(t, app, http.MethodGet, fmt.Sprintf("/api/kullanicilar/%d/", emp.ID), token, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)

		resp = testutil.Do(t, app, http.MethodDelete, fmt.Sprintf("/api/kullanicilar/%d/", emp.ID), token, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)

		resp = testutil.Do(t, app, http.MethodPost, "/api/kullanicilar/", token, map[string]any{
			"username": emp.Username,
			"email":    emp.Email,
		})
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
	})
}

func TestBulkDeleteUsers(t *testing.T) {
	app, cfg := testutil.App(t)
	admin := testutil.CreateUser(t, "admin", models.RoleAdmin)
	a := testutil.CreateUser(t, "a", models.RoleCalisan)
	b := testutil.CreateUser(t, "b", models.RoleCalisan)

	resp := testutil.Do(t, app, http.MethodPost, "/api/kullanicilar/toplu-sil/", testutil.Token(t, cfg, admin), map[string]any{
		"ids": []uint{a.ID, admin.ID, 4242, b.ID},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	got := testutil.Decode[users.BulkDeleteResponse](t, resp)
	assert.Equal(t, 2, got.Basarili)
	assert.Equal(t, 2, got.Basarisiz)
	assert.Len(t, got.Hatalar, 2)

	var count int64
	require.NoError(t, database.DB.Model(&models.User{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestImportUsersGeneratesPasswords(t *testing.T) {
	app, cfg := testutil.App(t)
	admin := testutil.CreateUser(t, "admin", models.RoleAdmin)
	testutil.CreateUser(t, "mevcut", models.RoleCalisan)

	f := excelize.NewFile()
	rows := [][]any{
		{"Username", "First Name", "Last Name", "Email", "Telefon", "Cinsiyet", "Şifre"},
		{"elif", "Elif", "Yıldız", "elif@example.com", "", "Kadın", ""},
		{"can", "Can", "Öz", "can@example.com", "0555", "erkek", "gizli123"},
		{"mevcut", "Mevcut", "Kişi", "mevcut2@example.com", "", "", ""},
		{"bozuk", "Bozuk", "", "email-degil", "", "", ""},
	}
	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &rows[i]))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, f.Close())

	resp := testutil.Upload(t, app, "/api/kullanicilar/toplu-ice-aktar/", testutil.Token(t, cfg, admin), "file", "calisanlar.xlsx", bytes.Clone(buf.Bytes()), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	got := testutil.Decode[users.ImportResponse](t, resp)
	assert.Equal(t, 2, got.Added)
	assert.Equal(t, 1, got.Skipped)
	assert.Len(t, got.Problems, 1)
	require.Len(t, got.Passwords, 1)
	assert.Equal(t, "elif", got.Passwords[0].Username)

	var elif models.User
	require.NoError(t, database.DB.Where("username = ?", "elif").First(&elif).Error)
	require.NotNil(t, elif.Gender)
	assert.Equal(t, models.GenderKadin, *elif.Gender)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(elif.PasswordHash), []byte(got.Passwords[0].Password)))
}

func TestProfileUpdateRequestFlow(t *testing.T) {
	app, cfg := testutil.App(t)
	admin := testutil.CreateUser(t, "admin", models.RoleAdmin)
	adminToken := testutil.Token(t, cfg, admin)
	emp := testutil.CreateUser(t, "ayse", models.RoleCalisan)
	empToken := testutil.Token(t, cfg, emp)

	resp := testutil.Do(t, app, http.MethodPost, "/api/kullanicilar/profil/", empToken, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = testutil.Upload(t, app, "/api/kullanicilar/profil/", empToken, "profil_resmi", "yuz.png", []byte("png"), map[string]string{
		"telefon": "05321234567",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := testutil.Decode[map[string]any](t, resp)
	reqID := uint(created["id"].(float64))

	t.Run("second pending request is rejected", func(t *testing.T) {
		resp := testutil.Do(t, app, http.MethodPost, "/api/kullanicilar/profil/", empToken, map[string]any{"adres": "yeni"})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("rejected request leaves no photo on disk", func(t *testing.T) {
		resp := testutil.Upload(t, app, "/api/kullanicilar/profil/", empToken, "profil_resmi", "ikinci.png", []byte("png"), map[string]string{
			"adres": "yeni",
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		files, err := os.ReadDir(filepath.Join(cfg.MediaPath, "profil_resimleri"))
		require.NoError(t, err)
		assert.Len(t, files, 1)

		var pending int64
		require.NoError(t, database.DB.Model(&models.ProfileUpdateRequest{}).
			Where("user_id = ? AND status = ?", emp.ID, models.ProfileRequestPending).
			Count(&pending).Error)
		assert.EqualValues(t, 1, pending)
	})

	resp = testutil.Do(t, app, http.MethodGet, "/api/kullanicilar/admin/profil-talepleri/", adminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	pending := testutil.Decode[[]users.ProfileRequestResponse](t, resp)
	require.Len(t, pending, 1)
	assert.True(t, pending[0].HasPhoto)
	require.NotNil(t, pending[0].NewPhotoURL)

	resp = testutil.Do(t, app, http.MethodPost, fmt.Sprintf("/api/kullanicilar/admin/profil-talepleri/%d/", reqID), adminToken, map[string]string{"action": "onayla"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var updated models.User
	require.NoError(t, database.DB.First(&updated, emp.ID).Error)
	require.NotNil(t, updated.Phone)
	assert.Equal(t, "05321234567", *updated.Phone)
	require.NotNil(t, updated.ProfilePhoto)
	_, err := os.Stat(filepath.Join(cfg.MediaPath, filepath.FromSlash(*updated.ProfilePhoto)))
	assert.NoError(t, err)

	resp = testutil.Do(t, app, http.MethodGet, "/api/kullanicilar/profil/", empToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	profile := testutil.Decode[users.UserResponse](t, resp)
	require.NotNil(t, profile.ProfilePhotoURL)
	assert.Contains(t, *profile.ProfilePhotoURL, "http://test/media/profil_resimleri/")

	t.Run("already decided request is gone", func(t *testing.T) {
		resp := testutil.Do(t, app, http.MethodPost, fmt.Sprintf("/api/kullanicilar/admin/profil-talepleri/%d/", reqID), adminToken, map[string]string{"action": "reddet"})
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	var logs int64
	require.NoError(t, database.DB.Model(&models.AuditLog{}).Where("entity_type = ?", models.EntityProfileRequest).Count(&logs).Error)
	assert.EqualValues(t, 1, logs)
}
