// Package testutil, handler testleri için SQLite bellek içi veritabanı ve örnek kayıtlar kurar.
package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"vardiya-backend/internal/auth"
	"vardiya-backend/internal/clock"
	"vardiya-backend/internal/config"
	"vardiya-backend/internal/database"
	"vardiya-backend/internal/logger"
	"vardiya-backend/internal/models"
	"vardiya-backend/internal/server"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const Password = "parola123"

// SetupDB - her test kendi bellek içi veritabanını alır ve database.DB'ye bağlanır
func SetupDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// SQLite eşzamanlı yazmada kilitlenir, tek bağlantı yeterli
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))

	prev := database.DB
	database.DB = db
	t.Cleanup(func() {
		database.DB = prev
		_ = sqlDB.Close()
	})
	return db
}

func Config(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		JWTSecret:    "test-secret-test-secret-test-secret-123",
		JWTTTL:       time.Hour,
		CORSOrigins:  "http://localhost:3000",
		MediaPath:    t.TempDir(),
		MediaBaseURL: "http://test/media",
		LogLevel:     "error",
		EarlyStart:   15 * time.Minute,
		BulkWorkers:  4,
	}
}

// App - veritabanı ve route'ları kurulu uygulama
func App(t *testing.T) (*fiber.App, *config.Config) {
	t.Helper()
	SetupDB(t)
	cfg := Config(t)
	logger.Init(cfg.LogLevel)
	return server.New(cfg), cfg
}

type UserOption func(*models.User)

func WithGender(g models.Gender) UserOption {
	return func(u *models.User) { u.Gender = &g }
}

func WithName(first, last string) UserOption {
	return func(u *models.User) { u.FirstName, u.LastName = first, last }
}

func Inactive() UserOption {
	return func(u *models.User) { u.IsActive = false }
}

func CreateUser(t *testing.T, username string, role models.UserRole, opts ...UserOption) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(Password), bcrypt.MinCost)
	require.NoError(t, err)

	u := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		FirstName:    username,
		PasswordHash: string(hash),
		Role:         role,
		IsActive:     true,
	}
	for _, o := range opts {
		o(u)
	}
	active := u.IsActive
	require.NoError(t, database.DB.Create(u).Error)
	// default:true olan alan false ile Create'te atlanır
	if !active {
		require.NoError(t, database.DB.Model(u).Update("is_active", false).Error)
		u.IsActive = false
	}
	return u
}

func CreateBranch(t *testing.T, name string) *models.Branch {
	t.Helper()
	b := &models.Branch{Name: name, Address: name + " adresi", QRToken: uuid.NewString()}
	require.NoError(t, database.DB.Create(b).Error)
	return b
}

func CreateShift(t *testing.T, branch *models.Branch, employee *models.User, start time.Time, d time.Duration, status models.ShiftStatus) *models.Shift {
	t.Helper()
	s := &models.Shift{BranchID: branch.ID, StartsAt: start, EndsAt: start.Add(d), Status: status}
	if employee != nil {
		id := employee.ID
		s.EmployeeID = &id
	}
	require.NoError(t, database.DB.Create(s).Error)
	return s
}

// Day - bugünden days gün sonra, saat hour:00 (yerel saat)
func Day(days, hour int) time.Time {
	now := clock.Now().In(time.Local)
	return time.Date(now.Year(), now.Month(), now.Day()+days, hour, 0, 0, 0, time.Local)
}

func Tomorrow(hour int) time.Time {
	return Day(1, hour)
}

func Token(t *testing.T, cfg *config.Config, u *models.User) string {
	t.Helper()
	tok, err := auth.GenerateToken(cfg.JWTSecret, cfg.JWTTTL, u)
	require.NoError(t, err)
	return tok
}

// Do - JSON gövdeli istek atar, body nil olabilir
func Do(t *testing.T, app *fiber.App, method, path, token string, body any) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

// Upload - multipart form ile dosya yükler, content nil ise sadece alanlar gider
func Upload(t *testing.T, app *fiber.App, path, token, field, filename string, content []byte, fields map[string]string) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if content != nil {
		fw, err := w.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func Decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}
