package branches_test

import (
	"bytes"
	"net/http"
	"strconv"
	"testing"
	"time"

	"vardiya-backend/internal/branches"
	"vardiya-backend/internal/database"
	"vardiya-backend/internal/models"
	"vardiya-backend/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func xlsx(t *testing.T, rows ...[]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return bytes.Clone(buf.Bytes())
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func TestBranchCRUD(t *testing.T) {
	app, cfg := testutil.App(t)
	admin := testutil.CreateUser(t, "admin", models.RoleAdmin)
	token := testutil.Token(t, cfg, admin)

	resp := testutil.Do(t, app, http.MethodPost, "/api/subeler/", token, map[string]string{
		"sube_adi": "Kadıköy",
		"adres":    "Moda Cd.",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := testutil.Decode[branches.BranchResponse](t, resp)
	assert.Equal(t, "Kadıköy", created.Name)

	var stored models.Branch
	require.NoError(t, database.DB.First(&stored, created.ID).Error)
	assert.NotEmpty(t, stored.QRToken)

	t.Run("duplicate name is rejected", func(t *testing.T) {
		resp := testutil.Do(t, app, http.MethodPost, "/api/subeler/", token, map[string]string{"sube_adi": "Kadıköy"})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("empty name is rejected", func(t *testing.T) {
		resp := testutil.Do(t, app, http.MethodPost, "/api/subeler/", token, map[string]string{"sube_adi": "  "})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("patch updates only given fields", func(t *testing.T) {
		resp := testutil.Do(t, app, http.MethodPatch, "/api/subeler/"+itoa(created.ID)+"/", token, map[string]string{"adres": "Bahariye Cd."})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		got := testutil.Decode[branches.BranchResponse](t, resp)
		assert.Equal(t, "Kadıköy", got.Name)
		assert.Equal(t, "Bahariye Cd.", got.Address)
	})

	t.Run("list is open to employees", func(t *testing.T) {
		emp := testutil.CreateUser(t, "ayse", models.RoleCalisan)
		resp := testutil.Do(t, app, http.MethodGet, "/api/subeler/", testutil.Token(t, cfg, emp), nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		list := testutil.Decode[[]branches.BranchResponse](t, resp)
		assert.Len(t, list, 1)

		resp = testutil.Do(t, app, http.MethodPost, "/api/subeler/", testutil.Token(t, cfg, emp), map[string]string{"sube_adi": "Beşiktaş"})
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("delete", func(t *testing.T) {
		resp := testutil.Do(t, app, http.MethodDelete, "/api/subeler/"+itoa(created.ID)+"/", token, nil)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)

		resp = testutil.Do(t, app, http.MethodGet, "/api/subeler/"+itoa(created.ID)+"/", token, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestRotateQR(t *testing.T) {
	app, cfg := testutil.App(t)
	admin := testutil.CreateUser(t, "admin", models.RoleAdmin)
	token := testutil.Token(t, cfg, admin)
	branch := testutil.CreateBranch(t, "Üsküdar")

	resp := testutil.Do(t, app, http.MethodGet, "/api/subeler/"+itoa(branch.ID)+"/qr/", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	before := testutil.Decode[branches.QRResponse](t, resp)
	assert.Equal(t, branch.QRToken, before.QRToken)

	resp = testutil.Do(t, app, http.MethodPost, "/api/subeler/"+itoa(branch.ID)+"/qr/yenile/", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	after := testutil.Decode[branches.QRResponse](t, resp)
	assert.NotEqual(t, before.QRToken, after.QRToken)
}

func TestBranchHours(t *testing.T) {
	app, cfg := testutil.App(t)
	admin := testutil.CreateUser(t, "admin", models.RoleAdmin)
	token := testutil.Token(t, cfg, admin)
	branch := testutil.CreateBranch(t, "Şişli")

	resp := testutil.Do(t, app, http.MethodPost, "/api/subeler/calisma-saatleri/", token, map[string]any{
		"sube":          branch.ID,
		"gun":           1,
		"acilis_saati":  "9:00",
		"kapanis_saati": "17:30:00",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	hours := testutil.Decode[branches.HoursResponse](t, resp)
	require.NotNil(t, hours.OpensAt)
	assert.Equal(t, "09:00", *hours.OpensAt)
	assert.Equal(t, "17:30", *hours.ClosesAt)
	assert.Equal(t, "Pazartesi", hours.DayName)

	tests := []struct {
		name string
		body map[string]any
	}{
		{"same day twice", map[string]any{"sube": branch.ID, "gun": 1, "acilis_saati": "10:00", "kapanis_saati": "18:00"}},
		{"open day without times", map[string]any{"sube": branch.ID, "gun": 2}},
		{"bad time", map[string]any{"sube": branch.ID, "gun": 3, "acilis_saati": "25:00", "kapanis_saati": "18:00"}},
		{"bad day", map[string]any{"sube": branch.ID, "gun": 8, "kapali": true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := testutil.Do(t, app, http.MethodPost, "/api/subeler/calisma-saatleri/", token, tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}

	resp = testutil.Do(t, app, http.MethodPost, "/api/subeler/calisma-saatleri/", token, map[string]any{
		"sube": branch.ID, "gun": 7, "kapali": true, "acilis_saati": "10:00",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	closed := testutil.Decode[branches.HoursResponse](t, resp)
	assert.True(t, closed.Closed)
	assert.Nil(t, closed.OpensAt)

	resp = testutil.Do(t, app, http.MethodGet, "/api/subeler/calisma-saatleri/?sube="+itoa(branch.ID), token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, testutil.Decode[[]branches.HoursResponse](t, resp), 2)
}

func TestImportBranches(t *testing.T) {
	app, cfg := testutil.App(t)
	admin := testutil.CreateUser(t, "admin", models.RoleAdmin)
	token := testutil.Token(t, cfg, admin)
	testutil.CreateBranch(t, "Kadıköy")

	content := xlsx(t,
		[]any{"Şube Adı", "Adres"},
		[]any{"Kadıköy", "tekrar"},
		[]any{"Beşiktaş", "Barbaros Blv."},
		[]any{"", "adsız"},
		[]any{"Bakırköy", ""},
	)
	resp := testutil.Upload(t, app, "/api/subeler/toplu-ice-aktar/", token, "file", "subeler.xlsx", content, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	got := testutil.Decode[branches.ImportResponse](t, resp)
	assert.Equal(t, 2, got.Added)
	assert.Equal(t, 1, got.Skipped)
	assert.Len(t, got.Problems, 1)

	var count int64
	require.NoError(t, database.DB.Model(&models.Branch{}).Count(&count).Error)
	assert.EqualValues(t, 3, count)

	t.Run("non xlsx upload", func(t *testing.T) {
		resp := testutil.Upload(t, app, "/api/subeler/toplu-ice-aktar/", token, "file", "subeler.csv", []byte("a,b"), nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestBulkDeleteBranchesPartialFailure(t *testing.T) {
	app, cfg := testutil.App(t)
	admin := testutil.CreateUser(t, "admin", models.RoleAdmin)
	token := testutil.Token(t, cfg, admin)
	emp := testutil.CreateUser(t, "ayse", models.RoleCalisan)

	a := testutil.CreateBranch(t, "A")
	b := testutil.CreateBranch(t, "B")
	testutil.CreateShift(t, a, emp, testutil.Tomorrow(9), 8*time.Hour, models.ShiftPlanned)

	resp := testutil.Do(t, app, http.MethodPost, "/api/subeler/toplu-sil/", token, map[string]any{
		"ids": []uint{a.ID, 999, b.ID},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	got := testutil.Decode[branches.BulkDeleteResponse](t, resp)
	assert.Equal(t, 2, got.Basarili)
	assert.Equal(t, 1, got.Basarisiz)
	require.Len(t, got.Hatalar, 1)
	assert.Contains(t, got.Hatalar[0], "ID 999")

	var shifts int64
	require.NoError(t, database.DB.Model(&models.Shift{}).Count(&shifts).Error)
	assert.Zero(t, shifts)

	t.Run("empty id list", func(t *testing.T) {
		resp := testutil.Do(t, app, http.MethodPost, "/api/subeler/toplu-sil/", token, map[string]any{"ids": []uint{}})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}
