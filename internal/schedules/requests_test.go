package schedules_test

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"vardiya-backend/internal/audit"
	"vardiya-backend/internal/database"
	"vardiya-backend/internal/models"
	"vardiya-backend/internal/schedules"
	"vardiya-backend/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	app    *fiber.App
	branch *models.Branch

	admin, ayse, burak, cem             *models.User
	adminTok, ayseTok, burakTok, cemTok string
}

func setup(t *testing.T) *fixture {
	t.Helper()
	app, cfg := testutil.App(t)
	f := &fixture{app: app, branch: testutil.CreateBranch(t, "Merkez")}

	f.admin = testutil.CreateUser(t, "admin", models.RoleAdmin, testutil.WithName("Yönetici", "Bey"))
	f.ayse = testutil.CreateUser(t, "ayse", models.RoleCalisan, testutil.WithName("Ayşe", "Yılmaz"), testutil.WithGender(models.GenderKadin))
	f.burak = testutil.CreateUser(t, "burak", models.RoleCalisan, testutil.WithName("Burak", "Demir"), testutil.WithGender(models.GenderErkek))
	f.cem = testutil.CreateUser(t, "cem", models.RoleCalisan, testutil.WithName("Cem", "Kaya"), testutil.WithGender(models.GenderErkek))

	f.adminTok = testutil.Token(t, cfg, f.admin)
	f.ayseTok = testutil.Token(t, cfg, f.ayse)
	f.burakTok = testutil.Token(t, cfg, f.burak)
	f.cemTok = testutil.Token(t, cfg, f.cem)
	return f
}

func (f *fixture) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	return testutil.Do(t, f.app, method, path, token, body)
}

func (f *fixture) createTrade(t *testing.T, mine, theirs *models.Shift, from, to *models.User, token string) schedules.TradeResponse {
	t.Helper()
	resp := f.do(t, http.MethodPost, "/api/schedules/istekler/", token, map[string]any{
		"istek_yapan_vardiya": mine.ID,
		"hedef_vardiya":       theirs.ID,
		"istek_yapan":         from.ID,
		"hedef_calisan":       to.ID,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return testutil.Decode[schedules.TradeResponse](t, resp)
}

func reload(t *testing.T, s *models.Shift) models.Shift {
	t.Helper()
	var out models.Shift
	require.NoError(t, database.DB.First(&out, s.ID).Error)
	return out
}

func TestTradeFullApprovalSwapsShifts(t *testing.T) {
	f := setup(t)
	mine := testutil.CreateShift(t, f.branch, f.ayse, testutil.Day(2, 9), 8*time.Hour, models.ShiftPlanned)
	theirs := testutil.CreateShift(t, f.branch, f.burak, testutil.Day(3, 9), 8*time.Hour, models.ShiftPlanned)

	trade := f.createTrade(t, mine, theirs, f.ayse, f.burak, f.ayseTok)
	assert.Equal(t, models.RequestAwaitingTarget, trade.Status)
	assert.Equal(t, "Merkez", trade.RequesterShiftDetail.BranchName)
	require.NotNil(t, trade.RequesterShiftDetail.ActiveRequestStatus)

	t.Run("incoming request is visible only to the parties", func(t *testing.T) {
		for _, tok := range []string{f.ayseTok, f.burakTok} {
			resp := f.do(t, http.MethodGet, "/api/schedules/istekler/", tok, nil)
			require.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Len(t, testutil.Decode[[]schedules.TradeResponse](t, resp), 1)
		}
		resp := f.do(t, http.MethodGet, "/api/schedules/istekler/", f.cemTok, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Empty(t, testutil.Decode[[]schedules.TradeResponse](t, resp))
	})

	t.Run("only the target may respond", func(t *testing.T) {
		resp := f.do(t, http.MethodPost, fmt.Sprintf("/api/schedules/istekler/%d/yanitla/", trade.ID), f.ayseTok, map[string]string{"yanit": "onayla"})
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("admin cannot decide before the target answers", func(t *testing.T) {
		resp := f.do(t, http.MethodPost, fmt.Sprintf("/api/schedules/admin/istekler/%d/aksiyon/", trade.ID), f.adminTok, map[string]string{"action": "onayla"})
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	resp := f.do(t, http.MethodPost, fmt.Sprintf("/api/schedules/istekler/%d/yanitla/", trade.ID), f.burakTok, map[string]string{"yanit": "onayla"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = f.do(t, http.MethodGet, "/api/schedules/admin/istekler/", f.adminTok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	pending := testutil.Decode[[]schedules.TradeResponse](t, resp)
	require.Len(t, pending, 1)
	assert.Equal(t, models.RequestAwaitingAdmin, pending[0].Status)

	resp = f.do(t, http.MethodPost, fmt.Sprintf("/api/schedules/admin/istekler/%d/aksiyon/", trade.ID), f.adminTok, map[string]string{"action": "onayla"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	gotMine, gotTheirs := reload(t, mine), reload(t, theirs)
	require.NotNil(t, gotMine.EmployeeID)
	require.NotNil(t, gotTheirs.EmployeeID)
	assert.Equal(t, f.burak.ID, *gotMine.EmployeeID)
	assert.Equal(t, f.ayse.ID, *gotTheirs.EmployeeID)

	var stored models.TradeRequest
	require.NoError(t, database.DB.First(&stored, trade.ID).Error)
	assert.Equal(t, models.RequestApproved, stored.Status)

	t.Run("second decision finds nothing", func(t *testing.T) {
		resp := f.do(t, http.MethodPost, fmt.Sprintf("/api/schedules/admin/istekler/%d/aksiyon/", trade.ID), f.adminTok, map[string]string{"action": "reddet"})
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("history records every step", func(t *testing.T) {
		resp := f.do(t, http.MethodGet, "/api/schedules/admin/onay-gecmisi/?entity_type="+models.EntityTradeRequest, f.adminTok, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		logs := testutil.Decode[[]map[string]any](t, resp)
		assert.Len(t, logs, 3)

		resp = f.do(t, http.MethodGet, fmt.Sprintf("/api/schedules/admin/onay-gecmisi/?entity_type=%s&entity_id=%d", models.EntityTradeRequest, trade.ID), f.adminTok, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		trail := testutil.Decode[[]audit.LogResponse](t, resp)
		require.Len(t, trail, 3)
		assert.Equal(t, models.AuditActionCreate, trail[0].Action)
		assert.Equal(t, models.AuditActionRespond, trail[1].Action)
		assert.Equal(t, models.AuditActionApprove, trail[2].Action)

		resp = f.do(t, http.MethodGet, "/api/schedules/admin/onay-gecmisi/?entity_id=abc", f.adminTok, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestTradeWithdrawThenApproveIsNotFound(t *testing.T) {
	f := setup(t)
	mine := testutil.CreateShift(t, f.branch, f.ayse, testutil.Day(2, 9), 8*time.Hour, models.ShiftPlanned)
	theirs := testutil.CreateShift(t, f.branch, f.burak, testutil.Day(3, 9), 8*time.Hour, models.ShiftPlanned)

	trade := f.createTrade(t, mine, theirs, f.ayse, f.burak, f.ayseTok)
	resp := f.do(t, http.MethodPost, fmt.Sprintf("/api/schedules/istekler/%d/yanitla/", trade.ID), f.burakTok, map[string]string{"yanit": "onayla"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = f.do(t, http.MethodPost, fmt.Sprintf("/api/schedules/istekler/%d/geri-cek/", trade.ID), f.cemTok, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = f.do(t, http.MethodPost, fmt.Sprintf("/api/schedules/istekler/%d/geri-cek/", trade.ID), f.ayseTok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = f.do(t, http.MethodPost, fmt.Sprintf("/api/schedules/admin/istekler/%d/aksiyon/", trade.ID), f.adminTok, map[string]string{"action": "onayla"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	gotMine := reload(t, mine)
	assert.Equal(t, f.ayse.ID, *gotMine.EmployeeID)

	t.Run("shifts are free for a new request", func(t *testing.T) {
		f.createTrade(t, mine, theirs, f.ayse, f.burak, f.ayseTok)
	})
}

func TestTradeRejectedByTarget(t *testing.T) {
	f := setup(t)
	mine := testutil.CreateShift(t, f.branch, f.ayse, testutil.Day(2, 9), 8*time.Hour, models.ShiftPlanned)
	theirs := testutil.CreateShift(t, f.branch, f.burak, testutil.Day(3, 9), 8*time.Hour, models.ShiftPlanned)

	trade := f.createTrade(t, mine, theirs, f.ayse, f.burak, f.ayseTok)
	resp := f.do(t, http.MethodPost, fmt.Sprintf("/api/schedules/istekler/%d/yanitla/", trade.ID), f.burakTok, map[string]string{"yanit": "reddet"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = f.do(t, http.MethodPost, fmt.Sprintf("/api/schedules/istekler/%d/yanitla/", trade.ID), f.burakTok, map[string]string{"yanit": "onayla"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = f.do(t, http.MethodPost, fmt.Sprintf("/api/schedules/istekler/%d/geri-cek/", trade.ID), f.ayseTok, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateTradeValidation(t *testing.T) {
	f := setup(t)
	mine := testutil.CreateShift(t, f.branch, f.ayse, testutil.Day(2, 9), 8*time.Hour, models.ShiftPlanned)
	theirs := testutil.CreateShift(t, f.branch, f.burak, testutil.Day(3, 9), 8*time.Hour, models.ShiftPlanned)
	past := testutil.CreateShift(t, f.branch, f.burak, testutil.Day(-1, 9), 8*time.Hour, models.ShiftPlanned)
	done := testutil.CreateShift(t, f.branch, f.burak, testutil.Day(4, 9), 8*time.Hour, models.ShiftCompleted)
	// takas sonrası Ayşe'nin 3. gündeki vardiyasıyla çakışır
	clash := testutil.CreateShift(t, f.branch, f.ayse, testutil.Day(3, 12), 4*time.Hour, models.ShiftPlanned)
	_ = clash

	tests := []struct {
		name string
		body map[string]any
		tok  string
		want int
	}{
		{"on behalf of someone else", map[string]any{"istek_yapan_vardiya": mine.ID, "hedef_vardiya": theirs.ID, "istek_yapan": f.burak.ID, "hedef_calisan": f.burak.ID}, f.ayseTok, http.StatusForbidden},
		{"with yourself", map[string]any{"istek_yapan_vardiya": mine.ID, "hedef_vardiya": theirs.ID, "istek_yapan": f.ayse.ID, "hedef_calisan": f.ayse.ID}, f.ayseTok, http.StatusBadRequest},
		{"target does not own shift", map[string]any{"istek_yapan_vardiya": mine.ID, "hedef_vardiya": theirs.ID, "istek_yapan": f.ayse.ID, "hedef_calisan": f.cem.ID}, f.ayseTok, http.StatusBadRequest},
		{"not my shift", map[string]any{"istek_yapan_vardiya": theirs.ID, "hedef_vardiya": mine.ID, "istek_yapan": f.cem.ID, "hedef_calisan": f.ayse.ID}, f.cemTok, http.StatusForbidden},
		{"past shift", map[string]any{"istek_yapan_vardiya": mine.ID, "hedef_vardiya": past.ID, "istek_yapan": f.ayse.ID, "hedef_calisan": f.burak.ID}, f.ayseTok, http.StatusBadRequest},
		{"completed shift", map[string]any{"istek_yapan_vardiya": mine.ID, "hedef_vardiya": done.ID, "istek_yapan": f.ayse.ID, "hedef_calisan": f.burak.ID}, f.ayseTok, http.StatusBadRequest},
		{"overlap after swap", map[string]any{"istek_yapan_vardiya": mine.ID, "hedef_vardiya": theirs.ID, "istek_yapan": f.ayse.ID, "hedef_calisan": f.burak.ID}, f.ayseTok, http.StatusBadRequest},
		{"unknown shift", map[string]any{"istek_yapan_vardiya": mine.ID, "hedef_vardiya": 9999, "istek_yapan": f.ayse.ID, "hedef_calisan": f.burak.ID}, f.ayseTok, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := f.do(t, http.MethodPost, "/api/schedules/istekler/", tt.tok, tt.body)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}

	var count int64
	require.NoError(t, database.DB.Model(&models.TradeRequest{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestTradeBlockedByActiveRequestOrCancel(t *testing.T) {
	f := setup(t)
	mine := testutil.CreateShift(t, f.branch, f.ayse, testutil.Day(2, 9), 8*time.Hour, models.ShiftPlanned)
	theirs := testutil.CreateShift(t, f.branch, f.burak, testutil.Day(3, 9), 8*time.Hour, models.ShiftPlanned)
	other := testutil.CreateShift(t, f.branch, f.cem, testutil.Day(4, 9), 8*time.Hour, models.ShiftPlanned)

	f.createTrade(t, mine, theirs, f.ayse, f.burak, f.ayseTok)

	resp := f.do(t, http.MethodPost, "/api/schedules/istekler/", f.cemTok, map[string]any{
		"istek_yapan_vardiya": other.ID, "hedef_vardiya": theirs.ID, "istek_yapan": f.cem.ID, "hedef_calisan": f.burak.ID,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = f.do(t, http.MethodPost, "/api/schedules/iptal-istekleri/", f.ayseTok, map[string]any{"vardiya": mine.ID})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAdminApprovalFailsWhenShiftChanged(t *testing.T) {
	f := setup(t)
	mine := testutil.CreateShift(t, f.branch, f.ayse, testutil.Day(2, 9), 8*time.Hour, models.ShiftPlanned)
	theirs := testutil.CreateShift(t, f.branch, f.burak, testutil.Day(3, 9), 8*time.Hour, models.ShiftPlanned)

	trade := f.createTrade(t, mine, theirs, f.ayse, f.burak, f.ayseTok)
	resp := f.do(t, http.MethodPost, fmt.Sprintf("/api/schedules/istekler/%d/yanitla/", trade.ID), f.burakTok, map[string]string{"yanit": "onayla"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// admin vardiyayı elle başkasına vermiş
	require.NoError(t, database.DB.Model(&models.Shift{}).Where("id = ?", theirs.ID).Update("employee_id", f.cem.ID).Error)

	resp = f.do(t, http.MethodPost, fmt.Sprintf("/api/schedules/admin/istekler/%d/aksiyon/", trade.ID), f.adminTok, map[string]string{"action": "onayla"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	var stored models.TradeRequest
	require.NoError(t, database.DB.First(&stored, trade.ID).Error)
	assert.Equal(t, models.RequestAwaitingAdmin, stored.Status)
	assert.Equal(t, f.ayse.ID, *reload(t, mine).EmployeeID)
}

func TestCancelWithReplacementReassignsShift(t *testing.T) {
	f := setup(t)
	shift := testutil.CreateShift(t, f.branch, f.ayse, testutil.Day(2, 18), 6*time.Hour, models.ShiftPlanned)
	// Burak aynı saatte başka vardiyada
	testutil.CreateShift(t, f.branch, f.burak, testutil.Day(2, 20), 4*time.Hour, models.ShiftPlanned)
	deniz := testutil.CreateUser(t, "deniz", models.RoleCalisan, testutil.WithName("Deniz", "Ak"), testutil.WithGender(models.GenderKadin))

	resp := f.do(t, http.MethodPost, "/api/schedules/iptal-istekleri/", f.burakTok, map[string]any{"vardiya": shift.ID})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = f.do(t, http.MethodPost, "/api/schedules/iptal-istekleri/", f.ayseTok, map[string]any{"vardiya": shift.ID})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	reqID := uint(testutil.Decode[map[string]any](t, resp)["id"].(float64))
	assert.Equal(t, models.ShiftCancelPending, reload(t, shift).Status)

	resp = f.do(t, http.MethodPost, "/api/schedules/iptal-istekleri/", f.ayseTok, map[string]any{"vardiya": shift.ID})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = f.do(t, http.MethodGet, "/api/schedules/vardiyalar/", f.adminTok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	for _, s := range testutil.Decode[[]schedules.ShiftResponse](t, resp) {
		if s.ID == shift.ID {
			require.NotNil(t, s.CancelRequestID)
			assert.Equal(t, reqID, *s.CancelRequestID)
		}
	}

	resp = f.do(t, http.MethodGet, fmt.Sprintf("/api/schedules/vardiyalar/%d/uygun-calisanlar/", shift.ID), f.adminTok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	options := testutil.Decode[[]schedules.EmployeeOption](t, resp)
	ids := make([]uint, 0, len(options))
	for _, o := range options {
		ids = append(ids, o.ID)
	}
	assert.ElementsMatch(t, []uint{f.cem.ID, deniz.ID}, ids)

	t.Run("busy employee cannot be chosen", func(t *testing.T) {
		resp := f.do(t, http.MethodPost, fmt.Sprintf("/api/schedules/admin/iptal-istekleri/%d/aksiyon/", reqID), f.adminTok, map[string]any{
			"action": "onayla", "yeni_calisan_id": f.burak.ID,
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, models.ShiftCancelPending, reload(t, shift).Status)
	})

	resp = f.do(t, http.MethodPost, fmt.Sprintf("/api/schedules/admin/iptal-istekleri/%d/aksiyon/", reqID), f.adminTok, map[string]any{
		"action": "onayla", "yeni_calisan_id": f.cem.ID,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	got := reload(t, shift)
	assert.Equal(t, models.ShiftPlanned, got.Status)
	require.NotNil(t, got.EmployeeID)
	assert.Equal(t, f.cem.ID, *got.EmployeeID)

	var req models.CancelRequest
	require.NoError(t, database.DB.First(&req, reqID).Error)
	assert.Equal(t, models.RequestApproved, req.Status)
	require.NotNil(t, req.ReplacementID)
	assert.Equal(t, f.cem.ID, *req.ReplacementID)
}

func TestCancelDecisions(t *testing.T) {
	f := setup(t)

	create := func(t *testing.T, status models.ShiftStatus) (*models.Shift, uint) {
		t.Helper()
		s := testutil.CreateShift(t, f.branch, f.ayse, testutil.Day(5, 9), 8*time.Hour, status)
		resp := f.do(t, http.MethodPost, "/api/schedules/iptal-istekleri/", f.ayseTok, map[string]any{"vardiya": s.ID})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		return s, uint(testutil.Decode[map[string]any](t, resp)["id"].(float64))
	}

	t.Run("reject restores the original status", func(t *testing.T) {
		s, id := create(t, models.ShiftDraft)
		resp := f.do(t, http.MethodPost, fmt.Sprintf("/api/schedules/admin/iptal-istekleri/%d/aksiyon/", id), f.adminTok, map[string]string{"action": "reddet"})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, models.ShiftDraft, reload(t, s).Status)
	})

	t.Run("approve without replacement cancels the shift", func(t *testing.T) {
		s, id := create(t, models.ShiftPlanned)
		resp := f.do(t, http.MethodPost, fmt.Sprintf("/api/schedules/admin/iptal-istekleri/%d/aksiyon/", id), f.adminTok, map[string]string{"action": "onayla"})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		got := reload(t, s)
		assert.Equal(t, models.ShiftCancelled, got.Status)
		assert.Nil(t, got.EmployeeID)
	})

	t.Run("withdraw restores the shift and deletes the request", func(t *testing.T) {
		s, id := create(t, models.ShiftPlanned)

		resp := f.do(t, http.MethodGet, "/api/schedules/iptal-isteklerim/", f.ayseTok, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		mine := testutil.Decode[[]schedules.CancelResponse](t, resp)
		assert.NotEmpty(t, mine)

		resp = f.do(t, http.MethodPost, fmt.Sprintf("/api/schedules/iptal-istekleri/%d/geri-cek/", id), f.burakTok, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)

		resp = f.do(t, http.MethodPost, fmt.Sprintf("/api/schedules/iptal-istekleri/%d/geri-cek/", id), f.ayseTok, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, models.ShiftPlanned, reload(t, s).Status)

		resp = f.do(t, http.MethodPost, fmt.Sprintf("/api/schedules/admin/iptal-istekleri/%d/aksiyon/", id), f.adminTok, map[string]string{"action": "onayla"})
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("invalid action", func(t *testing.T) {
		_, id := create(t, models.ShiftPlanned)
		resp := f.do(t, http.MethodPost, fmt.Sprintf("/api/schedules/admin/iptal-istekleri/%d/aksiyon/", id), f.adminTok, map[string]string{"action": "belki"})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	resp := f.do(t, http.MethodGet, "/api/schedules/admin/iptal-istekleri/", f.adminTok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	pending := testutil.Decode[[]schedules.CancelResponse](t, resp)
	require.Len(t, pending, 1)
	assert.Equal(t, "Ayşe Yılmaz", pending[0].RequesterName)
}
