package httperr

import (
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"

	"vardiya-backend/internal/workflow"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestFrom(t *testing.T) {
	assert.Nil(t, From(nil))

	tests := []struct {
		err  error
		code int
	}{
		{fiber.NewError(fiber.StatusForbidden, "yasak"), fiber.StatusForbidden},
		{fmt.Errorf("yanıt: %w", workflow.ErrInvalidTransition), fiber.StatusBadRequest},
		{workflow.ErrNotWithdrawable, fiber.StatusBadRequest},
		{fmt.Errorf("bul: %w", gorm.ErrRecordNotFound), fiber.StatusNotFound},
		{fmt.Errorf("disk dolu"), fiber.StatusInternalServerError},
	}
	for _, tt := range tests {
		got := From(tt.err)
		fe, ok := got.(*fiber.Error)
		if assert.True(t, ok) {
			assert.Equal(t, tt.code, fe.Code, tt.err.Error())
		}
	}
}

func TestHandlerRendersHataKey(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: Handler})
	app.Get("/yok", func(c *fiber.Ctx) error { return gorm.ErrRecordNotFound })

	resp, err := app.Test(httptest.NewRequest("GET", "/yok", nil))
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	var body map[string]string
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "Kayıt bulunamadı", body["hata"])
}
