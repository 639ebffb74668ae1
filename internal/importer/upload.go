package importer

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// ReadUpload - multipart "file" alanındaki xlsx'i okur, hataları fiber hatası olarak döner
func ReadUpload(c *fiber.Ctx) ([]Row, error) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Dosya yüklenemedi: "+err.Error())
	}

	if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".xlsx") {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Sadece .xlsx dosyaları yüklenebilir")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Dosya açılamadı: "+err.Error())
	}
	defer file.Close()

	rows, err := ReadRows(file)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return rows, nil
}
