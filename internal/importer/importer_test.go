package importer

import (
	"bytes"
	"fmt"
	"testing"

	"vardiya-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func buildXLSX(t *testing.T, rows [][]any) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, r := range rows {
		row := r
		require.NoError(t, f.SetSheetRow("Sheet1", fmt.Sprintf("A%d", i+1), &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

// lines - başlığın hemen altından başlayan ardışık satırlar
func lines(cells ...map[string]string) []Row {
	out := make([]Row, 0, len(cells))
	for i, c := range cells {
		out = append(out, Row{Line: i + 2, Cells: c})
	}
	return out
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "sube_adi", Normalize(" Şube Adı "))
	assert.Equal(t, "first_name", Normalize("First-Name"))
	assert.Equal(t, "musait_degil", Normalize("MÜSAİT DEĞİL"))
}

func TestReadRowsSkipsEmptyLinesAndPadsShortRows(t *testing.T) {
	buf := buildXLSX(t, [][]any{
		{"Şube Adı", "Adres"},
		{"Kadıköy", "Moda Cad."},
		{"", ""},
		{"Beşiktaş"},
	})

	rows, err := ReadRows(buf)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Kadıköy", rows[0].Get("sube_adi"))
	assert.Equal(t, "Moda Cad.", rows[0].Get("adres"))
	assert.Equal(t, "Beşiktaş", rows[1].Get("sube_adi"))
	assert.Equal(t, "", rows[1].Get("adres"))
	assert.Equal(t, 2, rows[0].Line)
	assert.Equal(t, 4, rows[1].Line)
}

func TestParseErrorsKeepSheetLineAfterBlankRows(t *testing.T) {
	buf := buildXLSX(t, [][]any{
		{"Şube Adı", "Adres"},
		{"Kadıköy", "Moda Cad."},
		{"", ""},
		{"", ""},
		{"", "isimsiz"},
		{"Beşiktaş", "Barbaros"},
	})

	rows, err := ReadRows(buf)
	require.NoError(t, err)

	out, errs := ParseBranches(rows)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "Satır 5")
	require.Len(t, out, 2)
	assert.Equal(t, 6, out[1].Line)
}

func TestReadRowsRejectsGarbage(t *testing.T) {
	_, err := ReadRows(bytes.NewBufferString("bu bir excel değil"))
	assert.Error(t, err)
}

func TestParseEmployees(t *testing.T) {
	rows := lines(
		map[string]string{"username": "ayse", "email": "Ayse@Example.com", "cinsiyet": "Kadın", "first_name": "Ayşe"},
		map[string]string{"username": "", "email": "x@example.com"},
		map[string]string{"username": "mehmet", "email": "bozuk"},
		map[string]string{"username": "can", "email": "can@example.com", "cinsiyet": "belirsiz"},
		map[string]string{"username": "ali", "email": "ali@example.com", "sifre": "gizli123"},
	)

	out, errs := ParseEmployees(rows)
	require.Len(t, out, 2)
	assert.Len(t, errs, 3)
	assert.Equal(t, "ayse@example.com", out[0].Email)
	require.NotNil(t, out[0].Gender)
	assert.Equal(t, models.GenderKadin, *out[0].Gender)
	assert.Equal(t, "gizli123", out[1].Password)
	assert.Contains(t, errs[0], "Satır 3")
}

func TestParseAvailability(t *testing.T) {
	rows := lines(
		map[string]string{"username": "ayse", "gun": "1", "durum": "musait"},
		map[string]string{"username": "ayse", "gun": "Çarşamba", "durum": "Müsait Değil"},
		map[string]string{"username": "ayse", "gun": "8", "durum": "musait"},
		map[string]string{"username": "ayse", "gun": "2", "durum": "belki"},
	)

	out, errs := ParseAvailability(rows)
	require.Len(t, out, 2)
	assert.Len(t, errs, 2)
	assert.Equal(t, models.Carsamba, out[1].Day)
	assert.Equal(t, models.Unavailable, out[1].Status)
}

func TestParseBranches(t *testing.T) {
	out, errs := ParseBranches(lines(
		map[string]string{"sube_adi": "Merkez"},
		map[string]string{"adres": "adres var isim yok"},
	))
	require.Len(t, out, 1)
	assert.Len(t, errs, 1)
	assert.Equal(t, "Merkez", out[0].Name)
}
