// Package importer, toplu içe aktarma için yüklenen xlsx dosyalarını okur.
package importer

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

var (
	ErrNoSheet  = errors.New("Excel dosyasında sheet bulunamadı")
	ErrEmpty    = errors.New("Excel dosyası boş")
	ErrNoHeader = errors.New("başlık satırı bulunamadı")
)

var headerFolder = strings.NewReplacer(
	"İ", "i", "I", "i", "ı", "i",
	"Ş", "s", "ş", "s",
	"Ğ", "g", "ğ", "g",
	"Ü", "u", "ü", "u",
	"Ö", "o", "ö", "o",
	"Ç", "c", "ç", "c",
	" ", "_", "-", "_",
)

// Normalize - "Şube Adı" -> "sube_adi"
func Normalize(s string) string {
	return strings.ToLower(headerFolder.Replace(strings.TrimSpace(s)))
}

// Row - başlık altındaki bir satır; Line sheet'teki gerçek satır numarasıdır (başlık 1)
type Row struct {
	Line  int
	Cells map[string]string
}

func (r Row) Get(key string) string {
	return r.Cells[key]
}

// ReadRows - ilk sheet'in ilk satırını başlık kabul eder, kalan satırları
// normalize edilmiş başlık -> hücre map'i olarak döner. Tamamen boş satırlar atlanır,
// ama sonraki satırların numarası kaymaz.
func ReadRows(r io.Reader) ([]Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("Excel dosyası okunamadı: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoSheet
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("sheet okunamadı: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrEmpty
	}

	header := make([]string, len(rows[0]))
	hasHeader := false
	for i, h := range rows[0] {
		header[i] = Normalize(h)
		if header[i] != "" {
			hasHeader = true
		}
	}
	if !hasHeader {
		return nil, ErrNoHeader
	}

	out := make([]Row, 0, len(rows)-1)
	for n, row := range rows[1:] {
		rec := make(map[string]string, len(header))
		empty := true
		for i, key := range header {
			if key == "" {
				continue
			}
			v := ""
			if i < len(row) {
				v = strings.TrimSpace(row[i])
			}
			if v != "" {
				empty = false
			}
			rec[key] = v
		}
		if !empty {
			out = append(out, Row{Line: n + 2, Cells: rec})
		}
	}
	return out, nil
}

func rowError(line int, format string, args ...any) string {
	return fmt.Sprintf("Satır %d: %s", line, fmt.Sprintf(format, args...))
}
