package schedules

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Period - "YYYY-MM" biçimindeki planlama dönemi
type Period struct {
	Year  int
	Month time.Month
}

func ParsePeriod(s string) (Period, error) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 2 {
		return Period{}, fmt.Errorf("geçersiz dönem %q", s)
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil || year < 2000 || year > 2100 {
		return Period{}, fmt.Errorf("geçersiz yıl %q", parts[0])
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil || month < 1 || month > 12 {
		return Period{}, fmt.Errorf("geçersiz ay %q", parts[1])
	}
	return Period{Year: year, Month: time.Month(month)}, nil
}

func PeriodOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: t.Month()}
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

func (p Period) Start(loc *time.Location) time.Time {
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, loc)
}

// End - dönemden sonraki ilk an (hariç)
func (p Period) End(loc *time.Location) time.Time {
	return p.Start(loc).AddDate(0, 1, 0)
}

func (p Period) Next() Period {
	return PeriodOf(p.Start(time.UTC).AddDate(0, 1, 0))
}

// parseClock - "HH:MM" veya "HH:MM:SS", gece yarısından itibaren dakika
func parseClock(s string) (int, error) {
	s = strings.TrimSpace(s)
	t, err := time.Parse("15:04", s)
	if err != nil {
		t, err = time.Parse("15:04:05", s)
		if err != nil {
			return 0, fmt.Errorf("geçersiz saat %q", s)
		}
	}
	return t.Hour()*60 + t.Minute(), nil
}

// NormalizeClock - saati "HH:MM" biçimine getirir
func NormalizeClock(s string) (string, error) {
	m, err := parseClock(s)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%02d:%02d", m/60, m%60), nil
}

func minutesOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}
