package models

import "time"

// Weekday - ISO gün numarası (1=Pazartesi ... 7=Pazar)
type Weekday int

const (
	Pazartesi Weekday = iota + 1
	Sali
	Carsamba
	Persembe
	Cuma
	Cumartesi
	Pazar
)

var weekdayNames = map[Weekday]string{
	Pazartesi: "Pazartesi",
	Sali:      "Salı",
	Carsamba:  "Çarşamba",
	Persembe:  "Perşembe",
	Cuma:      "Cuma",
	Cumartesi: "Cumartesi",
	Pazar:     "Pazar",
}

func (w Weekday) Valid() bool {
	return w >= Pazartesi && w <= Pazar
}

func (w Weekday) Name() string {
	return weekdayNames[w]
}

// WeekdayOf - time.Weekday (Pazar=0) değerini ISO numarasına çevirir
func WeekdayOf(t time.Time) Weekday {
	wd := t.Weekday()
	if wd == time.Sunday {
		return Pazar
	}
	return Weekday(wd)
}
