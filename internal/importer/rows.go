package importer

import (
	"net/mail"
	"strconv"
	"strings"

	"vardiya-backend/internal/models"
)

type EmployeeRow struct {
	Line      int
	Username  string
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Gender    *models.Gender
	Password  string // boşsa içe aktarım sırasında üretilir
}

func ParseEmployees(rows []Row) ([]EmployeeRow, []string) {
	var out []EmployeeRow
	var errs []string
	for _, r := range rows {
		e := EmployeeRow{
			Line:      r.Line,
			Username:  r.Get("username"),
			FirstName: r.Get("first_name"),
			LastName:  r.Get("last_name"),
			Email:     strings.ToLower(r.Get("email")),
			Phone:     r.Get("telefon"),
			Password:  r.Get("sifre"),
		}
		if e.Username == "" {
			errs = append(errs, rowError(r.Line, "username zorunlu"))
			continue
		}
		if e.Email == "" {
			errs = append(errs, rowError(r.Line, "email zorunlu"))
			continue
		}
		if _, err := mail.ParseAddress(e.Email); err != nil {
			errs = append(errs, rowError(r.Line, "geçersiz email %q", e.Email))
			continue
		}
		if g := r.Get("cinsiyet"); g != "" {
			gender, ok := parseGender(g)
			if !ok {
				errs = append(errs, rowError(r.Line, "geçersiz cinsiyet %q", g))
				continue
			}
			e.Gender = &gender
		}
		out = append(out, e)
	}
	return out, errs
}

func parseGender(s string) (models.Gender, bool) {
	switch Normalize(s) {
	case "kadin", "k", "female", "f":
		return models.GenderKadin, true
	case "erkek", "e", "male", "m":
		return models.GenderErkek, true
	}
	return "", false
}

type BranchRow struct {
	Line    int
	Name    string
	Address string
}

func ParseBranches(rows []Row) ([]BranchRow, []string) {
	var out []BranchRow
	var errs []string
	for _, r := range rows {
		name := r.Get("sube_adi")
		if name == "" {
			errs = append(errs, rowError(r.Line, "sube_adi zorunlu"))
			continue
		}
		out = append(out, BranchRow{Line: r.Line, Name: name, Address: r.Get("adres")})
	}
	return out, errs
}

type AvailabilityRow struct {
	Line     int
	Username string
	Day      models.Weekday
	Status   models.AvailabilityStatus
}

var dayNames = map[string]models.Weekday{
	"pazartesi": models.Pazartesi,
	"sali":      models.Sali,
	"carsamba":  models.Carsamba,
	"persembe":  models.Persembe,
	"cuma":      models.Cuma,
	"cumartesi": models.Cumartesi,
	"pazar":     models.Pazar,
}

// ParseDay - 1..7 ya da Türkçe gün adı
func ParseDay(s string) (models.Weekday, bool) {
	if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
		wd := models.Weekday(n)
		return wd, wd.Valid()
	}
	wd, ok := dayNames[Normalize(s)]
	return wd, ok
}

func ParseAvailability(rows []Row) ([]AvailabilityRow, []string) {
	var out []AvailabilityRow
	var errs []string
	for _, r := range rows {
		username := r.Get("username")
		if username == "" {
			errs = append(errs, rowError(r.Line, "username zorunlu"))
			continue
		}
		day, ok := ParseDay(r.Get("gun"))
		if !ok {
			errs = append(errs, rowError(r.Line, "geçersiz gün %q", r.Get("gun")))
			continue
		}
		status := models.AvailabilityStatus(Normalize(r.Get("durum")))
		if !status.Valid() {
			errs = append(errs, rowError(r.Line, "geçersiz durum %q", r.Get("durum")))
			continue
		}
		out = append(out, AvailabilityRow{Line: r.Line, Username: username, Day: day, Status: status})
	}
	return out, errs
}
