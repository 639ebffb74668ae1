package schedules

import (
	"sort"
	"time"

	"vardiya-backend/internal/models"
)

// PlanInput - bir dönemin planı için gereken her şey; veritabanından bağımsız
type PlanInput struct {
	Period       Period
	Location     *time.Location
	Branches     []models.Branch // Hours yüklenmiş olmalı
	Employees    []models.User
	Availability map[uint]map[models.Weekday]models.AvailabilityStatus
	Preferences  map[PreferenceKey]bool
	Rules        map[uint][]models.RestrictionRule // şube id -> kurallar
	Busy         []models.Shift                    // planda korunan, çalışanı belli vardiyalar
	Covered      map[SlotKey]bool                  // zaten vardiyası olan şube aralıkları, yeniden üretilmez
}

// SlotKey - şube ve başlangıç anı bir vardiya aralığını tanımlar
type SlotKey struct {
	BranchID uint
	StartsAt int64
}

func slotKeyOf(branchID uint, start time.Time) SlotKey {
	return SlotKey{BranchID: branchID, StartsAt: start.Unix()}
}

type PreferenceKey struct {
	UserID   uint
	BranchID uint
	Day      models.Weekday
}

// PlannedShift - üretilecek taslak vardiya, EmployeeID nil ise atanamadı
type PlannedShift struct {
	BranchID   uint
	EmployeeID *uint
	StartsAt   time.Time
	EndsAt     time.Time
}

type interval struct {
	start, end time.Time
}

const (
	scorePreference = 100
	scorePrefers    = 10
)

// BuildSlots - dönemin her günü için açık şubelerin vardiya aralıkları, başlangıca göre sıralı
func BuildSlots(p Period, loc *time.Location, branches []models.Branch) []PlannedShift {
	var slots []PlannedShift
	end := p.End(loc)
	for day := p.Start(loc); day.Before(end); day = day.AddDate(0, 0, 1) {
		wd := models.WeekdayOf(day)
		for _, b := range branches {
			h, ok := hoursFor(b.Hours, wd)
			if !ok {
				continue
			}
			opens, err1 := parseClock(*h.OpensAt)
			closes, err2 := parseClock(*h.ClosesAt)
			if err1 != nil || err2 != nil {
				continue
			}
			start := day.Add(time.Duration(opens) * time.Minute)
			finish := day.Add(time.Duration(closes) * time.Minute)
			// kapanış açılıştan önceyse ertesi güne sarkar
			if !finish.After(start) {
				finish = finish.Add(24 * time.Hour)
			}
			slots = append(slots, PlannedShift{BranchID: b.ID, StartsAt: start, EndsAt: finish})
		}
	}
	sort.SliceStable(slots, func(i, j int) bool {
		if !slots[i].StartsAt.Equal(slots[j].StartsAt) {
			return slots[i].StartsAt.Before(slots[j].StartsAt)
		}
		return slots[i].BranchID < slots[j].BranchID
	})
	return slots
}

func hoursFor(hours []models.BranchHours, wd models.Weekday) (models.BranchHours, bool) {
	for _, h := range hours {
		if h.Day != wd {
			continue
		}
		if h.Closed || h.OpensAt == nil || h.ClosesAt == nil {
			return h, false
		}
		return h, true
	}
	return models.BranchHours{}, false
}

// BuildPlan - vardiyaları başlangıç sırasıyla açgözlü şekilde atar.
// Sert filtreler: müsait değil olmamak, çakışmamak, şube kurallarına uymak.
// Puan: tercih eşleşmesi, "tercih ediyor" müsaitliği, sonra en az saat, sonra en küçük id.
func BuildPlan(in PlanInput) []PlannedShift {
	loc := in.Location
	if loc == nil {
		loc = time.Local
	}
	slots := BuildSlots(in.Period, loc, in.Branches)
	if len(in.Covered) > 0 {
		open := slots[:0]
		for _, sl := range slots {
			if !in.Covered[slotKeyOf(sl.BranchID, sl.StartsAt)] {
				open = append(open, sl)
			}
		}
		slots = open
	}

	employees := make([]models.User, len(in.Employees))
	copy(employees, in.Employees)
	sort.Slice(employees, func(i, j int) bool { return employees[i].ID < employees[j].ID })

	busy := make(map[uint][]interval)
	for _, s := range in.Busy {
		if s.EmployeeID == nil {
			continue
		}
		busy[*s.EmployeeID] = append(busy[*s.EmployeeID], interval{s.StartsAt, s.EndsAt})
	}
	assigned := make(map[uint]time.Duration)

	for i := range slots {
		slot := &slots[i]
		wd := models.WeekdayOf(slot.StartsAt)
		rules := in.Rules[slot.BranchID]

		bestIdx := -1
		bestScore := 0
		for j := range employees {
			e := &employees[j]
			status := in.Availability[e.ID][wd]
			if status == models.Unavailable {
				continue
			}
			if overlapsAny(busy[e.ID], slot.StartsAt, slot.EndsAt) {
				continue
			}
			if !RulesAllow(rules, slot.StartsAt, e.Gender) {
				continue
			}

			score := 0
			if in.Preferences[PreferenceKey{UserID: e.ID, BranchID: slot.BranchID, Day: wd}] {
				score += scorePreference
			}
			if status == models.PrefersToWork {
				score += scorePrefers
			}

			if bestIdx == -1 || score > bestScore ||
				(score == bestScore && assigned[e.ID] < assigned[employees[bestIdx].ID]) {
				bestIdx = j
				bestScore = score
			}
		}

		if bestIdx == -1 {
			continue
		}
		id := employees[bestIdx].ID
		slot.EmployeeID = &id
		busy[id] = append(busy[id], interval{slot.StartsAt, slot.EndsAt})
		assigned[id] += slot.EndsAt.Sub(slot.StartsAt)
	}

	return slots
}

func overlapsAny(list []interval, start, end time.Time) bool {
	for _, iv := range list {
		if iv.start.Before(end) && iv.end.After(start) {
			return true
		}
	}
	return false
}
