package schedule

import (
	"errors"
	"fmt"
	"iter"
	"slices"

	"github.com/noah-isme/trainer-attendance-api/internal/models"
)

var fixedSets = map[models.ScheduleSet][]models.Weekday{
	models.ScheduleSetSunday:   {models.WeekdaySunday, models.WeekdayTuesday, models.WeekdayThursday},
	models.ScheduleSetSaturday: {models.WeekdaySaturday, models.WeekdayMonday, models.WeekdayWednesday},
}

// Resolver turns schedule descriptors into occurrences.
type Resolver struct {
	defaultTime string
}

// NewResolver builds a resolver. An empty or invalid default falls back to 09:00.
func NewResolver(defaultTime string) Resolver {
	if !ValidTimeOfDay(defaultTime) {
		defaultTime = DefaultSessionTime
	}
	return Resolver{defaultTime: defaultTime}
}

func (r Resolver) fallbackTime() string {
	if r.defaultTime == "" {
		return DefaultSessionTime
	}
	return r.defaultTime
}

// Expected reports whether the schedule trains on day. Unknown sets never match.
func Expected(s models.Schedule, day models.Weekday) bool {
	if s.Set == models.ScheduleSetCustom {
		return slices.Contains(s.CustomDays, day)
	}
	return slices.Contains(fixedSets[s.Set], day)
}

// Resolve returns the occurrence on date, if the schedule expects one.
func (r Resolver) Resolve(s models.Schedule, date models.Date) (models.Occurrence, bool) {
	day := date.WeekdayCode()
	if !Expected(s, day) {
		return models.Occurrence{}, false
	}
	expected, ok := s.SessionTimes[day]
	if !ok || expected == "" {
		expected = r.fallbackTime()
	}
	return models.Occurrence{Date: date, Weekday: day, ExpectedTime: expected}, true
}

// Occurrences yields the expected sessions in the days starting at from, in date order.
// The sequence is pure and can be ranged over any number of times.
func (r Resolver) Occurrences(s models.Schedule, from models.Date, days int) iter.Seq[models.Occurrence] {
	return func(yield func(models.Occurrence) bool) {
		for i := 0; i < days; i++ {
			occ, ok := r.Resolve(s, from.AddDays(i))
			if !ok {
				continue
			}
			if !yield(occ) {
				return
			}
		}
	}
}

// Between yields occurrences from..to inclusive. An inverted range is empty.
func (r Resolver) Between(s models.Schedule, from, to models.Date) iter.Seq[models.Occurrence] {
	return r.Occurrences(s, from, DaysBetween(from, to))
}

// DaysBetween counts the calendar days in from..to inclusive.
func DaysBetween(from, to models.Date) int {
	if to.Before(from.Time) {
		return 0
	}
	return int(to.Sub(from.Time).Hours()/24) + 1
}

// Validate checks a schedule descriptor before it is persisted.
func Validate(s models.Schedule) error {
	var errs []error
	if !s.Set.Valid() {
		errs = append(errs, fmt.Errorf("unknown schedule_set %q", s.Set))
	}
	if s.Set == models.ScheduleSetCustom && len(s.CustomDays) == 0 {
		errs = append(errs, errors.New("custom_days is required for a custom schedule"))
	}
	seen := make(map[models.Weekday]bool, len(s.CustomDays))
	for _, day := range s.CustomDays {
		if !day.Valid() {
			errs = append(errs, fmt.Errorf("invalid custom day %q", day))
			continue
		}
		if seen[day] {
			errs = append(errs, fmt.Errorf("duplicate custom day %q", day))
		}
		seen[day] = true
	}
	for day, at := range s.SessionTimes {
		if !day.Valid() {
			errs = append(errs, fmt.Errorf("invalid session_times key %q", day))
			continue
		}
		if !ValidTimeOfDay(at) {
			errs = append(errs, fmt.Errorf("invalid session time %q for %s", at, day))
		}
	}
	return errors.Join(errs...)
}
