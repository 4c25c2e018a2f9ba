package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Weekday is a locale independent day code.
type Weekday string

const (
	WeekdaySunday    Weekday = "sun"
	WeekdayMonday    Weekday = "mon"
	WeekdayTuesday   Weekday = "tue"
	WeekdayWednesday Weekday = "wed"
	WeekdayThursday  Weekday = "thu"
	WeekdayFriday    Weekday = "fri"
	WeekdaySaturday  Weekday = "sat"
)

// weekdayCodes is indexed by time.Weekday.
var weekdayCodes = [7]Weekday{
	WeekdaySunday,
	WeekdayMonday,
	WeekdayTuesday,
	WeekdayWednesday,
	WeekdayThursday,
	WeekdayFriday,
	WeekdaySaturday,
}

// WeekdayOf returns the code for the date's day of week.
func WeekdayOf(date time.Time) Weekday {
	return weekdayCodes[date.Weekday()]
}

// Valid reports whether w is one of the seven codes.
func (w Weekday) Valid() bool {
	for _, code := range weekdayCodes {
		if code == w {
			return true
		}
	}
	return false
}

// ScheduleSet identifies a client's recurring pattern.
type ScheduleSet string

const (
	// ScheduleSetSunday trains Sunday, Tuesday and Thursday.
	ScheduleSetSunday ScheduleSet = "sunday"
	// ScheduleSetSaturday trains Saturday, Monday and Wednesday.
	ScheduleSetSaturday ScheduleSet = "saturday"
	// ScheduleSetCustom trains on the client's custom days.
	ScheduleSetCustom ScheduleSet = "custom"
)

// Valid reports whether the set is known.
func (s ScheduleSet) Valid() bool {
	switch s {
	case ScheduleSetSunday, ScheduleSetSaturday, ScheduleSetCustom:
		return true
	default:
		return false
	}
}

// SessionTimes maps a weekday to a time of day, stored as jsonb.
type SessionTimes map[Weekday]string

// Value implements driver.Valuer.
func (t SessionTimes) Value() (driver.Value, error) {
	if t == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(t)
}

// Scan implements sql.Scanner.
func (t *SessionTimes) Scan(src interface{}) error {
	raw, err := jsonBytes(src)
	if err != nil {
		return fmt.Errorf("scan session times: %w", err)
	}
	out := SessionTimes{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			return fmt.Errorf("scan session times: %w", err)
		}
	}
	*t = out
	return nil
}

// Schedule is a client's recurring-schedule descriptor.
type Schedule struct {
	Set          ScheduleSet  `json:"schedule_set"`
	CustomDays   []Weekday    `json:"custom_days,omitempty"`
	SessionTimes SessionTimes `json:"session_times,omitempty"`
}

// Occurrence is an expected session slot computed from a schedule.
type Occurrence struct {
	Date         Date    `json:"date"`
	Weekday      Weekday `json:"weekday"`
	ExpectedTime string  `json:"expected_time"`
}

func jsonBytes(src interface{}) ([]byte, error) {
	switch v := src.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("unsupported type %T", src)
	}
}
