// Package availability models a provider's consultation-hours schedule as it
// is assembled during registration: a rolling window of calendar dates, each
// toggled available or not and holding an ordered list of time slots.
//
// Mutators stay permissive so the registration form remains responsive; the
// schedule invariants are enforced once, by Validate, at submission time.
package availability

import (
	"errors"
	"fmt"
	"time"

	"go-appointment-portal/internal/domain/entity"

	"github.com/google/uuid"
)

const (
	// DateLayout is the ISO calendar-date key for schedule days
	DateLayout = "2006-01-02"

	// TimeLayout is the accepted time-of-day format for slots
	TimeLayout = "15:04"

	// DefaultStartOffsetDays places the first bookable day on tomorrow
	DefaultStartOffsetDays = 1

	// DefaultWindowDays is the length of the rolling window
	DefaultWindowDays = 7
)

var (
	ErrUnknownDate       = errors.New("date is not part of the schedule window")
	ErrSlotNotFound      = errors.New("slot not found on this date")
	ErrInvalidTimeFormat = errors.New("invalid time format, use HH:MM")

	// Validation errors, raised only at submission time
	ErrNoAvailableDay    = errors.New("schedule needs at least one available day with a bookable slot")
	ErrSlotMissingTime   = errors.New("slot on an available day is missing a time")
	ErrDuplicateSlotTime = errors.New("duplicate slot time on the same day")
)

// DaySchedule holds the offered flag and the ordered slot list for one
// calendar date. Slots on an unavailable day are retained but ignored by the
// validator, so toggling a day back on restores them.
type DaySchedule struct {
	Available bool            `json:"available"`
	Slots     []entity.TimeSlot `json:"slots"`
}

// Schedule is a provider's consultation-hours window. It is owned exclusively
// by the registering provider; after submission the upstream service owns all
// further updates.
type Schedule struct {
	DoctorID uuid.UUID
	Dates    []string
	Days     map[string]*DaySchedule
}

// BuildRollingWindow produces windowDays consecutive ISO dates beginning
// startOffsetDays after now, independent of weekday and month boundaries.
func BuildRollingWindow(now time.Time, startOffsetDays, windowDays int) []string {
	dates := make([]string, 0, windowDays)
	for i := 0; i < windowDays; i++ {
		dates = append(dates, now.AddDate(0, 0, startOffsetDays+i).Format(DateLayout))
	}
	return dates
}

// NewSchedule builds an empty schedule over the default rolling window, every
// day starting unavailable.
func NewSchedule(doctorID uuid.UUID, now time.Time) *Schedule {
	dates := BuildRollingWindow(now, DefaultStartOffsetDays, DefaultWindowDays)
	days := make(map[string]*DaySchedule, len(dates))
	for _, d := range dates {
		days[d] = &DaySchedule{}
	}
	return &Schedule{
		DoctorID: doctorID,
		Dates:    dates,
		Days:     days,
	}
}

// ToggleDay marks a date offered or not. Enabling a day with zero slots
// auto-inserts one pending slot so the provider has an editable row right
// away.
func (s *Schedule) ToggleDay(date string, available bool) error {
	day, ok := s.Days[date]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownDate, date)
	}

	day.Available = available
	if available && len(day.Slots) == 0 {
		day.Slots = append(day.Slots, entity.NewPendingSlot(date))
	}
	return nil
}

// AddSlot appends a pending slot with no time set to the given date.
func (s *Schedule) AddSlot(date string) (entity.TimeSlot, error) {
	day, ok := s.Days[date]
	if !ok {
		return entity.TimeSlot{}, fmt.Errorf("%w: %s", ErrUnknownDate, date)
	}

	slot := entity.NewPendingSlot(date)
	day.Slots = append(day.Slots, slot)
	return slot, nil
}

// RemoveSlot deletes a slot from the given date. Removal is always permitted
// here; leaving the last available day without slots is caught by Validate
// at submission, not by the mutator.
func (s *Schedule) RemoveSlot(date string, slotID uuid.UUID) error {
	day, ok := s.Days[date]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownDate, date)
	}

	for i, slot := range day.Slots {
		if slot.ID == slotID {
			day.Slots = append(day.Slots[:i], day.Slots[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s on %s", ErrSlotNotFound, slotID, date)
}

// SetSlotTime assigns a time of day to a slot.
func (s *Schedule) SetSlotTime(date string, slotID uuid.UUID, timeOfDay string) error {
	day, ok := s.Days[date]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownDate, date)
	}
	if _, err := time.Parse(TimeLayout, timeOfDay); err != nil {
		return ErrInvalidTimeFormat
	}

	for i := range day.Slots {
		if day.Slots[i].ID == slotID {
			day.Slots[i].Time = timeOfDay
			return nil
		}
	}
	return fmt.Errorf("%w: %s on %s", ErrSlotNotFound, slotID, date)
}

// Validate enforces the submission invariants: at least one available day
// carrying a bookable slot, no slot on an available day missing its time,
// and no duplicate (date, time) pair. Unavailable days are ignored entirely.
func (s *Schedule) Validate() error {
	eligible := false

	for _, date := range s.Dates {
		day := s.Days[date]
		if day == nil || !day.Available {
			continue
		}

		seen := make(map[string]bool, len(day.Slots))
		for _, slot := range day.Slots {
			if !slot.IsBookable() {
				return fmt.Errorf("%w: %s", ErrSlotMissingTime, date)
			}
			if _, err := time.Parse(TimeLayout, slot.Time); err != nil {
				return fmt.Errorf("%w: %s %s", ErrInvalidTimeFormat, date, slot.Time)
			}
			if seen[slot.Time] {
				return fmt.Errorf("%w: %s %s", ErrDuplicateSlotTime, date, slot.Time)
			}
			seen[slot.Time] = true
			eligible = true
		}
	}

	if !eligible {
		return ErrNoAvailableDay
	}
	return nil
}
