package entity

import "github.com/google/uuid"

// SlotStatus represents the booking state of a time slot
type SlotStatus string

const (
	SlotStatusPending SlotStatus = "pending"
	SlotStatusBooked  SlotStatus = "booked"
)

// TimeSlot is one bookable instant for a provider on a calendar date. The
// time of day stays empty until the provider fills it in; an empty time is
// never bookable.
type TimeSlot struct {
	ID     uuid.UUID  `json:"id"`
	Date   string     `json:"date"`
	Time   string     `json:"time,omitempty"`
	Status SlotStatus `json:"status"`
}

// NewPendingSlot creates an editable slot with no time set yet
func NewPendingSlot(date string) TimeSlot {
	return TimeSlot{
		ID:     uuid.New(),
		Date:   date,
		Status: SlotStatusPending,
	}
}

// IsBookable reports whether the slot carries a concrete time of day
func (t *TimeSlot) IsBookable() bool {
	return t.Time != ""
}
