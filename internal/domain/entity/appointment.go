package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AppointmentStatus represents the lifecycle status of an appointment
type AppointmentStatus string

const (
	AppointmentStatusRequested  AppointmentStatus = "requested"
	AppointmentStatusScheduled  AppointmentStatus = "scheduled"
	AppointmentStatusConfirmed  AppointmentStatus = "confirmed"
	AppointmentStatusInProgress AppointmentStatus = "in_progress"
	AppointmentStatusCompleted  AppointmentStatus = "completed"
	AppointmentStatusCancelled  AppointmentStatus = "cancelled"
	AppointmentStatusNoShow     AppointmentStatus = "no_show"
)

// IsTerminal reports whether no further lifecycle transition is permitted.
func (s AppointmentStatus) IsTerminal() bool {
	switch s {
	case AppointmentStatusCompleted, AppointmentStatusCancelled, AppointmentStatusNoShow:
		return true
	}
	return false
}

// PaymentStatus represents the payment state of an appointment, owned by the
// upstream service and its payment processor. Never derived locally.
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusUnpaid   PaymentStatus = "unpaid"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// Role represents a party acting on an appointment
type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
	RoleAdmin   Role = "admin"
)

// CreatedBy records which party initiated an appointment. The role is fixed
// at creation and determines which party must accept to make the appointment
// binding.
type CreatedBy struct {
	ID   uuid.UUID `json:"id"`
	Role Role      `json:"role"`
}

// PersonRef is the embedded patient/doctor summary returned by the upstream
// appointment listing.
type PersonRef struct {
	ID       uuid.UUID `json:"id"`
	FullName string    `json:"full_name"`
	Email    string    `json:"email,omitempty"`
}

// Appointment is an advisory copy of an upstream appointment record. The
// upstream service owns the authoritative state; local copies are replaced by
// full refetch after any mutating call, never patched field by field.
type Appointment struct {
	ID                 uuid.UUID         `json:"id"`
	DoctorID           uuid.UUID         `json:"doctor_id"`
	PatientID          uuid.UUID         `json:"patient_id"`
	ScheduledAt        time.Time         `json:"scheduled_at"`
	DurationMinutes    int               `json:"duration_minutes"`
	Reason             string            `json:"reason"`
	Status             AppointmentStatus `json:"status"`
	PaymentStatus      PaymentStatus     `json:"payment_status"`
	ConsultationFee    decimal.Decimal   `json:"consultation_fee"`
	CancellationReason string            `json:"cancellation_reason,omitempty"`
	CreatedBy          CreatedBy         `json:"created_by"`
	CreatedAt          time.Time         `json:"created_at"`

	Doctor  *PersonRef `json:"doctor,omitempty"`
	Patient *PersonRef `json:"patient,omitempty"`
}

// IsRequested checks if the appointment is awaiting the doctor's response
func (a *Appointment) IsRequested() bool {
	return a.Status == AppointmentStatusRequested
}

// IsConfirmed checks if both parties have affirmed the appointment
func (a *Appointment) IsConfirmed() bool {
	return a.Status == AppointmentStatusConfirmed
}

// IsPaid checks if the consultation fee has been settled
func (a *Appointment) IsPaid() bool {
	return a.PaymentStatus == PaymentStatusPaid
}

// CreatedByPatient reports whether the patient initiated this appointment
func (a *Appointment) CreatedByPatient() bool {
	return a.CreatedBy.Role == RolePatient
}
