package dto

import (
	"time"

	"github.com/google/uuid"
)

// Request DTOs

// ActionRequest carries the reason for reject and cancel actions
type ActionRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

// ListAppointmentsQuery mirrors the upstream listing filters
type ListAppointmentsQuery struct {
	DoctorID *uuid.UUID
	Today    bool
	Upcoming bool

	// Refresh bypasses the advisory cache and forces a full refetch
	Refresh bool
}

// Response DTOs

type CreatedByResponse struct {
	ID    uuid.UUID `json:"id"`
	Role  string    `json:"role"`
	Label string    `json:"label"`
}

type PersonResponse struct {
	ID       uuid.UUID `json:"id"`
	FullName string    `json:"full_name"`
}

type AppointmentResponse struct {
	ID                 uuid.UUID       `json:"id"`
	DoctorID           uuid.UUID       `json:"doctor_id"`
	PatientID          uuid.UUID       `json:"patient_id"`
	ScheduledAt        time.Time       `json:"scheduled_at"`
	DurationMinutes    int             `json:"duration_minutes"`
	Reason             string          `json:"reason,omitempty"`
	Status             string          `json:"status"`
	PaymentStatus      string          `json:"payment_status"`
	ConsultationFee    string          `json:"consultation_fee"`
	CancellationReason string          `json:"cancellation_reason,omitempty"`
	CreatedBy          CreatedByResponse `json:"created_by"`
	Doctor             *PersonResponse `json:"doctor,omitempty"`
	Patient            *PersonResponse `json:"patient,omitempty"`
	AllowedActions     []string        `json:"allowed_actions"`
	Payable            bool            `json:"payable"`
	CanProceed         bool            `json:"can_proceed"`
	CreatedAt          time.Time       `json:"created_at"`
}

type AppointmentListResponse struct {
	Appointments []AppointmentResponse `json:"appointments"`
	Total        int                   `json:"total"`
}
