package dto

// Request DTOs

type SlotRequest struct {
	Time string `json:"time"`
}

type DayScheduleRequest struct {
	Available bool          `json:"available"`
	Slots     []SlotRequest `json:"slots"`
}

type RegisterDoctorRequest struct {
	FullName          string                        `json:"full_name" validate:"required,max=255"`
	Email             string                        `json:"email" validate:"required,email"`
	Specialization    string                        `json:"specialization" validate:"required,max=100"`
	ConsultationFee   string                        `json:"consultation_fee" validate:"required"`
	ConsultationHours map[string]DayScheduleRequest `json:"consultation_hours" validate:"required"`
}

// Response DTOs

type SlotResponse struct {
	ID     string `json:"id"`
	Time   string `json:"time,omitempty"`
	Status string `json:"status"`
}

type DayScheduleResponse struct {
	Available bool           `json:"available"`
	Slots     []SlotResponse `json:"slots"`
}

// AvailabilityWindowResponse is the empty 7-day skeleton the registration
// form starts from.
type AvailabilityWindowResponse struct {
	Dates []string                       `json:"dates"`
	Days  map[string]DayScheduleResponse `json:"days"`
}
