package converter

import (
	"go-appointment-portal/internal/delivery/dto"
	"go-appointment-portal/internal/domain/entity"
	"go-appointment-portal/internal/lifecycle"
	"go-appointment-portal/internal/payment"
)

// AppointmentToResponse converts an Appointment entity to its response DTO,
// enriched with what the viewer may do next. The action set comes straight
// from the lifecycle table so the UI never branches on status itself.
func AppointmentToResponse(a *entity.Appointment, sess *entity.Session, gate *payment.Gate) *dto.AppointmentResponse {
	if a == nil {
		return nil
	}

	actions := lifecycle.AllowedActions(a.Status, a.CreatedBy.Role, sess.Role)
	actionNames := make([]string, 0, len(actions))
	for _, action := range actions {
		actionNames = append(actionNames, string(action))
	}

	response := &dto.AppointmentResponse{
		ID:                 a.ID,
		DoctorID:           a.DoctorID,
		PatientID:          a.PatientID,
		ScheduledAt:        a.ScheduledAt,
		DurationMinutes:    a.DurationMinutes,
		Reason:             a.Reason,
		Status:             string(a.Status),
		PaymentStatus:      string(a.PaymentStatus),
		ConsultationFee:    a.ConsultationFee.String(),
		CancellationReason: a.CancellationReason,
		CreatedBy: dto.CreatedByResponse{
			ID:    a.CreatedBy.ID,
			Role:  string(a.CreatedBy.Role),
			Label: creatorLabel(a, sess),
		},
		AllowedActions: actionNames,
		Payable:        gate.IsPayable(a),
		CanProceed:     gate.CanProceedToConsultation(a),
		CreatedAt:      a.CreatedAt,
	}

	if a.Doctor != nil {
		response.Doctor = &dto.PersonResponse{ID: a.Doctor.ID, FullName: a.Doctor.FullName}
	}
	if a.Patient != nil {
		response.Patient = &dto.PersonResponse{ID: a.Patient.ID, FullName: a.Patient.FullName}
	}

	return response
}

// AppointmentsToResponses converts a slice of Appointment entities
func AppointmentsToResponses(appointments []entity.Appointment, sess *entity.Session, gate *payment.Gate) []dto.AppointmentResponse {
	responses := make([]dto.AppointmentResponse, 0, len(appointments))
	for i := range appointments {
		if resp := AppointmentToResponse(&appointments[i], sess, gate); resp != nil {
			responses = append(responses, *resp)
		}
	}
	return responses
}

// creatorLabel is the provenance badge rendered next to each appointment
func creatorLabel(a *entity.Appointment, sess *entity.Session) string {
	if a.CreatedBy.ID == sess.UserID {
		return "You"
	}
	switch a.CreatedBy.Role {
	case entity.RolePatient:
		return "Patient"
	case entity.RoleDoctor:
		return "Doctor"
	case entity.RoleAdmin:
		return "Admin"
	}
	return "Unknown"
}
