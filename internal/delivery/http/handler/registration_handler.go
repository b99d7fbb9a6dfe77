package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"go-appointment-portal/internal/availability"
	"go-appointment-portal/internal/delivery/dto"
	"go-appointment-portal/internal/remote"
	"go-appointment-portal/internal/usecase"
	"go-appointment-portal/pkg/response"
	"go-appointment-portal/pkg/validator"

	"github.com/sirupsen/logrus"
)

type RegistrationHandler struct {
	log          *logrus.Logger
	registration usecase.RegistrationUsecase
	validator    *validator.CustomValidator
}

func NewRegistrationHandler(
	log *logrus.Logger,
	registration usecase.RegistrationUsecase,
	validator *validator.CustomValidator,
) *RegistrationHandler {
	return &RegistrationHandler{
		log:          log,
		registration: registration,
		validator:    validator,
	}
}

// AvailabilityWindow handles GET /api/v1/registration/availability-window.
// The registration form seeds its consultation-hours editor from this
// skeleton so client and server agree on which dates are in play.
func (h *RegistrationHandler) AvailabilityWindow(w http.ResponseWriter, r *http.Request) {
	window := h.registration.AvailabilityWindow(r.Context())
	response.Success(w, http.StatusOK, "Availability window retrieved successfully", window)
}

// RegisterDoctor handles POST /api/v1/doctors/register
func (h *RegistrationHandler) RegisterDoctor(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterDoctorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	if err := h.registration.RegisterDoctor(r.Context(), &req); err != nil {
		h.writeRegistrationError(w, err)
		return
	}

	response.Success(w, http.StatusCreated, "Doctor registered successfully", nil)
}

func (h *RegistrationHandler) writeRegistrationError(w http.ResponseWriter, err error) {
	var remoteErr *remote.RemoteError

	switch {
	case errors.Is(err, usecase.ErrInvalidConsultationFee),
		errors.Is(err, availability.ErrNoAvailableDay),
		errors.Is(err, availability.ErrSlotMissingTime),
		errors.Is(err, availability.ErrDuplicateSlotTime),
		errors.Is(err, availability.ErrInvalidTimeFormat):
		response.Error(w, http.StatusBadRequest, err.Error(), nil)
	case errors.As(err, &remoteErr):
		response.BadGateway(w, remoteErr.Message)
	case errors.Is(err, remote.ErrNetworkUnavailable):
		response.ServiceUnavailable(w, "")
	default:
		h.log.Warnf("Unexpected registration error: %+v", err)
		response.InternalServerError(w, "")
	}
}
