package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go-appointment-portal/internal/delivery/dto"
	"go-appointment-portal/internal/delivery/http/middleware"
	"go-appointment-portal/internal/domain/entity"
	"go-appointment-portal/internal/lifecycle"
	"go-appointment-portal/internal/remote"
	"go-appointment-portal/internal/service"
	"go-appointment-portal/internal/usecase"
	"go-appointment-portal/pkg/response"
	"go-appointment-portal/pkg/validator"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

type AppointmentHandler struct {
	log         *logrus.Logger
	appointment usecase.AppointmentUsecase
	workflow    usecase.RequestWorkflow
	audit       service.ActionAuditService
	validator   *validator.CustomValidator
}

func NewAppointmentHandler(
	log *logrus.Logger,
	appointment usecase.AppointmentUsecase,
	workflow usecase.RequestWorkflow,
	audit service.ActionAuditService,
	validator *validator.CustomValidator,
) *AppointmentHandler {
	return &AppointmentHandler{
		log:         log,
		appointment: appointment,
		workflow:    workflow,
		audit:       audit,
		validator:   validator,
	}
}

// List handles GET /api/v1/appointments
func (h *AppointmentHandler) List(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Session not found")
		return
	}

	query := &dto.ListAppointmentsQuery{}

	if raw := r.URL.Query().Get("doctor_id"); raw != "" {
		doctorID, err := uuid.Parse(raw)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "Invalid doctor id", nil)
			return
		}
		query.DoctorID = &doctorID
	}
	if raw := r.URL.Query().Get("today"); raw != "" {
		query.Today, _ = strconv.ParseBool(raw)
	}
	if raw := r.URL.Query().Get("upcoming"); raw != "" {
		query.Upcoming, _ = strconv.ParseBool(raw)
	}
	if raw := r.URL.Query().Get("refresh"); raw != "" {
		query.Refresh, _ = strconv.ParseBool(raw)
	}

	result, err := h.appointment.ListAppointments(r.Context(), session, query)
	if err != nil {
		h.writeWorkflowError(w, err)
		return
	}

	response.Success(w, http.StatusOK, "Appointments retrieved successfully", result)
}

// Accept handles POST /api/v1/appointments/{id}/accept
func (h *AppointmentHandler) Accept(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, "Appointment accepted successfully", func(ctx context.Context, sess *entity.Session, id uuid.UUID) (*entity.Appointment, error) {
		return h.workflow.Accept(ctx, sess, id)
	})
}

// Confirm handles POST /api/v1/appointments/{id}/confirm
func (h *AppointmentHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, "Appointment confirmed successfully", func(ctx context.Context, sess *entity.Session, id uuid.UUID) (*entity.Appointment, error) {
		return h.workflow.Confirm(ctx, sess, id)
	})
}

// Reject handles POST /api/v1/appointments/{id}/reject
func (h *AppointmentHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.actWithReason(w, r, "Appointment rejected successfully", h.workflow.Reject)
}

// Cancel handles PATCH /api/v1/appointments/{id}/cancel
func (h *AppointmentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.actWithReason(w, r, "Appointment cancelled successfully", h.workflow.Cancel)
}

// Start handles PATCH /api/v1/appointments/{id}/start
func (h *AppointmentHandler) Start(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, "Consultation started successfully", func(ctx context.Context, sess *entity.Session, id uuid.UUID) (*entity.Appointment, error) {
		return h.workflow.Start(ctx, sess, id)
	})
}

// Complete handles PATCH /api/v1/appointments/{id}/complete
func (h *AppointmentHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, "Consultation completed successfully", func(ctx context.Context, sess *entity.Session, id uuid.UUID) (*entity.Appointment, error) {
		return h.workflow.Complete(ctx, sess, id)
	})
}

// History handles GET /api/v1/appointments/{id}/history. It returns the
// locally recorded action trail, including attempts that never reached the
// upstream service.
func (h *AppointmentHandler) History(w http.ResponseWriter, r *http.Request) {
	id, err := appointmentID(r)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid appointment id", nil)
		return
	}

	logs, err := h.audit.History(r.Context(), id)
	if err != nil {
		h.log.Warnf("Failed to load action history for appointment %s: %+v", id, err)
		response.InternalServerError(w, "")
		return
	}

	response.Success(w, http.StatusOK, "Action history retrieved successfully", logs)
}

// NoShow handles PATCH /api/v1/appointments/{id}/no-show
func (h *AppointmentHandler) NoShow(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, "Appointment marked as no-show", func(ctx context.Context, sess *entity.Session, id uuid.UUID) (*entity.Appointment, error) {
		return h.workflow.MarkNoShow(ctx, sess, id)
	})
}

func (h *AppointmentHandler) act(
	w http.ResponseWriter,
	r *http.Request,
	message string,
	do func(ctx context.Context, sess *entity.Session, id uuid.UUID) (*entity.Appointment, error),
) {
	session, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Session not found")
		return
	}

	id, err := appointmentID(r)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid appointment id", nil)
		return
	}

	appt, err := do(r.Context(), session, id)
	if err != nil {
		h.writeWorkflowError(w, err)
		return
	}

	response.Success(w, http.StatusOK, message, appt)
}

func (h *AppointmentHandler) actWithReason(
	w http.ResponseWriter,
	r *http.Request,
	message string,
	do func(ctx context.Context, sess *entity.Session, id uuid.UUID, reason string) (*entity.Appointment, error),
) {
	session, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Session not found")
		return
	}

	id, err := appointmentID(r)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid appointment id", nil)
		return
	}

	var req dto.ActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	appt, err := do(r.Context(), session, id, req.Reason)
	if err != nil {
		h.writeWorkflowError(w, err)
		return
	}

	response.Success(w, http.StatusOK, message, appt)
}

// writeWorkflowError maps workflow failures onto HTTP statuses. Upstream
// rejection messages pass through verbatim so the portal shows the same
// wording the scheduling service produced.
func (h *AppointmentHandler) writeWorkflowError(w http.ResponseWriter, err error) {
	var transitionErr *lifecycle.InvalidTransitionError
	var remoteErr *remote.RemoteError

	switch {
	case errors.As(err, &transitionErr):
		response.Conflict(w, transitionErr.Error())
	case errors.Is(err, usecase.ErrActionInProgress):
		response.Conflict(w, err.Error())
	case errors.Is(err, usecase.ErrConsultationNotCleared):
		response.Conflict(w, err.Error())
	case errors.Is(err, usecase.ErrAppointmentNotFound):
		response.NotFound(w, err.Error())
	case errors.As(err, &remoteErr):
		response.BadGateway(w, remoteErr.Message)
	case errors.Is(err, remote.ErrNetworkUnavailable):
		response.ServiceUnavailable(w, "")
	default:
		h.log.Warnf("Unexpected workflow error: %+v", err)
		response.InternalServerError(w, "")
	}
}

func appointmentID(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(mux.Vars(r)["id"])
}
