package usecase

import (
	"context"
	"errors"
	"sync"

	"go-appointment-portal/internal/domain/entity"
	"go-appointment-portal/internal/lifecycle"
	"go-appointment-portal/internal/payment"
	"go-appointment-portal/internal/remote"
	"go-appointment-portal/internal/service"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	// ErrActionInProgress is returned when another action is already in
	// flight for the same appointment. The caller retries by re-clicking;
	// nothing is queued.
	ErrActionInProgress = errors.New("an action is already in progress for this appointment")

	ErrAppointmentNotFound = errors.New("appointment not found")

	// ErrConsultationNotCleared blocks starting a consultation the payment
	// gate has not cleared.
	ErrConsultationNotCleared = errors.New("appointment is not cleared for consultation")
)

// RequestWorkflow orchestrates appointment lifecycle actions against the
// upstream service. Every action validates against the lifecycle table
// before any network call, holds a per-appointment lock for its duration,
// and mutates local state only after the upstream call succeeds.
type RequestWorkflow interface {
	Accept(ctx context.Context, sess *entity.Session, id uuid.UUID) (*entity.Appointment, error)
	Confirm(ctx context.Context, sess *entity.Session, id uuid.UUID) (*entity.Appointment, error)
	Reject(ctx context.Context, sess *entity.Session, id uuid.UUID, reason string) (*entity.Appointment, error)
	Cancel(ctx context.Context, sess *entity.Session, id uuid.UUID, reason string) (*entity.Appointment, error)
	Start(ctx context.Context, sess *entity.Session, id uuid.UUID) (*entity.Appointment, error)
	Complete(ctx context.Context, sess *entity.Session, id uuid.UUID) (*entity.Appointment, error)
	MarkNoShow(ctx context.Context, sess *entity.Session, id uuid.UUID) (*entity.Appointment, error)
}

type requestWorkflow struct {
	log    *logrus.Logger
	client remote.Client
	cache  service.AppointmentCache
	audit  service.ActionAuditService
	gate   *payment.Gate

	// inflight holds one entry per appointment id with an action underway
	inflight sync.Map
}

func NewRequestWorkflow(
	log *logrus.Logger,
	client remote.Client,
	cache service.AppointmentCache,
	audit service.ActionAuditService,
	gate *payment.Gate,
) RequestWorkflow {
	return &requestWorkflow{
		log:    log,
		client: client,
		cache:  cache,
		audit:  audit,
		gate:   gate,
	}
}

// tryLock acquires the advisory per-appointment action lock. It guarantees
// at most one in-flight mutating action per appointment id from this client;
// it does not order actions across different appointments.
func (w *requestWorkflow) tryLock(id uuid.UUID) bool {
	_, loaded := w.inflight.LoadOrStore(id, struct{}{})
	return !loaded
}

func (w *requestWorkflow) unlock(id uuid.UUID) {
	w.inflight.Delete(id)
}

func (w *requestWorkflow) Accept(ctx context.Context, sess *entity.Session, id uuid.UUID) (*entity.Appointment, error) {
	return w.run(ctx, sess, id, entity.ActionAppointmentAccept, func(appt *entity.Appointment) (entity.AppointmentStatus, error) {
		target, ok := lifecycle.AcceptTarget(appt.Status)
		if !ok {
			return "", &lifecycle.InvalidTransitionError{
				Current:   appt.Status,
				Attempted: entity.AppointmentStatusConfirmed,
				Actor:     sess.Role,
			}
		}
		if err := lifecycle.Validate(appt.Status, appt.CreatedBy.Role, sess.Role, target); err != nil {
			return "", err
		}
		return target, nil
	}, func(appt *entity.Appointment) error {
		return w.client.Accept(ctx, sess.Token, id)
	}, "")
}

func (w *requestWorkflow) Confirm(ctx context.Context, sess *entity.Session, id uuid.UUID) (*entity.Appointment, error) {
	return w.run(ctx, sess, id, entity.ActionAppointmentConfirm, func(appt *entity.Appointment) (entity.AppointmentStatus, error) {
		target := entity.AppointmentStatusConfirmed
		if err := lifecycle.Validate(appt.Status, appt.CreatedBy.Role, sess.Role, target); err != nil {
			return "", err
		}
		return target, nil
	}, func(appt *entity.Appointment) error {
		return w.client.Accept(ctx, sess.Token, id)
	}, "")
}

func (w *requestWorkflow) Reject(ctx context.Context, sess *entity.Session, id uuid.UUID, reason string) (*entity.Appointment, error) {
	return w.run(ctx, sess, id, entity.ActionAppointmentReject, func(appt *entity.Appointment) (entity.AppointmentStatus, error) {
		// Rejection only exists while the appointment awaits affirmation;
		// anything past that is a cancellation.
		if appt.Status != entity.AppointmentStatusRequested && appt.Status != entity.AppointmentStatusScheduled {
			return "", &lifecycle.InvalidTransitionError{
				Current:   appt.Status,
				Attempted: entity.AppointmentStatusCancelled,
				Actor:     sess.Role,
			}
		}
		target := entity.AppointmentStatusCancelled
		if err := lifecycle.Validate(appt.Status, appt.CreatedBy.Role, sess.Role, target); err != nil {
			return "", err
		}
		return target, nil
	}, func(appt *entity.Appointment) error {
		return w.client.Reject(ctx, sess.Token, id, reason)
	}, reason)
}

func (w *requestWorkflow) Cancel(ctx context.Context, sess *entity.Session, id uuid.UUID, reason string) (*entity.Appointment, error) {
	return w.run(ctx, sess, id, entity.ActionAppointmentCancel, func(appt *entity.Appointment) (entity.AppointmentStatus, error) {
		target := entity.AppointmentStatusCancelled
		if err := lifecycle.Validate(appt.Status, appt.CreatedBy.Role, sess.Role, target); err != nil {
			return "", err
		}
		return target, nil
	}, func(appt *entity.Appointment) error {
		if err := w.client.Cancel(ctx, sess.Token, id, reason); err != nil {
			return err
		}
		if w.gate.NeedsRefundOnCancel(appt) {
			// TODO(billing): hand the refund request to the billing
			// collaborator once its API is available.
			w.log.Warnf("Appointment %s cancelled with payment already settled, refund hand-off required", id)
		}
		return nil
	}, reason)
}

func (w *requestWorkflow) Start(ctx context.Context, sess *entity.Session, id uuid.UUID) (*entity.Appointment, error) {
	return w.run(ctx, sess, id, entity.ActionAppointmentStart, func(appt *entity.Appointment) (entity.AppointmentStatus, error) {
		target := entity.AppointmentStatusInProgress
		if err := lifecycle.Validate(appt.Status, appt.CreatedBy.Role, sess.Role, target); err != nil {
			return "", err
		}
		if !w.gate.CanProceedToConsultation(appt) {
			return "", ErrConsultationNotCleared
		}
		return target, nil
	}, func(appt *entity.Appointment) error {
		return w.client.UpdateStatus(ctx, sess.Token, id, entity.AppointmentStatusInProgress)
	}, "")
}

func (w *requestWorkflow) Complete(ctx context.Context, sess *entity.Session, id uuid.UUID) (*entity.Appointment, error) {
	return w.run(ctx, sess, id, entity.ActionAppointmentComplete, func(appt *entity.Appointment) (entity.AppointmentStatus, error) {
		target := entity.AppointmentStatusCompleted
		if err := lifecycle.Validate(appt.Status, appt.CreatedBy.Role, sess.Role, target); err != nil {
			return "", err
		}
		return target, nil
	}, func(appt *entity.Appointment) error {
		return w.client.UpdateStatus(ctx, sess.Token, id, entity.AppointmentStatusCompleted)
	}, "")
}

func (w *requestWorkflow) MarkNoShow(ctx context.Context, sess *entity.Session, id uuid.UUID) (*entity.Appointment, error) {
	return w.run(ctx, sess, id, entity.ActionAppointmentNoShow, func(appt *entity.Appointment) (entity.AppointmentStatus, error) {
		target := entity.AppointmentStatusNoShow
		if err := lifecycle.Validate(appt.Status, appt.CreatedBy.Role, sess.Role, target); err != nil {
			return "", err
		}
		return target, nil
	}, func(appt *entity.Appointment) error {
		return w.client.UpdateStatus(ctx, sess.Token, id, entity.AppointmentStatusNoShow)
	}, "")
}

// run executes one workflow action:
//  1. acquire the per-appointment lock, or fail with ErrActionInProgress
//  2. resolve the appointment's current local state
//  3. validate the transition; local failures never reach the network
//  4. call the upstream service
//  5. only on success, replace the local status and drop both parties'
//     cached listings so the next read is a full refetch
func (w *requestWorkflow) run(
	ctx context.Context,
	sess *entity.Session,
	id uuid.UUID,
	action string,
	decide func(appt *entity.Appointment) (entity.AppointmentStatus, error),
	call func(appt *entity.Appointment) error,
	cancellationReason string,
) (*entity.Appointment, error) {
	if !w.tryLock(id) {
		return nil, ErrActionInProgress
	}
	defer w.unlock(id)

	appt, err := w.resolveAppointment(ctx, sess, id)
	if err != nil {
		return nil, err
	}

	target, err := decide(appt)
	if err != nil {
		w.audit.Record(ctx, sess, id, action, appt.Status, target, entity.ActionOutcomeRejectedLocal, err.Error())
		return nil, err
	}

	if err := call(appt); err != nil {
		w.audit.Record(ctx, sess, id, action, appt.Status, target, entity.ActionOutcomeRejectedRemote, err.Error())
		return nil, err
	}

	updated := *appt
	updated.Status = target
	if cancellationReason != "" && target == entity.AppointmentStatusCancelled {
		updated.CancellationReason = cancellationReason
	}

	w.audit.Record(ctx, sess, id, action, appt.Status, target, entity.ActionOutcomeApplied, "")
	w.cache.Invalidate(ctx, appt.PatientID, appt.DoctorID)

	w.log.Infof("Appointment action applied: id=%s, action=%s, status=%s->%s, actor=%s", id, action, appt.Status, target, sess.Role)
	return &updated, nil
}

// resolveAppointment finds the appointment in the viewer's advisory cache,
// falling back to a full refetch from the upstream service on a miss.
func (w *requestWorkflow) resolveAppointment(ctx context.Context, sess *entity.Session, id uuid.UUID) (*entity.Appointment, error) {
	if cached, ok := w.cache.Get(ctx, sess.UserID); ok {
		for i := range cached {
			if cached[i].ID == id {
				return &cached[i], nil
			}
		}
	}

	appointments, err := w.client.ListAppointments(ctx, sess.Token, remote.ListFilter{})
	if err != nil {
		w.log.Warnf("Failed to refetch appointments for user %s: %+v", sess.UserID, err)
		return nil, err
	}
	w.cache.Set(ctx, sess.UserID, appointments)

	for i := range appointments {
		if appointments[i].ID == id {
			return &appointments[i], nil
		}
	}
	return nil, ErrAppointmentNotFound
}
