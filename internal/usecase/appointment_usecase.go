package usecase

import (
	"context"

	"go-appointment-portal/internal/converter"
	"go-appointment-portal/internal/delivery/dto"
	"go-appointment-portal/internal/domain/entity"
	"go-appointment-portal/internal/payment"
	"go-appointment-portal/internal/remote"
	"go-appointment-portal/internal/service"

	"github.com/sirupsen/logrus"
)

// AppointmentUsecase serves the viewer's appointment list. Reads go through
// the advisory cache; anything that might be stale is refreshed by a full
// refetch from the upstream service, never merged in place.
type AppointmentUsecase interface {
	ListAppointments(ctx context.Context, sess *entity.Session, query *dto.ListAppointmentsQuery) (*dto.AppointmentListResponse, error)
}

type appointmentUsecase struct {
	log    *logrus.Logger
	client remote.Client
	cache  service.AppointmentCache
	gate   *payment.Gate
}

func NewAppointmentUsecase(
	log *logrus.Logger,
	client remote.Client,
	cache service.AppointmentCache,
	gate *payment.Gate,
) AppointmentUsecase {
	return &appointmentUsecase{
		log:    log,
		client: client,
		cache:  cache,
		gate:   gate,
	}
}

func (u *appointmentUsecase) ListAppointments(ctx context.Context, sess *entity.Session, query *dto.ListAppointmentsQuery) (*dto.AppointmentListResponse, error) {
	// Only the unfiltered listing is cached; filtered views go straight
	// upstream so the filters stay server-computed.
	filtered := query.DoctorID != nil || query.Today || query.Upcoming

	if !filtered && !query.Refresh {
		if cached, ok := u.cache.Get(ctx, sess.UserID); ok {
			return &dto.AppointmentListResponse{
				Appointments: converter.AppointmentsToResponses(cached, sess, u.gate),
				Total:        len(cached),
			}, nil
		}
	}

	appointments, err := u.client.ListAppointments(ctx, sess.Token, remote.ListFilter{
		DoctorID: query.DoctorID,
		Today:    query.Today,
		Upcoming: query.Upcoming,
	})
	if err != nil {
		u.log.Warnf("Failed to list appointments for user %s: %+v", sess.UserID, err)
		return nil, err
	}

	if !filtered {
		u.cache.Set(ctx, sess.UserID, appointments)
	}

	return &dto.AppointmentListResponse{
		Appointments: converter.AppointmentsToResponses(appointments, sess, u.gate),
		Total:        len(appointments),
	}, nil
}
