package usecase

import (
	"context"
	"errors"
	"time"

	"go-appointment-portal/internal/availability"
	"go-appointment-portal/internal/delivery/dto"
	"go-appointment-portal/internal/domain/entity"
	"go-appointment-portal/internal/remote"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var ErrInvalidConsultationFee = errors.New("consultation fee must be a non-negative amount")

// RegistrationUsecase handles the one-time provider registration flow: the
// consultation-hours schedule is validated locally before anything is sent
// upstream, and the submitted snapshot is not owned by this service
// afterwards.
type RegistrationUsecase interface {
	AvailabilityWindow(ctx context.Context) *dto.AvailabilityWindowResponse
	RegisterDoctor(ctx context.Context, req *dto.RegisterDoctorRequest) error
}

type registrationUsecase struct {
	log    *logrus.Logger
	client remote.Client
	now    func() time.Time
}

func NewRegistrationUsecase(log *logrus.Logger, client remote.Client) RegistrationUsecase {
	return &registrationUsecase{
		log:    log,
		client: client,
		now:    time.Now,
	}
}

// AvailabilityWindow returns the empty rolling-window skeleton for the
// registration form.
func (u *registrationUsecase) AvailabilityWindow(ctx context.Context) *dto.AvailabilityWindowResponse {
	schedule := availability.NewSchedule(uuid.Nil, u.now())

	days := make(map[string]dto.DayScheduleResponse, len(schedule.Dates))
	for _, date := range schedule.Dates {
		days[date] = dto.DayScheduleResponse{Available: false, Slots: []dto.SlotResponse{}}
	}

	return &dto.AvailabilityWindowResponse{
		Dates: schedule.Dates,
		Days:  days,
	}
}

// RegisterDoctor validates the submitted consultation hours and forwards the
// registration to the upstream service. Validation failures never leave this
// process.
func (u *registrationUsecase) RegisterDoctor(ctx context.Context, req *dto.RegisterDoctorRequest) error {
	fee, err := decimal.NewFromString(req.ConsultationFee)
	if err != nil || fee.IsNegative() {
		return ErrInvalidConsultationFee
	}

	schedule := scheduleFromRequest(req.ConsultationHours)
	if err := schedule.Validate(); err != nil {
		return err
	}

	payload := &remote.RegisterDoctorRequest{
		FullName:          req.FullName,
		Email:             req.Email,
		Specialization:    req.Specialization,
		ConsultationFee:   fee.String(),
		ConsultationHours: consultationHoursPayload(schedule),
	}

	if err := u.client.RegisterDoctor(ctx, payload); err != nil {
		u.log.Warnf("Doctor registration failed for %s: %+v", req.Email, err)
		return err
	}

	u.log.Infof("Doctor registered: email=%s, specialization=%s", req.Email, req.Specialization)
	return nil
}

// scheduleFromRequest rebuilds the schedule model from the submitted form
// state so the same validator runs here as in the UI.
func scheduleFromRequest(hours map[string]dto.DayScheduleRequest) *availability.Schedule {
	schedule := &availability.Schedule{
		Days: make(map[string]*availability.DaySchedule, len(hours)),
	}
	for date, day := range hours {
		slots := make([]entity.TimeSlot, 0, len(day.Slots))
		for _, slot := range day.Slots {
			slots = append(slots, entity.TimeSlot{
				ID:     uuid.New(),
				Date:   date,
				Time:   slot.Time,
				Status: entity.SlotStatusPending,
			})
		}
		schedule.Dates = append(schedule.Dates, date)
		schedule.Days[date] = &availability.DaySchedule{
			Available: day.Available,
			Slots:     slots,
		}
	}
	return schedule
}

// consultationHoursPayload snapshots the validated schedule into the wire
// format the upstream registration endpoint expects.
func consultationHoursPayload(schedule *availability.Schedule) map[string]remote.ConsultationDay {
	payload := make(map[string]remote.ConsultationDay, len(schedule.Days))
	for date, day := range schedule.Days {
		slots := make([]remote.ConsultationSlot, 0, len(day.Slots))
		for _, slot := range day.Slots {
			slots = append(slots, remote.ConsultationSlot{
				Time:   slot.Time,
				Status: string(slot.Status),
			})
		}
		payload[date] = remote.ConsultationDay{
			Available: day.Available,
			Slots:     slots,
		}
	}
	return payload
}
