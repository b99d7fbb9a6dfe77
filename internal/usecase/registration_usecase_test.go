package usecase

import (
	"context"
	"errors"
	"testing"

	"go-appointment-portal/internal/availability"
	"go-appointment-portal/internal/delivery/dto"

	logrustest "github.com/sirupsen/logrus/hooks/test"
)

func newRegistrationFixture() (RegistrationUsecase, *mockRemoteClient) {
	log, _ := logrustest.NewNullLogger()
	client := &mockRemoteClient{}
	return NewRegistrationUsecase(log, client), client
}

func validRegistration() *dto.RegisterDoctorRequest {
	return &dto.RegisterDoctorRequest{
		FullName:        "Dr. Example",
		Email:           "dr@example.com",
		Specialization:  "cardiology",
		ConsultationFee: "15000",
		ConsultationHours: map[string]dto.DayScheduleRequest{
			"2026-06-02": {
				Available: true,
				Slots:     []dto.SlotRequest{{Time: "09:00"}},
			},
			"2026-06-03": {
				Available: false,
				Slots:     nil,
			},
		},
	}
}

func TestRegisterDoctor_ValidScheduleIsForwarded(t *testing.T) {
	usecase, client := newRegistrationFixture()

	if err := usecase.RegisterDoctor(context.Background(), validRegistration()); err != nil {
		t.Fatalf("RegisterDoctor: %v", err)
	}
	if client.registerCalls != 1 {
		t.Errorf("register calls = %d, want 1", client.registerCalls)
	}
}

func TestRegisterDoctor_NoAvailableDayNeverReachesNetwork(t *testing.T) {
	usecase, client := newRegistrationFixture()

	req := validRegistration()
	for date, day := range req.ConsultationHours {
		day.Available = false
		req.ConsultationHours[date] = day
	}

	err := usecase.RegisterDoctor(context.Background(), req)
	if !errors.Is(err, availability.ErrNoAvailableDay) {
		t.Fatalf("RegisterDoctor = %v, want ErrNoAvailableDay", err)
	}
	if client.registerCalls != 0 {
		t.Errorf("register calls = %d, want 0", client.registerCalls)
	}
}

func TestRegisterDoctor_TimelessSlotOnAvailableDayFails(t *testing.T) {
	usecase, client := newRegistrationFixture()

	req := validRegistration()
	req.ConsultationHours["2026-06-02"] = dto.DayScheduleRequest{
		Available: true,
		Slots:     []dto.SlotRequest{{Time: ""}},
	}

	err := usecase.RegisterDoctor(context.Background(), req)
	if !errors.Is(err, availability.ErrSlotMissingTime) {
		t.Fatalf("RegisterDoctor = %v, want ErrSlotMissingTime", err)
	}
	if client.registerCalls != 0 {
		t.Errorf("register calls = %d, want 0", client.registerCalls)
	}
}

func TestRegisterDoctor_RejectsBadFee(t *testing.T) {
	usecase, client := newRegistrationFixture()

	for _, fee := range []string{"", "abc", "-50"} {
		req := validRegistration()
		req.ConsultationFee = fee
		if err := usecase.RegisterDoctor(context.Background(), req); !errors.Is(err, ErrInvalidConsultationFee) {
			t.Errorf("fee %q: err = %v, want ErrInvalidConsultationFee", fee, err)
		}
	}
	if client.registerCalls != 0 {
		t.Errorf("register calls = %d, want 0", client.registerCalls)
	}
}

func TestAvailabilityWindow_SkeletonMatchesRollingWindow(t *testing.T) {
	usecase, _ := newRegistrationFixture()

	window := usecase.AvailabilityWindow(context.Background())
	if len(window.Dates) != availability.DefaultWindowDays {
		t.Fatalf("dates = %d, want %d", len(window.Dates), availability.DefaultWindowDays)
	}
	for _, date := range window.Dates {
		day, ok := window.Days[date]
		if !ok {
			t.Errorf("missing day entry for %s", date)
			continue
		}
		if day.Available {
			t.Errorf("day %s should start unavailable", date)
		}
		if len(day.Slots) != 0 {
			t.Errorf("day %s should start with no slots", date)
		}
	}
}
