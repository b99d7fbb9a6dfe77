package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go-appointment-portal/internal/domain/entity"
	"go-appointment-portal/internal/lifecycle"
	"go-appointment-portal/internal/payment"
	"go-appointment-portal/internal/remote"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	logrustest "github.com/sirupsen/logrus/hooks/test"
)

// --- mocks ---

type mockRemoteClient struct {
	mu           sync.Mutex
	appointments []entity.Appointment

	acceptCalls   int
	rejectCalls   int
	cancelCalls   int
	statusCalls   int
	listCalls     int
	registerCalls int

	lastRejectReason string
	lastCancelReason string
	lastStatus       entity.AppointmentStatus

	err error

	// when set, Accept signals acceptStarted and blocks until acceptRelease
	acceptStarted chan struct{}
	acceptRelease chan struct{}
}

func (m *mockRemoteClient) Accept(_ context.Context, _ string, _ uuid.UUID) error {
	m.mu.Lock()
	m.acceptCalls++
	started, release := m.acceptStarted, m.acceptRelease
	m.mu.Unlock()

	if started != nil {
		started <- struct{}{}
		<-release
	}
	return m.err
}

func (m *mockRemoteClient) Reject(_ context.Context, _ string, _ uuid.UUID, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rejectCalls++
	m.lastRejectReason = reason
	return m.err
}

func (m *mockRemoteClient) Cancel(_ context.Context, _ string, _ uuid.UUID, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancelCalls++
	m.lastCancelReason = reason
	return m.err
}

func (m *mockRemoteClient) UpdateStatus(_ context.Context, _ string, _ uuid.UUID, status entity.AppointmentStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statusCalls++
	m.lastStatus = status
	return m.err
}

func (m *mockRemoteClient) ListAppointments(_ context.Context, _ string, _ remote.ListFilter) ([]entity.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	return append([]entity.Appointment(nil), m.appointments...), nil
}

func (m *mockRemoteClient) RegisterDoctor(_ context.Context, _ *remote.RegisterDoctorRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registerCalls++
	return m.err
}

func (m *mockRemoteClient) mutatingCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.acceptCalls + m.rejectCalls + m.cancelCalls + m.statusCalls
}

type mockCache struct {
	mu          sync.Mutex
	entries     map[uuid.UUID][]entity.Appointment
	invalidated []uuid.UUID
}

func newMockCache() *mockCache {
	return &mockCache{entries: make(map[uuid.UUID][]entity.Appointment)}
}

func (m *mockCache) Get(_ context.Context, userID uuid.UUID) ([]entity.Appointment, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	appts, ok := m.entries[userID]
	return appts, ok
}

func (m *mockCache) Set(_ context.Context, userID uuid.UUID, appts []entity.Appointment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[userID] = appts
}

func (m *mockCache) Invalidate(_ context.Context, userIDs ...uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range userIDs {
		delete(m.entries, id)
		m.invalidated = append(m.invalidated, id)
	}
}

type auditEntry struct {
	action  string
	from    entity.AppointmentStatus
	to      entity.AppointmentStatus
	outcome string
}

type mockAudit struct {
	mu      sync.Mutex
	entries []auditEntry
}

func (m *mockAudit) Record(_ context.Context, _ *entity.Session, _ uuid.UUID, action string, from, to entity.AppointmentStatus, outcome string, _ string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, auditEntry{action, from, to, outcome})
}

func (m *mockAudit) History(_ context.Context, _ uuid.UUID) ([]entity.ActionLog, error) {
	return nil, nil
}

func (m *mockAudit) last() (auditEntry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.entries) == 0 {
		return auditEntry{}, false
	}
	return m.entries[len(m.entries)-1], true
}

// --- fixtures ---

type workflowFixture struct {
	workflow RequestWorkflow
	client   *mockRemoteClient
	cache    *mockCache
	audit    *mockAudit
	logHook  *logrustest.Hook
}

func newWorkflowFixture(requirePrepayment bool, appointments ...entity.Appointment) *workflowFixture {
	log, hook := logrustest.NewNullLogger()
	client := &mockRemoteClient{appointments: appointments}
	cache := newMockCache()
	audit := &mockAudit{}

	return &workflowFixture{
		workflow: NewRequestWorkflow(log, client, cache, audit, payment.NewGate(requirePrepayment)),
		client:   client,
		cache:    cache,
		audit:    audit,
		logHook:  hook,
	}
}

func doctorScheduledAppointment(patientID, doctorID uuid.UUID) entity.Appointment {
	return entity.Appointment{
		ID:              uuid.New(),
		DoctorID:        doctorID,
		PatientID:       patientID,
		ScheduledAt:     time.Now().Add(48 * time.Hour),
		DurationMinutes: 30,
		Status:          entity.AppointmentStatusScheduled,
		PaymentStatus:   entity.PaymentStatusUnpaid,
		ConsultationFee: decimal.NewFromInt(15000),
		CreatedBy:       entity.CreatedBy{ID: doctorID, Role: entity.RoleDoctor},
		CreatedAt:       time.Now(),
	}
}

func patientRequestedAppointment(patientID, doctorID uuid.UUID) entity.Appointment {
	return entity.Appointment{
		ID:              uuid.New(),
		DoctorID:        doctorID,
		PatientID:       patientID,
		ScheduledAt:     time.Now().Add(72 * time.Hour),
		DurationMinutes: 30,
		Status:          entity.AppointmentStatusRequested,
		PaymentStatus:   entity.PaymentStatusUnpaid,
		ConsultationFee: decimal.NewFromInt(15000),
		CreatedBy:       entity.CreatedBy{ID: patientID, Role: entity.RolePatient},
		CreatedAt:       time.Now(),
	}
}

func patientSession(patientID uuid.UUID) *entity.Session {
	return &entity.Session{UserID: patientID, Role: entity.RolePatient, Token: "patient-token"}
}

func doctorSession(doctorID uuid.UUID) *entity.Session {
	return &entity.Session{UserID: doctorID, Role: entity.RoleDoctor, Token: "doctor-token"}
}

// --- tests ---

func TestAccept_PatientAcceptsDoctorScheduled(t *testing.T) {
	patientID, doctorID := uuid.New(), uuid.New()
	appt := doctorScheduledAppointment(patientID, doctorID)
	f := newWorkflowFixture(true, appt)

	updated, err := f.workflow.Accept(context.Background(), patientSession(patientID), appt.ID)
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}

	if updated.Status != entity.AppointmentStatusConfirmed {
		t.Errorf("status = %s, want confirmed", updated.Status)
	}
	if f.client.acceptCalls != 1 {
		t.Errorf("accept calls = %d, want 1", f.client.acceptCalls)
	}

	// both parties' cached listings must be dropped
	foundPatient, foundDoctor := false, false
	for _, id := range f.cache.invalidated {
		if id == patientID {
			foundPatient = true
		}
		if id == doctorID {
			foundDoctor = true
		}
	}
	if !foundPatient || !foundDoctor {
		t.Errorf("cache invalidation = %v, want both %s and %s", f.cache.invalidated, patientID, doctorID)
	}

	if entry, ok := f.audit.last(); !ok || entry.outcome != entity.ActionOutcomeApplied {
		t.Errorf("audit entry = %+v, want applied", entry)
	}
}

func TestAccept_TwiceOnConfirmedFailsWithoutRemoteCall(t *testing.T) {
	patientID, doctorID := uuid.New(), uuid.New()
	appt := doctorScheduledAppointment(patientID, doctorID)
	f := newWorkflowFixture(true, appt)
	sess := patientSession(patientID)

	if _, err := f.workflow.Accept(context.Background(), sess, appt.ID); err != nil {
		t.Fatalf("first Accept: %v", err)
	}

	// the upstream service has moved the appointment on
	f.client.appointments[0].Status = entity.AppointmentStatusConfirmed

	_, err := f.workflow.Accept(context.Background(), sess, appt.ID)
	var invalidErr *lifecycle.InvalidTransitionError
	if !errors.As(err, &invalidErr) {
		t.Fatalf("second Accept = %v, want InvalidTransitionError", err)
	}
	if invalidErr.Current != entity.AppointmentStatusConfirmed {
		t.Errorf("Current = %s, want confirmed", invalidErr.Current)
	}
	if f.client.acceptCalls != 1 {
		t.Errorf("accept calls = %d, want 1 (no network on invalid transition)", f.client.acceptCalls)
	}
}

func TestAccept_DoctorSchedulesPatientRequest(t *testing.T) {
	patientID, doctorID := uuid.New(), uuid.New()
	appt := patientRequestedAppointment(patientID, doctorID)
	f := newWorkflowFixture(true, appt)

	updated, err := f.workflow.Accept(context.Background(), doctorSession(doctorID), appt.ID)
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if updated.Status != entity.AppointmentStatusScheduled {
		t.Errorf("status = %s, want scheduled", updated.Status)
	}
}

func TestInvalidTransition_NeverReachesNetwork(t *testing.T) {
	patientID, doctorID := uuid.New(), uuid.New()
	appt := patientRequestedAppointment(patientID, doctorID)
	f := newWorkflowFixture(true, appt)

	// the creator cannot accept their own request
	_, err := f.workflow.Accept(context.Background(), patientSession(patientID), appt.ID)
	var invalidErr *lifecycle.InvalidTransitionError
	if !errors.As(err, &invalidErr) {
		t.Fatalf("expected InvalidTransitionError, got %v", err)
	}

	if f.client.mutatingCalls() != 0 {
		t.Errorf("mutating remote calls = %d, want 0", f.client.mutatingCalls())
	}
	if entry, ok := f.audit.last(); !ok || entry.outcome != entity.ActionOutcomeRejectedLocal {
		t.Errorf("audit entry = %+v, want rejected_local", entry)
	}
}

func TestReject_DoctorRejectsRequestWithReason(t *testing.T) {
	patientID, doctorID := uuid.New(), uuid.New()
	appt := patientRequestedAppointment(patientID, doctorID)
	f := newWorkflowFixture(true, appt)

	updated, err := f.workflow.Reject(context.Background(), doctorSession(doctorID), appt.ID, "unavailable")
	if err != nil {
		t.Fatalf("Reject: %v", err)
	}

	if updated.Status != entity.AppointmentStatusCancelled {
		t.Errorf("status = %s, want cancelled", updated.Status)
	}
	if updated.CancellationReason != "unavailable" {
		t.Errorf("cancellation reason = %q, want unavailable", updated.CancellationReason)
	}
	if f.client.lastRejectReason != "unavailable" {
		t.Errorf("remote reject reason = %q, want unavailable", f.client.lastRejectReason)
	}
	if len(f.logHook.Entries) > 0 {
		for _, e := range f.logHook.Entries {
			if e.Level == logrus.WarnLevel {
				t.Errorf("unexpected warning on rejecting an unpaid appointment: %s", e.Message)
			}
		}
	}
}

func TestReject_ConfirmedAppointmentIsNotRejectable(t *testing.T) {
	patientID, doctorID := uuid.New(), uuid.New()
	appt := doctorScheduledAppointment(patientID, doctorID)
	appt.Status = entity.AppointmentStatusConfirmed
	f := newWorkflowFixture(true, appt)

	_, err := f.workflow.Reject(context.Background(), doctorSession(doctorID), appt.ID, "busy")
	var invalidErr *lifecycle.InvalidTransitionError
	if !errors.As(err, &invalidErr) {
		t.Fatalf("expected InvalidTransitionError, got %v", err)
	}
	if f.client.rejectCalls != 0 {
		t.Errorf("reject calls = %d, want 0", f.client.rejectCalls)
	}
}

func TestConcurrentAccept_SecondCallFailsWithActionInProgress(t *testing.T) {
	patientID, doctorID := uuid.New(), uuid.New()
	appt := doctorScheduledAppointment(patientID, doctorID)
	f := newWorkflowFixture(true, appt)
	sess := patientSession(patientID)

	f.client.acceptStarted = make(chan struct{})
	f.client.acceptRelease = make(chan struct{})

	var wg sync.WaitGroup
	var firstErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, firstErr = f.workflow.Accept(context.Background(), sess, appt.ID)
	}()

	// wait until the first call is inside the remote request, lock held
	<-f.client.acceptStarted

	_, secondErr := f.workflow.Accept(context.Background(), sess, appt.ID)
	if !errors.Is(secondErr, ErrActionInProgress) {
		t.Errorf("second Accept = %v, want ErrActionInProgress", secondErr)
	}

	close(f.client.acceptRelease)
	wg.Wait()

	if firstErr != nil {
		t.Errorf("first Accept = %v, want nil", firstErr)
	}
	if f.client.acceptCalls != 1 {
		t.Errorf("accept calls = %d, want exactly 1", f.client.acceptCalls)
	}
}

func TestRemoteFailure_NoLocalMutationAndLockReleased(t *testing.T) {
	patientID, doctorID := uuid.New(), uuid.New()
	appt := doctorScheduledAppointment(patientID, doctorID)
	f := newWorkflowFixture(true, appt)
	sess := patientSession(patientID)

	remoteErr := &remote.RemoteError{StatusCode: 409, Message: "slot no longer available"}
	f.client.err = remoteErr

	_, err := f.workflow.Accept(context.Background(), sess, appt.ID)
	if err == nil || err.Error() != "slot no longer available" {
		t.Fatalf("Accept = %v, want server message passthrough", err)
	}

	if len(f.cache.invalidated) != 0 {
		t.Errorf("cache invalidated on failure: %v", f.cache.invalidated)
	}
	if entry, ok := f.audit.last(); !ok || entry.outcome != entity.ActionOutcomeRejectedRemote {
		t.Errorf("audit entry = %+v, want rejected_remote", entry)
	}

	// lock must be released: a retry reaches the remote service again
	f.client.err = nil
	if _, err := f.workflow.Accept(context.Background(), sess, appt.ID); err != nil {
		t.Fatalf("retry after failure: %v", err)
	}
	if f.client.acceptCalls != 2 {
		t.Errorf("accept calls = %d, want 2", f.client.acceptCalls)
	}
}

func TestStart_BlockedByPaymentGate(t *testing.T) {
	patientID, doctorID := uuid.New(), uuid.New()
	appt := doctorScheduledAppointment(patientID, doctorID)
	appt.Status = entity.AppointmentStatusConfirmed
	appt.PaymentStatus = entity.PaymentStatusUnpaid
	f := newWorkflowFixture(true, appt)

	_, err := f.workflow.Start(context.Background(), doctorSession(doctorID), appt.ID)
	if !errors.Is(err, ErrConsultationNotCleared) {
		t.Fatalf("Start = %v, want ErrConsultationNotCleared", err)
	}
	if f.client.statusCalls != 0 {
		t.Errorf("status calls = %d, want 0", f.client.statusCalls)
	}
}

func TestStart_PaidConfirmedMovesToInProgress(t *testing.T) {
	patientID, doctorID := uuid.New(), uuid.New()
	appt := doctorScheduledAppointment(patientID, doctorID)
	appt.Status = entity.AppointmentStatusConfirmed
	appt.PaymentStatus = entity.PaymentStatusPaid
	f := newWorkflowFixture(true, appt)

	updated, err := f.workflow.Start(context.Background(), doctorSession(doctorID), appt.ID)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if updated.Status != entity.AppointmentStatusInProgress {
		t.Errorf("status = %s, want in_progress", updated.Status)
	}
	if f.client.lastStatus != entity.AppointmentStatusInProgress {
		t.Errorf("remote status = %s, want in_progress", f.client.lastStatus)
	}
}

func TestCancel_PaidAppointmentLogsRefundHandOff(t *testing.T) {
	patientID, doctorID := uuid.New(), uuid.New()
	appt := doctorScheduledAppointment(patientID, doctorID)
	appt.Status = entity.AppointmentStatusConfirmed
	appt.PaymentStatus = entity.PaymentStatusPaid
	f := newWorkflowFixture(true, appt)

	updated, err := f.workflow.Cancel(context.Background(), patientSession(patientID), appt.ID, "cannot make it")
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if updated.Status != entity.AppointmentStatusCancelled {
		t.Errorf("status = %s, want cancelled", updated.Status)
	}
	if f.client.lastCancelReason != "cannot make it" {
		t.Errorf("cancel reason = %q", f.client.lastCancelReason)
	}

	refundLogged := false
	for _, e := range f.logHook.Entries {
		if e.Level == logrus.WarnLevel {
			refundLogged = true
		}
	}
	if !refundLogged {
		t.Error("expected refund hand-off warning for a paid cancellation")
	}
}

func TestWorkflow_TerminalStatusesAcceptNothing(t *testing.T) {
	patientID, doctorID := uuid.New(), uuid.New()

	for _, status := range []entity.AppointmentStatus{
		entity.AppointmentStatusCompleted,
		entity.AppointmentStatusCancelled,
		entity.AppointmentStatusNoShow,
	} {
		appt := doctorScheduledAppointment(patientID, doctorID)
		appt.Status = status
		f := newWorkflowFixture(true, appt)
		sess := doctorSession(doctorID)

		ops := map[string]func() error{
			"accept":   func() error { _, err := f.workflow.Accept(context.Background(), sess, appt.ID); return err },
			"cancel":   func() error { _, err := f.workflow.Cancel(context.Background(), sess, appt.ID, "x"); return err },
			"complete": func() error { _, err := f.workflow.Complete(context.Background(), sess, appt.ID); return err },
			"no_show":  func() error { _, err := f.workflow.MarkNoShow(context.Background(), sess, appt.ID); return err },
		}
		for name, op := range ops {
			err := op()
			var invalidErr *lifecycle.InvalidTransitionError
			if !errors.As(err, &invalidErr) {
				t.Errorf("%s on %s = %v, want InvalidTransitionError", name, status, err)
			}
		}
		if f.client.mutatingCalls() != 0 {
			t.Errorf("mutating calls from terminal %s = %d, want 0", status, f.client.mutatingCalls())
		}
	}
}

func TestResolve_UnknownAppointmentFails(t *testing.T) {
	f := newWorkflowFixture(true)
	_, err := f.workflow.Accept(context.Background(), patientSession(uuid.New()), uuid.New())
	if !errors.Is(err, ErrAppointmentNotFound) {
		t.Errorf("Accept = %v, want ErrAppointmentNotFound", err)
	}
	if f.client.listCalls != 1 {
		t.Errorf("list calls = %d, want 1 (cache miss forces refetch)", f.client.listCalls)
	}
}
