package remote

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go-appointment-portal/config"
	"go-appointment-portal/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

func testClient(baseURL string) Client {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return NewHTTPClient(config.UpstreamConfig{BaseURL: baseURL, Timeout: 2 * time.Second}, log)
}

func TestAccept_SendsBearerTokenToAcceptPath(t *testing.T) {
	id := uuid.New()
	var gotPath, gotAuth, gotMethod string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotMethod = r.Method
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success": true}`))
	}))
	defer srv.Close()

	client := testClient(srv.URL)
	if err := client.Accept(context.Background(), "token-123", id); err != nil {
		t.Fatalf("Accept: %v", err)
	}

	if want := "/appointments/" + id.String() + "/accept"; gotPath != want {
		t.Errorf("path = %s, want %s", gotPath, want)
	}
	if gotAuth != "Bearer token-123" {
		t.Errorf("Authorization = %q, want bearer token", gotAuth)
	}
	if gotMethod != http.MethodPost {
		t.Errorf("method = %s, want POST", gotMethod)
	}
}

func TestReject_ServerMessagePassesThroughVerbatim(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"success": false, "message": "appointment already cancelled"}`))
	}))
	defer srv.Close()

	client := testClient(srv.URL)
	err := client.Reject(context.Background(), "t", uuid.New(), "unavailable")
	if err == nil {
		t.Fatal("expected error for non-success response")
	}

	var remoteErr *RemoteError
	if !errors.As(err, &remoteErr) {
		t.Fatalf("expected *RemoteError, got %T", err)
	}
	if remoteErr.Message != "appointment already cancelled" {
		t.Errorf("message = %q, want server message verbatim", remoteErr.Message)
	}
	if remoteErr.StatusCode != http.StatusConflict {
		t.Errorf("status = %d, want 409", remoteErr.StatusCode)
	}
}

func TestSuccessFalseWithoutHTTPErrorIsStillRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success": false, "message": "not yours to accept"}`))
	}))
	defer srv.Close()

	client := testClient(srv.URL)
	err := client.Accept(context.Background(), "t", uuid.New())

	var remoteErr *RemoteError
	if !errors.As(err, &remoteErr) {
		t.Fatalf("expected *RemoteError, got %v", err)
	}
	if remoteErr.Message != "not yours to accept" {
		t.Errorf("message = %q", remoteErr.Message)
	}
}

func TestTransportFailureIsNetworkUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	client := testClient(srv.URL)
	err := client.Cancel(context.Background(), "t", uuid.New(), "changed my mind")
	if !errors.Is(err, ErrNetworkUnavailable) {
		t.Errorf("expected ErrNetworkUnavailable, got %v", err)
	}
}

func TestCancel_SendsCancellationReason(t *testing.T) {
	var gotBody string
	var gotMethod string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf, _ := io.ReadAll(r.Body)
		gotBody = string(buf)
		gotMethod = r.Method
		w.Write([]byte(`{"success": true}`))
	}))
	defer srv.Close()

	client := testClient(srv.URL)
	if err := client.Cancel(context.Background(), "t", uuid.New(), "family emergency"); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	if gotMethod != http.MethodPatch {
		t.Errorf("method = %s, want PATCH", gotMethod)
	}
	if want := `{"cancellation_reason":"family emergency"}`; gotBody != want {
		t.Errorf("body = %s, want %s", gotBody, want)
	}
}

func TestListAppointments_FilterAndDecoding(t *testing.T) {
	doctorID := uuid.New()
	apptID := uuid.New()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("doctor_id") != doctorID.String() {
			t.Errorf("doctor_id = %q", q.Get("doctor_id"))
		}
		if q.Get("upcoming") != "true" {
			t.Errorf("upcoming = %q", q.Get("upcoming"))
		}
		if q.Get("today") != "" {
			t.Errorf("today should be unset, got %q", q.Get("today"))
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"success": true,
			"data": {
				"appointments": [{
					"id": "` + apptID.String() + `",
					"doctor_id": "` + doctorID.String() + `",
					"status": "scheduled",
					"payment_status": "unpaid",
					"consultation_fee": "15000",
					"created_by": {"id": "` + doctorID.String() + `", "role": "doctor"}
				}]
			}
		}`))
	}))
	defer srv.Close()

	client := testClient(srv.URL)
	appts, err := client.ListAppointments(context.Background(), "t", ListFilter{
		DoctorID: &doctorID,
		Upcoming: true,
	})
	if err != nil {
		t.Fatalf("ListAppointments: %v", err)
	}

	if len(appts) != 1 {
		t.Fatalf("got %d appointments, want 1", len(appts))
	}
	a := appts[0]
	if a.ID != apptID {
		t.Errorf("id = %s, want %s", a.ID, apptID)
	}
	if a.Status != entity.AppointmentStatusScheduled {
		t.Errorf("status = %s, want scheduled", a.Status)
	}
	if a.CreatedBy.Role != entity.RoleDoctor {
		t.Errorf("created_by.role = %s, want doctor", a.CreatedBy.Role)
	}
	if a.ConsultationFee.String() != "15000" {
		t.Errorf("fee = %s, want 15000", a.ConsultationFee)
	}
}

func TestRegisterDoctor_PostsConsultationHours(t *testing.T) {
	var gotPath string
	received := make(map[string]interface{})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := jsonDecode(r, &received); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Write([]byte(`{"success": true}`))
	}))
	defer srv.Close()

	client := testClient(srv.URL)
	err := client.RegisterDoctor(context.Background(), &RegisterDoctorRequest{
		FullName:        "Dr. Example",
		Email:           "dr@example.com",
		Specialization:  "cardiology",
		ConsultationFee: "15000",
		ConsultationHours: map[string]ConsultationDay{
			"2026-06-02": {Available: true, Slots: []ConsultationSlot{{Time: "09:00", Status: "pending"}}},
		},
	})
	if err != nil {
		t.Fatalf("RegisterDoctor: %v", err)
	}

	if gotPath != "/doctors/register" {
		t.Errorf("path = %s, want /doctors/register", gotPath)
	}
	hours, ok := received["consultation_hours"].(map[string]interface{})
	if !ok {
		t.Fatalf("consultation_hours missing from payload: %v", received)
	}
	if _, ok := hours["2026-06-02"]; !ok {
		t.Error("consultation_hours missing the submitted date")
	}
}

func jsonDecode(r *http.Request, out interface{}) error {
	return json.NewDecoder(r.Body).Decode(out)
}
