// Package remote is the HTTP client for the upstream appointment service,
// the external owner of all authoritative appointment state. Local errors
// never originate here; everything this package returns is either a server
// rejection carried verbatim or a transport failure.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"go-appointment-portal/config"
	"go-appointment-portal/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ErrNetworkUnavailable marks a transport-level failure: the request may or
// may not have reached the service, and no local state may be touched.
var ErrNetworkUnavailable = errors.New("appointment service unreachable")

// RemoteError carries a non-success response from the appointment service.
// The server message is surfaced to the caller verbatim.
type RemoteError struct {
	StatusCode int
	Message    string
}

func (e *RemoteError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("appointment service rejected the request (status %d)", e.StatusCode)
}

// ListFilter narrows the appointment listing
type ListFilter struct {
	DoctorID *uuid.UUID
	Today    bool
	Upcoming bool
	Page     int
	Limit    int
}

// ConsultationSlot is one wire-format slot inside the registration payload
type ConsultationSlot struct {
	Time   string `json:"time"`
	Status string `json:"status"`
}

// ConsultationDay is one wire-format day of consultation hours
type ConsultationDay struct {
	Available bool               `json:"available"`
	Slots     []ConsultationSlot `json:"slots"`
}

// RegisterDoctorRequest is the one-time registration submission, including
// the validated consultation-hours snapshot keyed by ISO date.
type RegisterDoctorRequest struct {
	FullName          string                     `json:"full_name"`
	Email             string                     `json:"email"`
	Specialization    string                     `json:"specialization"`
	ConsultationFee   string                     `json:"consultation_fee"`
	ConsultationHours map[string]ConsultationDay `json:"consultation_hours"`
}

// Client is the contract the workflow depends on. Transport specifics stay
// behind it so usecases can be exercised without a network.
type Client interface {
	Accept(ctx context.Context, token string, id uuid.UUID) error
	Reject(ctx context.Context, token string, id uuid.UUID, reason string) error
	Cancel(ctx context.Context, token string, id uuid.UUID, reason string) error
	UpdateStatus(ctx context.Context, token string, id uuid.UUID, status entity.AppointmentStatus) error
	ListAppointments(ctx context.Context, token string, filter ListFilter) ([]entity.Appointment, error)
	RegisterDoctor(ctx context.Context, req *RegisterDoctorRequest) error
}

type httpClient struct {
	baseURL    string
	httpClient *http.Client
	log        *logrus.Logger
}

// NewHTTPClient creates the production client. The configured timeout is the
// only bound on how long an in-flight action holds its lock; there is no
// client-side cancellation once a request is issued.
func NewHTTPClient(cfg config.UpstreamConfig, log *logrus.Logger) Client {
	return &httpClient{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        log,
	}
}

// serviceResponse is the upstream envelope
type serviceResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (c *httpClient) Accept(ctx context.Context, token string, id uuid.UUID) error {
	_, err := c.do(ctx, http.MethodPost, fmt.Sprintf("/appointments/%s/accept", id), token, nil)
	return err
}

func (c *httpClient) Reject(ctx context.Context, token string, id uuid.UUID, reason string) error {
	body := map[string]string{"reason": reason}
	_, err := c.do(ctx, http.MethodPost, fmt.Sprintf("/appointments/%s/reject", id), token, body)
	return err
}

func (c *httpClient) Cancel(ctx context.Context, token string, id uuid.UUID, reason string) error {
	body := map[string]string{"cancellation_reason": reason}
	_, err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/appointments/%s/cancel", id), token, body)
	return err
}

func (c *httpClient) UpdateStatus(ctx context.Context, token string, id uuid.UUID, status entity.AppointmentStatus) error {
	body := map[string]string{"status": string(status)}
	_, err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/appointments/%s/status", id), token, body)
	return err
}

func (c *httpClient) ListAppointments(ctx context.Context, token string, filter ListFilter) ([]entity.Appointment, error) {
	query := url.Values{}
	if filter.DoctorID != nil {
		query.Set("doctor_id", filter.DoctorID.String())
	}
	if filter.Today {
		query.Set("today", "true")
	}
	if filter.Upcoming {
		query.Set("upcoming", "true")
	}
	if filter.Page > 0 {
		query.Set("page", strconv.Itoa(filter.Page))
	}
	if filter.Limit > 0 {
		query.Set("limit", strconv.Itoa(filter.Limit))
	}

	path := "/appointments"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	data, err := c.do(ctx, http.MethodGet, path, token, nil)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Appointments []entity.Appointment `json:"appointments"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("decode appointment list: %w", err)
	}
	return payload.Appointments, nil
}

func (c *httpClient) RegisterDoctor(ctx context.Context, req *RegisterDoctorRequest) error {
	_, err := c.do(ctx, http.MethodPost, "/doctors/register", "", req)
	return err
}

// do issues one request and decodes the upstream envelope. A transport
// failure wraps ErrNetworkUnavailable; a non-success envelope becomes a
// RemoteError with the server message passed through untouched.
func (c *httpClient) do(ctx context.Context, method, path, token string, body interface{}) (json.RawMessage, error) {
	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warnf("Appointment service call failed: %s %s: %+v", method, path, err)
		return nil, fmt.Errorf("%w: %v", ErrNetworkUnavailable, err)
	}
	defer resp.Body.Close()

	var envelope serviceResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		c.log.Warnf("Appointment service returned malformed body: %s %s: %+v", method, path, err)
		return nil, fmt.Errorf("%w: malformed response", ErrNetworkUnavailable)
	}

	if resp.StatusCode >= 400 || !envelope.Success {
		return nil, &RemoteError{StatusCode: resp.StatusCode, Message: envelope.Message}
	}

	return envelope.Data, nil
}
