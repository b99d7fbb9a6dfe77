package http

import (
	"net/http"

	"go-appointment-portal/internal/delivery/http/handler"
	"go-appointment-portal/internal/delivery/http/middleware"

	"github.com/gorilla/mux"
)

type Router struct {
	router              *mux.Router
	appointmentHandler  *handler.AppointmentHandler
	registrationHandler *handler.RegistrationHandler
	authMiddleware      *middleware.AuthMiddleware
	corsMiddleware      *middleware.CORSMiddleware
}

func NewRouter(
	appointmentHandler *handler.AppointmentHandler,
	registrationHandler *handler.RegistrationHandler,
	authMiddleware *middleware.AuthMiddleware,
	corsMiddleware *middleware.CORSMiddleware,
) *Router {
	return &Router{
		router:              mux.NewRouter(),
		appointmentHandler:  appointmentHandler,
		registrationHandler: registrationHandler,
		authMiddleware:      authMiddleware,
		corsMiddleware:      corsMiddleware,
	}
}

func (r *Router) Setup() *mux.Router {
	// API versioning
	api := r.router.PathPrefix("/api/v1").Subrouter()

	// Health check
	api.HandleFunc("/health", r.healthCheck).Methods(http.MethodGet)

	// Registration routes (public)
	api.HandleFunc("/doctors/register", r.registrationHandler.RegisterDoctor).Methods(http.MethodPost)
	api.HandleFunc("/registration/availability-window", r.registrationHandler.AvailabilityWindow).Methods(http.MethodGet)

	// Appointment routes (protected); role checks beyond authentication are
	// left to the lifecycle rules except where an action belongs to one side
	// of the desk outright.
	appointments := api.PathPrefix("/appointments").Subrouter()
	appointments.Use(r.authMiddleware.Authenticate)
	appointments.HandleFunc("", r.appointmentHandler.List).Methods(http.MethodGet)
	appointments.HandleFunc("/{id}/accept", r.appointmentHandler.Accept).Methods(http.MethodPost)
	appointments.HandleFunc("/{id}/confirm", r.appointmentHandler.Confirm).Methods(http.MethodPost)
	appointments.HandleFunc("/{id}/reject", r.appointmentHandler.Reject).Methods(http.MethodPost)
	appointments.HandleFunc("/{id}/cancel", r.appointmentHandler.Cancel).Methods(http.MethodPatch)

	// Audit trail (provider side)
	audit := api.PathPrefix("/appointments").Subrouter()
	audit.Use(r.authMiddleware.Authenticate)
	audit.Use(middleware.RequireAdminOrDoctor)
	audit.HandleFunc("/{id}/history", r.appointmentHandler.History).Methods(http.MethodGet)

	// Consultation progression (doctor only)
	consultation := api.PathPrefix("/appointments").Subrouter()
	consultation.Use(r.authMiddleware.Authenticate)
	consultation.Use(middleware.RequireDoctor)
	consultation.HandleFunc("/{id}/start", r.appointmentHandler.Start).Methods(http.MethodPatch)
	consultation.HandleFunc("/{id}/complete", r.appointmentHandler.Complete).Methods(http.MethodPatch)
	consultation.HandleFunc("/{id}/no-show", r.appointmentHandler.NoShow).Methods(http.MethodPatch)

	// Add CORS middleware
	r.router.Use(r.corsMiddleware.Handle)

	return r.router
}

func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status": "ok"}`))
}
