package entity

import "github.com/google/uuid"

// Session identifies the authenticated actor for a single request. It is
// built once by the auth middleware from the bearer token and passed
// explicitly into usecases; nothing below the delivery layer reads ambient
// token state.
type Session struct {
	UserID uuid.UUID
	Role   Role
	Token  string
}

// IsPatient checks if the session belongs to a patient
func (s *Session) IsPatient() bool {
	return s.Role == RolePatient
}

// IsDoctor checks if the session belongs to a doctor
func (s *Session) IsDoctor() bool {
	return s.Role == RoleDoctor
}

// IsAdmin checks if the session belongs to an admin
func (s *Session) IsAdmin() bool {
	return s.Role == RoleAdmin
}
