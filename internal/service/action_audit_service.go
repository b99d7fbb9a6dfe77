package service

import (
	"context"

	"go-appointment-portal/internal/domain/entity"
	"go-appointment-portal/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ActionAuditService records every lifecycle action attempted through the
// workflow, whether it was applied, blocked locally, or rejected upstream.
// Audit failures are logged but never fail the action itself.
type ActionAuditService interface {
	Record(ctx context.Context, sess *entity.Session, appointmentID uuid.UUID, action string, from, to entity.AppointmentStatus, outcome string, detail string)
	History(ctx context.Context, appointmentID uuid.UUID) ([]entity.ActionLog, error)
}

type actionAuditService struct {
	db   *gorm.DB
	log  *logrus.Logger
	repo repository.ActionLogRepository
}

func NewActionAuditService(db *gorm.DB, log *logrus.Logger, repo repository.ActionLogRepository) ActionAuditService {
	return &actionAuditService{
		db:   db,
		log:  log,
		repo: repo,
	}
}

func (s *actionAuditService) Record(ctx context.Context, sess *entity.Session, appointmentID uuid.UUID, action string, from, to entity.AppointmentStatus, outcome string, detail string) {
	entry := &entity.ActionLog{
		ActorID:       sess.UserID,
		ActorRole:     string(sess.Role),
		AppointmentID: appointmentID,
		Action:        action,
		FromStatus:    string(from),
		ToStatus:      string(to),
		Outcome:       outcome,
	}
	if detail != "" {
		entry.Metadata = entity.JSON{"detail": detail}
	}

	if err := s.repo.Create(s.db.WithContext(ctx), entry); err != nil {
		s.log.Warnf("Failed to record action log for appointment %s: %+v", appointmentID, err)
	}
}

// History returns the recorded actions for one appointment, oldest first.
func (s *actionAuditService) History(ctx context.Context, appointmentID uuid.UUID) ([]entity.ActionLog, error) {
	return s.repo.FindByAppointmentID(s.db.WithContext(ctx), appointmentID)
}
