package repository

import (
	"go-appointment-portal/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ActionLogRepository interface {
	Create(db *gorm.DB, log *entity.ActionLog) error
	FindByAppointmentID(db *gorm.DB, appointmentID uuid.UUID) ([]entity.ActionLog, error)
	FindByActorID(db *gorm.DB, actorID uuid.UUID, limit int) ([]entity.ActionLog, error)
}
