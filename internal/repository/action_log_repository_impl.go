package repository

import (
	"go-appointment-portal/internal/domain/entity"
	domainRepo "go-appointment-portal/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type actionLogRepository struct{}

func NewActionLogRepository() domainRepo.ActionLogRepository {
	return &actionLogRepository{}
}

func (r *actionLogRepository) Create(db *gorm.DB, log *entity.ActionLog) error {
	return db.Create(log).Error
}

func (r *actionLogRepository) FindByAppointmentID(db *gorm.DB, appointmentID uuid.UUID) ([]entity.ActionLog, error) {
	var logs []entity.ActionLog
	err := db.Where("appointment_id = ?", appointmentID).
		Order("created_at ASC").
		Find(&logs).Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}

func (r *actionLogRepository) FindByActorID(db *gorm.DB, actorID uuid.UUID, limit int) ([]entity.ActionLog, error) {
	var logs []entity.ActionLog
	query := db.Where("actor_id = ?", actorID).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}
