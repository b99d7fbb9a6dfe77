package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ActionLog is a local audit record of every lifecycle action attempted
// through the workflow controller, including ones that never reached the
// upstream service.
type ActionLog struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ActorID       uuid.UUID `gorm:"type:uuid;not null;index" json:"actor_id"`
	ActorRole     string    `gorm:"type:varchar(20);not null" json:"actor_role"`
	AppointmentID uuid.UUID `gorm:"type:uuid;not null;index" json:"appointment_id"`
	Action        string    `gorm:"type:varchar(50);not null;index" json:"action"`
	FromStatus    string    `gorm:"type:varchar(20);not null" json:"from_status"`
	ToStatus      string    `gorm:"type:varchar(20)" json:"to_status,omitempty"`
	Outcome       string    `gorm:"type:varchar(30);not null;index" json:"outcome"`
	Metadata      JSON      `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt     time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (ActionLog) TableName() string {
	return "action_logs"
}

// JSON type for GORM JSONB support
type JSON map[string]interface{}

// Value returns json value, implement driver.Valuer interface
func (j JSON) Value() (driver.Value, error) {
	if len(j) == 0 {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan scan value into Jsonb, implements sql.Scanner interface
func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New(fmt.Sprint("Failed to unmarshal JSONB value:", value))
	}

	result := map[string]interface{}{}
	err := json.Unmarshal(bytes, &result)
	*j = JSON(result)
	return err
}

// Action outcome constants
const (
	ActionOutcomeApplied        = "applied"
	ActionOutcomeRejectedLocal  = "rejected_local"
	ActionOutcomeRejectedRemote = "rejected_remote"
)

// Common workflow actions
const (
	ActionAppointmentAccept   = "appointment.accept"
	ActionAppointmentConfirm  = "appointment.confirm"
	ActionAppointmentReject   = "appointment.reject"
	ActionAppointmentCancel   = "appointment.cancel"
	ActionAppointmentStart    = "appointment.start"
	ActionAppointmentComplete = "appointment.complete"
	ActionAppointmentNoShow   = "appointment.no_show"
)
