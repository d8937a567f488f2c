package postgres

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

/*
 * 'AuditLog' records every mutation performed through the dashboard or the
 * game endpoints. Entries are append-only; the list endpoint filters on
 * actor and action.
 */
type AuditLog struct {
	ID         string         `gorm:"primaryKey;size:36;not null"`
	ActorEmail string         `gorm:"size:100;index:idx_audit_logs_actor"`
	Action     string         `gorm:"size:50;not null;index:idx_audit_logs_action"`
	Target     string         `gorm:"size:100"`
	Details    datatypes.JSON `gorm:"type:jsonb;default:'{}'"`
	CreatedAt  time.Time      `gorm:"default:CURRENT_TIMESTAMP;index"`
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
