package postgres

import (
	"time"
)

/*
 * 'CompanyUser' links a dashboard user to a company with a per-company role.
 * Composite primary key, same shape as the game invitation join table.
 */
type CompanyUser struct {
	CompanyID uint      `gorm:"primaryKey;not null"`
	UserEmail string    `gorm:"primaryKey;size:100;not null;index"`
	RoleName  string    `gorm:"size:50"`
	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP"`

	// Relationships
	Company Company `gorm:"foreignKey:CompanyID"`
	User    User    `gorm:"foreignKey:UserEmail"`
	Role    *Role   `gorm:"foreignKey:RoleName"`
}
