package postgres

import (
	"time"
)

/*
 * 'User' contains the blueprint definition of a dashboard user. It references
 * Role and, through CompanyUser, the companies the user can operate.
 */
type User struct {
	Email            string    `gorm:"primaryKey;size:100;not null"`
	Username         string    `gorm:"size:50;not null;uniqueIndex"`
	PasswordHash     string    `gorm:"size:255;not null"`
	FullName         string    `gorm:"size:100"`
	RoleName         string    `gorm:"size:50;index:idx_users_role"`
	TwoFactorEnabled bool      `gorm:"default:false"`
	MemberSince      time.Time `gorm:"default:CURRENT_TIMESTAMP"`

	// Relationships
	Role         *Role         `gorm:"foreignKey:RoleName"`
	CompanyUsers []CompanyUser `gorm:"foreignKey:UserEmail;constraint:OnDelete:CASCADE"`
}
