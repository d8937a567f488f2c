package postgres

import (
	"gorm.io/datatypes"
)

/*
 * 'Role' defines a named permission set. Referenced by User and CompanyUser.
 */
type Role struct {
	Name        string         `gorm:"primaryKey;size:50;not null"`
	Description string         `gorm:"size:255"`
	Permissions datatypes.JSON `gorm:"type:jsonb;default:'[]'"`

	Users []User `gorm:"foreignKey:RoleName"`
}
