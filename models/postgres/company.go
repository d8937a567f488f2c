package postgres

import (
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

/*
 * 'Company' is the in-game entity a user operates. Cash and offshore are the
 * two balances every game mutation settles against; LocationID is nil while
 * the company is not placed on any map.
 */
type Company struct {
	ID          uint           `gorm:"primaryKey"`
	Name        string         `gorm:"size:100;not null;uniqueIndex"`
	Cash        int64          `gorm:"not null;default:0"`
	Offshore    int64          `gorm:"not null;default:0"`
	LocationID  *uint          `gorm:"index:idx_companies_location"`
	PrisonUntil time.Time      // zero value means the company is free
	NetWorth    int64          `gorm:"not null;default:0"`
	Stats       datatypes.JSON `gorm:"type:jsonb;default:'{}'"`
	CreatedAt   time.Time      `gorm:"default:CURRENT_TIMESTAMP"`

	// Relationships
	CompanyUsers []CompanyUser `gorm:"foreignKey:CompanyID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Buildings    []Building    `gorm:"foreignKey:CompanyID;constraint:OnDelete:CASCADE"`
}

// InPrison reports whether the company is currently locked out of attacks.
func (c *Company) InPrison(now time.Time) bool {
	return c.PrisonUntil.After(now)
}

// GORM hook: balances must never go negative through any code path.
func (c *Company) BeforeSave(tx *gorm.DB) error {
	if c.Cash < 0 || c.Offshore < 0 {
		return errors.New("company balance cannot be negative")
	}
	return nil
}
