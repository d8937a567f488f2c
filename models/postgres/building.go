package postgres

import (
	"time"
)

/*
 * 'Building' is a structure placed by a company on a map plot. The
 * (location, plot) pair is unique: placement on an occupied plot is a
 * validation error, enforced at the controller on top of this index.
 */
type Building struct {
	ID         uint      `gorm:"primaryKey"`
	CompanyID  uint      `gorm:"not null;index:idx_buildings_company"`
	LocationID uint      `gorm:"not null;uniqueIndex:idx_buildings_plot"`
	PlotIndex  int       `gorm:"not null;uniqueIndex:idx_buildings_plot"`
	Type       string    `gorm:"size:50;not null"`
	Level      int       `gorm:"default:1"`
	Condition  int       `gorm:"default:100"` // 0-100, attacks lower it
	BuiltAt    time.Time `gorm:"default:CURRENT_TIMESTAMP"`

	Company Company `gorm:"foreignKey:CompanyID"`
}
