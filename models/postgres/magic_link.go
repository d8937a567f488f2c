package postgres

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

/*
 * 'MagicLink' is a one-time login token delivered out-of-band. A link is
 * redeemable exactly once and only before ExpiresAt.
 */
type MagicLink struct {
	Token     string    `gorm:"primaryKey;size:36;not null"`
	Email     string    `gorm:"size:100;not null;index:idx_magic_links_email"`
	ExpiresAt time.Time `gorm:"not null"`
	Consumed  bool      `gorm:"default:false"`
	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP"`
}

func (m *MagicLink) BeforeCreate(tx *gorm.DB) error {
	if m.Token == "" {
		m.Token = uuid.NewString()
	}
	return nil
}

// Redeemable reports whether the link can still be consumed.
func (m *MagicLink) Redeemable(now time.Time) bool {
	return !m.Consumed && now.Before(m.ExpiresAt)
}
