package postgres

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

/*
 * 'Message' is an in-game mail item between users. Marking a message read is
 * a best-effort side effect: callers ignore failures.
 */
type Message struct {
	ID                string    `gorm:"primaryKey;size:36;not null"`
	SenderUsername    string    `gorm:"size:50;not null;index"`
	RecipientUsername string    `gorm:"size:50;not null;index:idx_messages_recipient"`
	Subject           string    `gorm:"size:200"`
	Body              string    `gorm:"type:text"`
	Read              bool      `gorm:"default:false"`
	CreatedAt         time.Time `gorm:"default:CURRENT_TIMESTAMP"`
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}
