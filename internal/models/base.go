package models

import "time"

// BaseModel is gorm.Model without soft deletion. Events and reminders are
// removed for real, so their join rows and reminder rows go with them.
type BaseModel struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
