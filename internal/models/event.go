package models

import "time"

// Event priorities.
const (
	PriorityHigh   = "HIGH"
	PriorityMedium = "MEDIUM"
	PriorityLow    = "LOW"
)

type Event struct {
	BaseModel

	Title          string     `gorm:"not null" json:"title"`
	Description    string     `json:"description"`
	Location       string     `gorm:"size:255" json:"location"`
	StartTime      time.Time  `gorm:"not null;index" json:"start_time"`
	EndTime        time.Time  `gorm:"not null" json:"end_time"`
	IsAllDay       bool       `gorm:"default:false" json:"is_all_day"`
	RecurrenceType string     `gorm:"size:20" json:"recurrence_type"` // "daily", "weekly", "monthly", "yearly"
	RecurrenceEnd  *time.Time `json:"recurrence_end"`
	OwnerID        uint       `gorm:"not null;index" json:"owner_id"`
	Priority       string     `gorm:"size:10;default:MEDIUM" json:"priority"`
	Color          string     `gorm:"size:20" json:"color"`
	IsShared       bool       `gorm:"default:false" json:"is_shared"`

	// Relationships
	Owner      User       `gorm:"foreignKey:OwnerID;constraint:OnUpdate:Cascade,OnDelete:CASCADE" json:"-"`
	SharedWith []User     `gorm:"many2many:event_shared_users;" json:"shared_with"`
	Reminders  []Reminder `gorm:"foreignKey:EventID;constraint:OnUpdate:Cascade,OnDelete:CASCADE" json:"-"`

	// Computed on read, never persisted. The service layer fills these in
	// before an event is handed back to a caller.
	Permissions     map[uint]string `gorm:"-" json:"user_permissions"`
	ReminderMinutes []int           `gorm:"-" json:"reminder_minutes"`
}

// ShareWith adds a user to the shared set and flips IsShared. Adding a user
// that is already present changes nothing.
func (e *Event) ShareWith(user User) {
	e.IsShared = true
	for _, u := range e.SharedWith {
		if u.ID == user.ID {
			return
		}
	}
	e.SharedWith = append(e.SharedWith, user)
}

// RemoveShared drops a user from the shared set. Removing the last one
// clears IsShared.
func (e *Event) RemoveShared(userID uint) {
	kept := e.SharedWith[:0]
	for _, u := range e.SharedWith {
		if u.ID != userID {
			kept = append(kept, u)
		}
	}
	e.SharedWith = kept
	if len(e.SharedWith) == 0 {
		e.IsShared = false
	}
}
