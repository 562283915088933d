package models

import (
	"fmt"
	"time"
)

const ReminderTypeEventStart = "EVENT_START"

type Reminder struct {
	BaseModel

	EventID            uint       `gorm:"not null;index" json:"event_id"`
	UserID             uint       `gorm:"not null;index" json:"user_id"`
	ReminderTime       time.Time  `gorm:"not null;index" json:"reminder_time"`
	MinutesBeforeEvent int        `gorm:"not null" json:"minutes_before_event"`
	IsSent             bool       `gorm:"not null;default:false" json:"is_sent"`
	SentAt             *time.Time `json:"sent_at"`
	ReminderType       string     `gorm:"size:30;default:EVENT_START" json:"reminder_type"`
	Message            string     `gorm:"size:500" json:"message"`

	// Relationships
	Event Event `gorm:"foreignKey:EventID;constraint:OnUpdate:Cascade,OnDelete:CASCADE" json:"-"`
	User  User  `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE" json:"-"`
}

// NewReminder derives the trigger time and message from the event. The
// trigger time has no independent source of truth; it is always the event
// start minus the offset.
func NewReminder(event *Event, userID uint, minutesBefore int) *Reminder {
	r := &Reminder{
		EventID:            event.ID,
		UserID:             userID,
		MinutesBeforeEvent: minutesBefore,
		ReminderType:       ReminderTypeEventStart,
		Message:            fmt.Sprintf("Event %q starts in %d minutes", event.Title, minutesBefore),
	}
	r.Reschedule(event.StartTime)
	return r
}

// Reschedule recomputes the trigger time from an event start time. Every
// mutation of the start time or the offset has to go through here.
func (r *Reminder) Reschedule(startTime time.Time) {
	r.ReminderTime = startTime.Add(-time.Duration(r.MinutesBeforeEvent) * time.Minute)
}

// SetMinutesBefore changes the offset and rederives the trigger time.
func (r *Reminder) SetMinutesBefore(minutes int, startTime time.Time) {
	r.MinutesBeforeEvent = minutes
	r.Reschedule(startTime)
}

// MarkSent flips the sent flag. The sent timestamp is stamped exactly once;
// marking an already sent reminder keeps the original timestamp.
func (r *Reminder) MarkSent(now time.Time) {
	r.IsSent = true
	if r.SentAt == nil {
		r.SentAt = &now
	}
}
