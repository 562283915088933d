package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/michval1/calendar-backend/internal/models"
	"gorm.io/gorm"
)

// ReminderService turns "minutes before start" offsets into concrete
// trigger records and answers the due/sent queries over them. Trigger times
// are stored absolute so the pending query is an indexed range scan; the
// price is that every mutation of an event start time has to rederive them.
type ReminderService struct {
	db *gorm.DB
}

func NewReminderService(conn *gorm.DB) *ReminderService {
	return &ReminderService{db: conn}
}

// Replace swaps the full reminder set of one user for one event. An empty
// offset list is a no-op, not a clear. An unresolvable user is skipped
// silently. The previous set is deleted and the new one inserted inside one
// transaction, so callers never observe a half-replaced set.
func (s *ReminderService) Replace(event *models.Event, userID uint, minutes []int) error {
	return s.replace(s.db, event, userID, minutes)
}

func (s *ReminderService) replace(tx *gorm.DB, event *models.Event, userID uint, minutes []int) error {
	if len(minutes) == 0 {
		return nil
	}

	var user models.User
	if err := tx.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	return tx.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("event_id = ? AND user_id = ?", event.ID, userID).
			Delete(&models.Reminder{}).Error; err != nil {
			return err
		}
		for _, minutesBefore := range minutes {
			if err := tx.Create(models.NewReminder(event, userID, minutesBefore)).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// OffsetsFor is the inverse read of Replace, in insertion order.
func (s *ReminderService) OffsetsFor(eventID, userID uint) ([]int, error) {
	var minutes []int
	err := s.db.Model(&models.Reminder{}).
		Where("event_id = ? AND user_id = ?", eventID, userID).
		Order("id ASC").
		Pluck("minutes_before_event", &minutes).Error
	return minutes, err
}

// PendingFor returns the unsent reminders of a user that are due at the
// given instant, soonest first. A reminder whose trigger time equals now is
// due.
func (s *ReminderService) PendingFor(userID uint, now time.Time) ([]models.Reminder, error) {
	var reminders []models.Reminder
	err := s.db.
		Where("user_id = ? AND is_sent = ? AND reminder_time <= ?", userID, false, now).
		Order("reminder_time ASC").
		Find(&reminders).Error
	return reminders, err
}

// Upcoming returns the unsent reminders of a user inside a look-ahead
// window, soonest first.
func (s *ReminderService) Upcoming(userID uint, now, until time.Time) ([]models.Reminder, error) {
	var reminders []models.Reminder
	err := s.db.
		Where("user_id = ? AND is_sent = ? AND reminder_time > ? AND reminder_time <= ?",
			userID, false, now, until).
		Order("reminder_time ASC").
		Find(&reminders).Error
	return reminders, err
}

// MarkSent flags a reminder as delivered. The sent timestamp is written on
// the first call only; marking an already sent reminder changes nothing.
func (s *ReminderService) MarkSent(reminderID uint) (*models.Reminder, error) {
	var reminder models.Reminder
	if err := s.db.First(&reminder, reminderID).Error; err != nil {
		return nil, fmt.Errorf("reminder %d: %w", reminderID, err)
	}

	if reminder.IsSent {
		return &reminder, nil
	}

	reminder.MarkSent(time.Now())
	if err := s.db.Save(&reminder).Error; err != nil {
		return nil, err
	}
	return &reminder, nil
}

// Reschedule rederives every trigger time for an event after its start time
// moved. The offsets stay; the absolute times follow the event.
func (s *ReminderService) Reschedule(event *models.Event) error {
	return s.reschedule(s.db, event)
}

func (s *ReminderService) reschedule(tx *gorm.DB, event *models.Event) error {
	var reminders []models.Reminder
	if err := tx.Where("event_id = ?", event.ID).Find(&reminders).Error; err != nil {
		return err
	}
	for i := range reminders {
		reminders[i].Reschedule(event.StartTime)
		if err := tx.Model(&reminders[i]).
			Update("reminder_time", reminders[i].ReminderTime).Error; err != nil {
			return err
		}
	}
	return nil
}

// All lists every reminder in the system, soonest first.
func (s *ReminderService) All() ([]models.Reminder, error) {
	var reminders []models.Reminder
	err := s.db.Order("reminder_time ASC").Find(&reminders).Error
	return reminders, err
}

// Delete removes a reminder outright.
func (s *ReminderService) Delete(reminderID uint) error {
	result := s.db.Delete(&models.Reminder{}, reminderID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("reminder %d: %w", reminderID, gorm.ErrRecordNotFound)
	}
	return nil
}
