package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/michval1/calendar-backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EventInput carries the caller supplied fields for a create or update.
// Nil slices mean "leave as is", so a partial payload never clears sharing
// or reminders by accident.
type EventInput struct {
	Title           string
	Description     string
	Location        string
	StartTime       time.Time
	EndTime         time.Time
	IsAllDay        bool
	RecurrenceType  string
	RecurrenceEnd   *time.Time
	Priority        string
	Color           string
	SharedWith      []uint          // nil leaves membership untouched
	Permissions     map[uint]string // empty leaves permissions untouched
	ReminderMinutes []int           // nil leaves reminders untouched
}

// EventService is the surface the HTTP layer talks to. It persists events
// and hands sharing and reminder work to the services underneath, then
// assembles the full aggregate (permission map plus the requesting user's
// reminder offsets) before anything is returned.
type EventService struct {
	db        *gorm.DB
	sharing   *SharingService
	reminders *ReminderService
}

func NewEventService(conn *gorm.DB) *EventService {
	return &EventService{
		db:        conn,
		sharing:   NewSharingService(conn),
		reminders: NewReminderService(conn),
	}
}

// Create persists a new event for its owner and, when the input carries
// inline reminder offsets, the owner's reminder set with it.
func (s *EventService) Create(input EventInput, ownerID uint) (*models.Event, error) {
	var owner models.User
	if err := s.db.First(&owner, ownerID).Error; err != nil {
		return nil, fmt.Errorf("user %d: %w", ownerID, err)
	}

	if !input.EndTime.After(input.StartTime) {
		return nil, ErrEndNotAfterStart
	}

	event := models.Event{
		Title:          input.Title,
		Description:    input.Description,
		Location:       input.Location,
		StartTime:      input.StartTime,
		EndTime:        input.EndTime,
		IsAllDay:       input.IsAllDay,
		RecurrenceType: input.RecurrenceType,
		RecurrenceEnd:  input.RecurrenceEnd,
		OwnerID:        ownerID,
		Priority:       input.Priority,
		Color:          input.Color,
	}
	if event.Priority == "" {
		event.Priority = models.PriorityMedium
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&event).Error; err != nil {
			return err
		}
		return s.reminders.replace(tx, &event, ownerID, input.ReminderMinutes)
	})
	if err != nil {
		return nil, err
	}

	if err := s.enrich(&event, ownerID); err != nil {
		return nil, err
	}
	return &event, nil
}

// Update overwrites the scalar fields of an event and, where the input
// supplies them, its membership set, its permission map and the owner's
// reminder offsets. Membership is persisted before the permission phase; a
// permission entry for a user outside the new membership set is skipped, so
// a permission row never outruns membership on this path.
func (s *EventService) Update(eventID uint, input EventInput) (*models.Event, error) {
	var event models.Event
	if err := s.db.Preload("SharedWith").First(&event, eventID).Error; err != nil {
		return nil, fmt.Errorf("event %d: %w", eventID, err)
	}

	if !input.EndTime.After(input.StartTime) {
		return nil, ErrEndNotAfterStart
	}

	startChanged := !event.StartTime.Equal(input.StartTime)

	event.Title = input.Title
	event.Description = input.Description
	event.Location = input.Location
	event.StartTime = input.StartTime
	event.EndTime = input.EndTime
	event.IsAllDay = input.IsAllDay
	event.RecurrenceType = input.RecurrenceType
	event.RecurrenceEnd = input.RecurrenceEnd
	event.Priority = input.Priority
	event.Color = input.Color

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(&event).Error; err != nil {
			return err
		}

		if input.SharedWith != nil {
			users := make([]models.User, 0, len(input.SharedWith))
			for _, userID := range input.SharedWith {
				var user models.User
				if err := tx.First(&user, userID).Error; err != nil {
					if errors.Is(err, gorm.ErrRecordNotFound) {
						continue // tolerate a stale id in the batch
					}
					return err
				}
				users = append(users, user)
			}

			// Replace persists the whole membership set in one eager
			// association write; the permission statements below can rely
			// on the join rows being visible.
			if err := tx.Model(&event).Association("SharedWith").Replace(&users); err != nil {
				return err
			}
			event.SharedWith = users
			event.IsShared = len(users) > 0
			if err := tx.Model(&event).Update("is_shared", event.IsShared).Error; err != nil {
				return err
			}
		}

		if len(input.Permissions) > 0 {
			members := make(map[uint]bool, len(event.SharedWith))
			for _, u := range event.SharedWith {
				members[u.ID] = true
			}
			for userID, permission := range input.Permissions {
				if !members[userID] {
					continue
				}
				if err := writePermission(tx, event.ID, userID, permission); err != nil {
					return err
				}
			}
		}

		if startChanged {
			if err := s.reminders.reschedule(tx, &event); err != nil {
				return err
			}
		}

		// Reminder offsets apply to the event owner only on this path.
		if input.ReminderMinutes != nil {
			if err := s.reminders.replace(tx, &event, event.OwnerID, input.ReminderMinutes); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.enrich(&event, event.OwnerID); err != nil {
		return nil, err
	}
	return &event, nil
}

// Delete removes an event. Its join rows and reminders go with it; the
// storage layer handles the cascade in a single delete.
func (s *EventService) Delete(eventID uint) error {
	var event models.Event
	if err := s.db.First(&event, eventID).Error; err != nil {
		return fmt.Errorf("event %d: %w", eventID, err)
	}
	return s.db.Select(clause.Associations).Delete(&event).Error
}

// Get loads one event enriched for the requesting user.
func (s *EventService) Get(eventID, userID uint) (*models.Event, error) {
	var event models.Event
	if err := s.db.Preload("SharedWith").First(&event, eventID).Error; err != nil {
		return nil, fmt.Errorf("event %d: %w", eventID, err)
	}
	if err := s.enrich(&event, userID); err != nil {
		return nil, err
	}
	return &event, nil
}

// EventsFor returns the events a user owns. A non-nil from/to pair narrows
// the result to events starting inside the range.
func (s *EventService) EventsFor(userID uint, from, to *time.Time) ([]models.Event, error) {
	query := betweenStartTimes(s.db.Where("owner_id = ?", userID), from, to)

	var events []models.Event
	if err := query.Preload("SharedWith").Order("start_time ASC").Find(&events).Error; err != nil {
		return nil, err
	}
	return s.enrichAll(events, userID)
}

// SharedEventsFor returns the events shared with a user by someone else.
func (s *EventService) SharedEventsFor(userID uint, from, to *time.Time) ([]models.Event, error) {
	query := s.db.
		Joins("JOIN event_shared_users ON event_shared_users.event_id = events.id").
		Where("event_shared_users.user_id = ?", userID)
	query = betweenStartTimes(query, from, to)

	var events []models.Event
	if err := query.Preload("SharedWith").Order("start_time ASC").Find(&events).Error; err != nil {
		return nil, err
	}
	return s.enrichAll(events, userID)
}

// AllEventsFor returns owned and shared events in one list.
func (s *EventService) AllEventsFor(userID uint, from, to *time.Time) ([]models.Event, error) {
	query := s.db.Where(
		"owner_id = ? OR id IN (SELECT event_id FROM event_shared_users WHERE user_id = ?)",
		userID, userID,
	)
	query = betweenStartTimes(query, from, to)

	var events []models.Event
	if err := query.Preload("SharedWith").Order("start_time ASC").Find(&events).Error; err != nil {
		return nil, err
	}
	return s.enrichAll(events, userID)
}

// ShareWithUser shares the event with one user, then reassembles the
// aggregate for the acting user.
func (s *EventService) ShareWithUser(eventID, userID uint, permission string, actorID uint) (*models.Event, error) {
	if err := s.sharing.ShareWithUser(eventID, userID, permission); err != nil {
		return nil, err
	}
	return s.Get(eventID, actorID)
}

// ShareWithUsers shares the event with a list of user ids at VIEW level.
func (s *EventService) ShareWithUsers(eventID uint, userIDs []uint, actorID uint) (*models.Event, error) {
	if err := s.sharing.ShareWithUsers(eventID, userIDs); err != nil {
		return nil, err
	}
	return s.Get(eventID, actorID)
}

// ShareWithPermissions shares the event with every user in the map.
func (s *EventService) ShareWithPermissions(eventID uint, permissions map[uint]string, actorID uint) (*models.Event, error) {
	if err := s.sharing.ShareWithPermissions(eventID, permissions); err != nil {
		return nil, err
	}
	return s.Get(eventID, actorID)
}

// RemoveSharedUser revokes one user's access to the event.
func (s *EventService) RemoveSharedUser(eventID, userID uint, actorID uint) (*models.Event, error) {
	if err := s.sharing.RemoveSharedUser(eventID, userID); err != nil {
		return nil, err
	}
	return s.Get(eventID, actorID)
}

// enrich fills the two computed fields of the aggregate: the permission map
// (only when the event is shared, otherwise an empty map) and the
// requesting user's reminder offsets.
func (s *EventService) enrich(event *models.Event, userID uint) error {
	if event.IsShared {
		permissions, err := s.sharing.EventPermissions(event.ID)
		if err != nil {
			return err
		}
		event.Permissions = permissions
	} else {
		event.Permissions = map[uint]string{}
	}

	minutes, err := s.reminders.OffsetsFor(event.ID, userID)
	if err != nil {
		return err
	}
	event.ReminderMinutes = minutes
	return nil
}

func (s *EventService) enrichAll(events []models.Event, userID uint) ([]models.Event, error) {
	for i := range events {
		if err := s.enrich(&events[i], userID); err != nil {
			return nil, err
		}
	}
	return events, nil
}

func betweenStartTimes(query *gorm.DB, from, to *time.Time) *gorm.DB {
	if from != nil && to != nil {
		return query.Where("events.start_time BETWEEN ? AND ?", from, to)
	}
	return query
}
