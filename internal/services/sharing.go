package services

import (
	"errors"
	"fmt"
	"log"

	"github.com/michval1/calendar-backend/internal/models"
	"gorm.io/gorm"
)

// SharingService converges the shared-user membership of an event and the
// per-user permission attribute to a caller supplied target state.
//
// The two relations live in the same join table but are written through two
// mechanisms: membership through the SharedWith association (bulk,
// idempotent, permission column left at its VIEW default), the permission
// attribute through direct SQL statements. Association writes execute
// eagerly, so the join rows are visible to the permission statements that
// follow them inside the same transaction; writePermission covers the
// remaining race window where a concurrent writer still invalidates that
// assumption.
type SharingService struct {
	db *gorm.DB
}

func NewSharingService(conn *gorm.DB) *SharingService {
	return &SharingService{db: conn}
}

// ShareWithUser shares an event with a single user at the given level
// (VIEW when empty). Sharing twice is a no-op on membership; the permission
// is overwritten either way.
func (s *SharingService) ShareWithUser(eventID, userID uint, permission string) error {
	var event models.Event
	if err := s.db.First(&event, eventID).Error; err != nil {
		return fmt.Errorf("event %d: %w", eventID, err)
	}

	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		return fmt.Errorf("user %d: %w", userID, err)
	}

	event.ShareWith(user)

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&event).Association("SharedWith").Append(&user); err != nil {
			return err
		}
		if err := tx.Model(&event).Update("is_shared", event.IsShared).Error; err != nil {
			return err
		}
		return writePermission(tx, eventID, userID, permission)
	})
}

// ShareWithUsers shares an event with every user id in the list at the
// default VIEW level.
func (s *SharingService) ShareWithUsers(eventID uint, userIDs []uint) error {
	permissions := make(map[uint]string, len(userIDs))
	for _, id := range userIDs {
		permissions[id] = models.PermissionView
	}
	return s.ShareWithPermissions(eventID, permissions)
}

// ShareWithPermissions shares an event with every user in the map at the
// requested level. Ids that do not resolve to a user are skipped; the batch
// still goes through for everyone else. Membership is persisted in a single
// association write before any permission attribute is touched.
func (s *SharingService) ShareWithPermissions(eventID uint, permissions map[uint]string) error {
	var event models.Event
	if err := s.db.First(&event, eventID).Error; err != nil {
		return fmt.Errorf("event %d: %w", eventID, err)
	}

	users := make([]models.User, 0, len(permissions))
	for userID := range permissions {
		var user models.User
		if err := s.db.First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				log.Printf("Skipping unknown user %d while sharing event %d", userID, eventID)
				continue
			}
			return err
		}
		users = append(users, user)
	}

	if len(users) == 0 {
		return nil
	}

	for _, user := range users {
		event.ShareWith(user)
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&event).Association("SharedWith").Append(&users); err != nil {
			return err
		}
		if err := tx.Model(&event).Update("is_shared", event.IsShared).Error; err != nil {
			return err
		}
		for _, user := range users {
			if err := writePermission(tx, eventID, user.ID, permissions[user.ID]); err != nil {
				return err
			}
		}
		return nil
	})
}

// RemoveSharedUser takes a user out of the shared set. Removing the last
// one clears IsShared. The permission row for the pair goes with the
// membership row.
func (s *SharingService) RemoveSharedUser(eventID, userID uint) error {
	var event models.Event
	if err := s.db.Preload("SharedWith").First(&event, eventID).Error; err != nil {
		return fmt.Errorf("event %d: %w", eventID, err)
	}

	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		return fmt.Errorf("user %d: %w", userID, err)
	}

	event.RemoveShared(user.ID)

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&event).Association("SharedWith").Delete(&user); err != nil {
			return err
		}
		return tx.Model(&event).Update("is_shared", event.IsShared).Error
	})
}

// EventPermissions reads the permission attribute rows for an event. This
// is the authoritative read path: it goes to the table directly, not to a
// membership slice some caller may hold in memory.
func (s *SharingService) EventPermissions(eventID uint) (map[uint]string, error) {
	var rows []models.EventSharedUser
	if err := s.db.Where("event_id = ?", eventID).Find(&rows).Error; err != nil {
		return nil, err
	}

	permissions := make(map[uint]string, len(rows))
	for _, row := range rows {
		permissions[row.UserID] = row.Permission
	}
	return permissions, nil
}

// UserPermission returns the stored level for an (event, user) pair, or
// VIEW when no row exists. Absence is an unset default, not an error.
func (s *SharingService) UserPermission(eventID, userID uint) (string, error) {
	var row models.EventSharedUser
	err := s.db.Where("event_id = ? AND user_id = ?", eventID, userID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.PermissionView, nil
	}
	if err != nil {
		return "", err
	}
	return row.Permission, nil
}

// SharedUsers returns the membership set of an event.
func (s *SharingService) SharedUsers(eventID uint) ([]models.User, error) {
	var event models.Event
	if err := s.db.First(&event, eventID).Error; err != nil {
		return nil, fmt.Errorf("event %d: %w", eventID, err)
	}

	var users []models.User
	if err := s.db.Model(&event).Association("SharedWith").Find(&users); err != nil {
		return nil, err
	}
	return users, nil
}

// writePermission upserts the permission attribute for a pair. An update
// that hits zero rows falls back to an insert; an insert that collides with
// a concurrent writer rolls back to a savepoint and retries the update
// once. A permission is never dropped silently because of write ordering.
func writePermission(tx *gorm.DB, eventID, userID uint, permission string) error {
	if permission == "" {
		permission = models.PermissionView
	}

	const updateSQL = "UPDATE event_shared_users SET permission = ? WHERE event_id = ? AND user_id = ?"

	update := tx.Exec(updateSQL, permission, eventID, userID)
	if update.Error != nil {
		return update.Error
	}
	if update.RowsAffected > 0 {
		return nil
	}

	// The membership row may not exist yet. The savepoint keeps a failed
	// insert from poisoning the surrounding transaction.
	tx.SavePoint("permission_upsert")
	insert := tx.Exec(
		"INSERT INTO event_shared_users (event_id, user_id, permission) VALUES (?, ?, ?)",
		eventID, userID, permission,
	)
	if insert.Error == nil {
		return nil
	}
	tx.RollbackTo("permission_upsert")

	retry := tx.Exec(updateSQL, permission, eventID, userID)
	if retry.Error != nil {
		return fmt.Errorf("permission write for event %d user %d: %w", eventID, userID, retry.Error)
	}
	if retry.RowsAffected == 0 {
		return fmt.Errorf("permission write for event %d user %d affected no rows", eventID, userID)
	}
	return nil
}
