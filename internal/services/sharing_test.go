package services

import (
	"errors"
	"testing"
	"time"

	"github.com/michval1/calendar-backend/internal/models"
	"gorm.io/gorm"
)

func TestShareWithUserIdempotent(t *testing.T) {
	conn := newTestDB(t)
	owner := createUser(t, conn, "owner")
	guest := createUser(t, conn, "guest")
	event := createEvent(t, conn, owner.ID, "Standup", time.Now().Add(time.Hour))

	svc := NewSharingService(conn)

	for i := 0; i < 2; i++ {
		if err := svc.ShareWithUser(event.ID, guest.ID, models.PermissionEdit); err != nil {
			t.Fatalf("share attempt %d: %v", i+1, err)
		}
	}

	if got := countRows(t, conn, &models.EventSharedUser{}, "event_id = ? AND user_id = ?", event.ID, guest.ID); got != 1 {
		t.Fatalf("expected exactly one membership row, got %d", got)
	}

	permissions, err := svc.EventPermissions(event.ID)
	if err != nil {
		t.Fatalf("event permissions: %v", err)
	}
	if permissions[guest.ID] != models.PermissionEdit {
		t.Fatalf("expected EDIT, got %q", permissions[guest.ID])
	}

	var reloaded models.Event
	if err := conn.First(&reloaded, event.ID).Error; err != nil {
		t.Fatalf("reload event: %v", err)
	}
	if !reloaded.IsShared {
		t.Fatal("expected event to be marked shared")
	}
}

func TestShareWithUserDefaultsToView(t *testing.T) {
	conn := newTestDB(t)
	owner := createUser(t, conn, "owner")
	guest := createUser(t, conn, "guest")
	event := createEvent(t, conn, owner.ID, "Review", time.Now().Add(time.Hour))

	svc := NewSharingService(conn)

	if err := svc.ShareWithUser(event.ID, guest.ID, ""); err != nil {
		t.Fatalf("share: %v", err)
	}

	permissions, err := svc.EventPermissions(event.ID)
	if err != nil {
		t.Fatalf("event permissions: %v", err)
	}
	if permissions[guest.ID] != models.PermissionView {
		t.Fatalf("expected VIEW default, got %q", permissions[guest.ID])
	}
}

func TestShareWithUserUnknownEvent(t *testing.T) {
	conn := newTestDB(t)
	guest := createUser(t, conn, "guest")

	err := NewSharingService(conn).ShareWithUser(9999, guest.ID, models.PermissionView)
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestShareWithPermissionsWritesAllEntries(t *testing.T) {
	conn := newTestDB(t)
	owner := createUser(t, conn, "owner")
	viewer := createUser(t, conn, "viewer")
	admin := createUser(t, conn, "admin")
	event := createEvent(t, conn, owner.ID, "Planning", time.Now().Add(time.Hour))

	svc := NewSharingService(conn)

	target := map[uint]string{
		viewer.ID: models.PermissionView,
		admin.ID:  models.PermissionAdmin,
	}
	if err := svc.ShareWithPermissions(event.ID, target); err != nil {
		t.Fatalf("share with permissions: %v", err)
	}

	permissions, err := svc.EventPermissions(event.ID)
	if err != nil {
		t.Fatalf("event permissions: %v", err)
	}
	if len(permissions) != 2 {
		t.Fatalf("expected 2 permission entries, got %d", len(permissions))
	}
	if permissions[viewer.ID] != models.PermissionView || permissions[admin.ID] != models.PermissionAdmin {
		t.Fatalf("unexpected permission map: %v", permissions)
	}
}

func TestShareWithUsersSkipsUnknownIDs(t *testing.T) {
	conn := newTestDB(t)
	owner := createUser(t, conn, "owner")
	guest := createUser(t, conn, "guest")
	other := createUser(t, conn, "other")
	event := createEvent(t, conn, owner.ID, "Offsite", time.Now().Add(time.Hour))

	svc := NewSharingService(conn)

	if err := svc.ShareWithUsers(event.ID, []uint{guest.ID, 9999, other.ID}); err != nil {
		t.Fatalf("bulk share: %v", err)
	}

	users, err := svc.SharedUsers(event.ID)
	if err != nil {
		t.Fatalf("shared users: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("expected 2 shared users, got %d", len(users))
	}
	for _, u := range users {
		if u.ID != guest.ID && u.ID != other.ID {
			t.Fatalf("unexpected shared user %d", u.ID)
		}
	}
}

func TestRemoveSharedUserClearsIsShared(t *testing.T) {
	conn := newTestDB(t)
	owner := createUser(t, conn, "owner")
	first := createUser(t, conn, "first")
	second := createUser(t, conn, "second")
	event := createEvent(t, conn, owner.ID, "Sync", time.Now().Add(time.Hour))

	svc := NewSharingService(conn)

	if err := svc.ShareWithUsers(event.ID, []uint{first.ID, second.ID}); err != nil {
		t.Fatalf("bulk share: %v", err)
	}

	if err := svc.RemoveSharedUser(event.ID, first.ID); err != nil {
		t.Fatalf("remove first: %v", err)
	}

	var reloaded models.Event
	if err := conn.First(&reloaded, event.ID).Error; err != nil {
		t.Fatalf("reload event: %v", err)
	}
	if !reloaded.IsShared {
		t.Fatal("event should stay shared while a member remains")
	}

	permissions, err := svc.EventPermissions(event.ID)
	if err != nil {
		t.Fatalf("event permissions: %v", err)
	}
	if _, ok := permissions[first.ID]; ok {
		t.Fatal("removed user must not appear in the permission map")
	}
	if _, ok := permissions[second.ID]; !ok {
		t.Fatal("remaining user lost its permission")
	}

	if err := svc.RemoveSharedUser(event.ID, second.ID); err != nil {
		t.Fatalf("remove second: %v", err)
	}

	if err := conn.First(&reloaded, event.ID).Error; err != nil {
		t.Fatalf("reload event: %v", err)
	}
	if reloaded.IsShared {
		t.Fatal("event should not be shared after the last member is removed")
	}
}

func TestUserPermissionDefaultsToView(t *testing.T) {
	conn := newTestDB(t)
	owner := createUser(t, conn, "owner")
	event := createEvent(t, conn, owner.ID, "Solo", time.Now().Add(time.Hour))

	permission, err := NewSharingService(conn).UserPermission(event.ID, 424242)
	if err != nil {
		t.Fatalf("user permission: %v", err)
	}
	if permission != models.PermissionView {
		t.Fatalf("expected VIEW for missing row, got %q", permission)
	}
}

func TestWritePermissionInsertsWhenRowMissing(t *testing.T) {
	conn := newTestDB(t)
	owner := createUser(t, conn, "owner")
	guest := createUser(t, conn, "guest")
	event := createEvent(t, conn, owner.ID, "Race", time.Now().Add(time.Hour))

	// No membership row exists yet; the update path affects zero rows and
	// the insert fallback has to take over.
	err := conn.Transaction(func(tx *gorm.DB) error {
		return writePermission(tx, event.ID, guest.ID, models.PermissionAdmin)
	})
	if err != nil {
		t.Fatalf("write permission: %v", err)
	}

	permissions, err := NewSharingService(conn).EventPermissions(event.ID)
	if err != nil {
		t.Fatalf("event permissions: %v", err)
	}
	if permissions[guest.ID] != models.PermissionAdmin {
		t.Fatalf("expected ADMIN, got %q", permissions[guest.ID])
	}
}

func TestWritePermissionOverwritesExistingRow(t *testing.T) {
	conn := newTestDB(t)
	owner := createUser(t, conn, "owner")
	guest := createUser(t, conn, "guest")
	event := createEvent(t, conn, owner.ID, "Upgrade", time.Now().Add(time.Hour))

	svc := NewSharingService(conn)

	if err := svc.ShareWithUser(event.ID, guest.ID, models.PermissionView); err != nil {
		t.Fatalf("share: %v", err)
	}

	err := conn.Transaction(func(tx *gorm.DB) error {
		return writePermission(tx, event.ID, guest.ID, models.PermissionEdit)
	})
	if err != nil {
		t.Fatalf("write permission: %v", err)
	}

	permission, err := svc.UserPermission(event.ID, guest.ID)
	if err != nil {
		t.Fatalf("user permission: %v", err)
	}
	if permission != models.PermissionEdit {
		t.Fatalf("expected EDIT after overwrite, got %q", permission)
	}
}
