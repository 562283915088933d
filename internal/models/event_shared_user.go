package models

// Permission levels a shared user can hold on an event.
const (
	PermissionView  = "VIEW"
	PermissionEdit  = "EDIT"
	PermissionAdmin = "ADMIN"
)

// EventSharedUser is the join row between an event and a user it is shared
// with. It doubles as the permission attribute for the pair: membership is
// written through the SharedWith association, the Permission column through
// direct SQL statements in the sharing service.
type EventSharedUser struct {
	EventID    uint   `gorm:"primaryKey" json:"event_id"`
	UserID     uint   `gorm:"primaryKey" json:"user_id"`
	Permission string `gorm:"size:10;not null;default:VIEW" json:"permission"`
}

func (EventSharedUser) TableName() string {
	return "event_shared_users"
}
