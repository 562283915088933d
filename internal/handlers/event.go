package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/michval1/calendar-backend/db"
	"github.com/michval1/calendar-backend/internal/models"
	"github.com/michval1/calendar-backend/internal/services"
	"github.com/michval1/calendar-backend/internal/utils"
)

type EventRequest struct {
	Title           string          `json:"title" binding:"required"`
	Description     string          `json:"description"`
	Location        string          `json:"location"`
	StartTime       time.Time       `json:"start_time" binding:"required"`
	EndTime         time.Time       `json:"end_time" binding:"required"`
	IsAllDay        bool            `json:"is_all_day"`
	RecurrenceType  string          `json:"recurrence_type"`
	RecurrenceEnd   *time.Time      `json:"recurrence_end"`
	Priority        string          `json:"priority"`
	Color           string          `json:"color"`
	SharedWith      []uint          `json:"shared_with"`
	UserPermissions map[uint]string `json:"user_permissions"`
	ReminderMinutes []int           `json:"reminder_minutes"`
}

func (r EventRequest) toInput() services.EventInput {
	return services.EventInput{
		Title:           r.Title,
		Description:     r.Description,
		Location:        r.Location,
		StartTime:       r.StartTime,
		EndTime:         r.EndTime,
		IsAllDay:        r.IsAllDay,
		RecurrenceType:  r.RecurrenceType,
		RecurrenceEnd:   r.RecurrenceEnd,
		Priority:        r.Priority,
		Color:           r.Color,
		SharedWith:      r.SharedWith,
		Permissions:     r.UserPermissions,
		ReminderMinutes: r.ReminderMinutes,
	}
}

func CreateEvent(ctx *gin.Context) {
	var body EventRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	event, err := services.NewEventService(db.DB).Create(body.toInput(), userID)

	if err != nil {
		respondServiceError(ctx, err, "Failed to create event")
		return
	}

	ctx.JSON(http.StatusCreated, event)
}

func GetEvent(ctx *gin.Context) {
	eventID, ok := paramID(ctx, "event_id")
	if !ok {
		return
	}

	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	event, err := services.NewEventService(db.DB).Get(eventID, userID)

	if err != nil {
		respondServiceError(ctx, err, "Failed to retrieve event")
		return
	}

	ctx.JSON(http.StatusOK, event)
}

// ListEvents returns the authenticated user's own events, optionally
// narrowed to a start-time range.
func ListEvents(ctx *gin.Context) {
	listEvents(ctx, func(svc *services.EventService, userID uint, from, to *time.Time) ([]models.Event, error) {
		return svc.EventsFor(userID, from, to)
	})
}

// ListAllEvents returns own plus shared events.
func ListAllEvents(ctx *gin.Context) {
	listEvents(ctx, func(svc *services.EventService, userID uint, from, to *time.Time) ([]models.Event, error) {
		return svc.AllEventsFor(userID, from, to)
	})
}

// ListSharedEvents returns only events shared with the user.
func ListSharedEvents(ctx *gin.Context) {
	listEvents(ctx, func(svc *services.EventService, userID uint, from, to *time.Time) ([]models.Event, error) {
		return svc.SharedEventsFor(userID, from, to)
	})
}

func listEvents(ctx *gin.Context, query func(*services.EventService, uint, *time.Time, *time.Time) ([]models.Event, error)) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	from, to, ok := rangeParams(ctx)
	if !ok {
		return
	}

	events, err := query(services.NewEventService(db.DB), userID, from, to)

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve events"})
		return
	}

	if events == nil {
		events = []models.Event{}
	}

	ctx.JSON(http.StatusOK, events)
}

func UpdateEvent(ctx *gin.Context) {
	eventID, ok := paramID(ctx, "event_id")
	if !ok {
		return
	}

	var body EventRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	event, err := services.NewEventService(db.DB).Update(eventID, body.toInput())

	if err != nil {
		respondServiceError(ctx, err, "Failed to update event")
		return
	}

	ctx.JSON(http.StatusOK, event)
}

func DeleteEvent(ctx *gin.Context) {
	eventID, ok := paramID(ctx, "event_id")
	if !ok {
		return
	}

	if err := services.NewEventService(db.DB).Delete(eventID); err != nil {
		respondServiceError(ctx, err, "Failed to delete event")
		return
	}

	ctx.Status(http.StatusNoContent)
}

// ShareEvent shares an event with one user. An optional ?permission= query
// sets the level; the default is VIEW.
func ShareEvent(ctx *gin.Context) {
	eventID, ok := paramID(ctx, "event_id")
	if !ok {
		return
	}
	userID, ok := paramID(ctx, "user_id")
	if !ok {
		return
	}

	actorID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	permission := ctx.Query("permission")

	event, err := services.NewEventService(db.DB).ShareWithUser(eventID, userID, permission, actorID)

	if err != nil {
		respondServiceError(ctx, err, "Failed to share event")
		return
	}

	ctx.JSON(http.StatusOK, event)
}

// ShareEventWithUsers shares an event with a list of user ids at VIEW
// level. Unknown ids in the list are skipped.
func ShareEventWithUsers(ctx *gin.Context) {
	eventID, ok := paramID(ctx, "event_id")
	if !ok {
		return
	}

	var userIDs []uint

	if err := ctx.ShouldBindJSON(&userIDs); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	actorID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	event, err := services.NewEventService(db.DB).ShareWithUsers(eventID, userIDs, actorID)

	if err != nil {
		respondServiceError(ctx, err, "Failed to share event")
		return
	}

	ctx.JSON(http.StatusOK, event)
}

// ShareEventWithPermissions shares an event with a user id to permission
// map in one call.
func ShareEventWithPermissions(ctx *gin.Context) {
	eventID, ok := paramID(ctx, "event_id")
	if !ok {
		return
	}

	var permissions map[uint]string

	if err := ctx.ShouldBindJSON(&permissions); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	actorID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	event, err := services.NewEventService(db.DB).ShareWithPermissions(eventID, permissions, actorID)

	if err != nil {
		respondServiceError(ctx, err, "Failed to share event")
		return
	}

	ctx.JSON(http.StatusOK, event)
}

func RemoveSharedUser(ctx *gin.Context) {
	eventID, ok := paramID(ctx, "event_id")
	if !ok {
		return
	}
	userID, ok := paramID(ctx, "user_id")
	if !ok {
		return
	}

	actorID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	event, err := services.NewEventService(db.DB).RemoveSharedUser(eventID, userID, actorID)

	if err != nil {
		respondServiceError(ctx, err, "Failed to remove shared user")
		return
	}

	ctx.JSON(http.StatusOK, event)
}

func GetEventPermissions(ctx *gin.Context) {
	eventID, ok := paramID(ctx, "event_id")
	if !ok {
		return
	}

	permissions, err := services.NewSharingService(db.DB).EventPermissions(eventID)

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve permissions"})
		return
	}

	ctx.JSON(http.StatusOK, permissions)
}

func GetUserPermission(ctx *gin.Context) {
	eventID, ok := paramID(ctx, "event_id")
	if !ok {
		return
	}
	userID, ok := paramID(ctx, "user_id")
	if !ok {
		return
	}

	permission, err := services.NewSharingService(db.DB).UserPermission(eventID, userID)

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve permission"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"permission": permission})
}

func GetEventSharedUsers(ctx *gin.Context) {
	eventID, ok := paramID(ctx, "event_id")
	if !ok {
		return
	}

	users, err := services.NewSharingService(db.DB).SharedUsers(eventID)

	if err != nil {
		respondServiceError(ctx, err, "Failed to retrieve shared users")
		return
	}

	if users == nil {
		users = []models.User{}
	}

	ctx.JSON(http.StatusOK, users)
}
