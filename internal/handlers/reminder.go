package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/michval1/calendar-backend/db"
	"github.com/michval1/calendar-backend/internal/models"
	"github.com/michval1/calendar-backend/internal/services"
	"github.com/michval1/calendar-backend/internal/utils"
)

// PendingReminders returns the authenticated user's unsent reminders whose
// trigger time has already passed. Clients poll this and acknowledge with
// MarkReminderSent.
func PendingReminders(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	reminders, err := services.NewReminderService(db.DB).PendingFor(userID, time.Now())

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve reminders"})
		return
	}

	if reminders == nil {
		reminders = []models.Reminder{}
	}

	ctx.JSON(http.StatusOK, reminders)
}

// UpcomingReminders returns unsent reminders inside a look-ahead window.
// The window defaults to 60 minutes and can be set with ?window=<minutes>.
func UpcomingReminders(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	window := 60
	if raw := ctx.Query("window"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid window"})
			return
		}
		window = parsed
	}

	now := time.Now()
	until := now.Add(time.Duration(window) * time.Minute)

	reminders, err := services.NewReminderService(db.DB).Upcoming(userID, now, until)

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve reminders"})
		return
	}

	if reminders == nil {
		reminders = []models.Reminder{}
	}

	ctx.JSON(http.StatusOK, reminders)
}

func MarkReminderSent(ctx *gin.Context) {
	reminderID, ok := paramID(ctx, "reminder_id")
	if !ok {
		return
	}

	reminder, err := services.NewReminderService(db.DB).MarkSent(reminderID)

	if err != nil {
		respondServiceError(ctx, err, "Failed to mark reminder as sent")
		return
	}

	ctx.JSON(http.StatusOK, reminder)
}

// ListAllReminders is the admin overview of every reminder in the system.
// Authorization beyond authentication is enforced by the deployment, not
// here.
func ListAllReminders(ctx *gin.Context) {
	reminders, err := services.NewReminderService(db.DB).All()

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve reminders"})
		return
	}

	if reminders == nil {
		reminders = []models.Reminder{}
	}

	ctx.JSON(http.StatusOK, reminders)
}

// DeleteReminder is the admin deletion path.
func DeleteReminder(ctx *gin.Context) {
	reminderID, ok := paramID(ctx, "reminder_id")
	if !ok {
		return
	}

	if err := services.NewReminderService(db.DB).Delete(reminderID); err != nil {
		respondServiceError(ctx, err, "Failed to delete reminder")
		return
	}

	ctx.Status(http.StatusNoContent)
}
