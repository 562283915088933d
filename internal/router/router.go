package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/michval1/calendar-backend/internal/handlers"
	"github.com/michval1/calendar-backend/internal/middleware"
	"github.com/michval1/calendar-backend/internal/types"
)

func NewRouter() *gin.Engine {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     types.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	api := r.Group("/api")
	{
		api.GET("/health", handlers.HealthCheck)
		api.GET("/ws", middleware.AuthMiddleware(), handlers.ReminderFeed)

		auth := api.Group("/auth")
		{
			auth.POST("/register", handlers.CreateUser)
			auth.POST("/login", handlers.LoginUser)
			auth.GET("/me", middleware.AuthMiddleware(), handlers.Me)
		}

		events := api.Group("/events", middleware.AuthMiddleware())
		{
			events.POST("", handlers.CreateEvent)
			events.GET("", handlers.ListEvents)
			events.GET("/all", handlers.ListAllEvents)
			events.GET("/shared", handlers.ListSharedEvents)
			events.GET("/:event_id", handlers.GetEvent)
			events.PUT("/:event_id", handlers.UpdateEvent)
			events.DELETE("/:event_id", handlers.DeleteEvent)

			// Sharing endpoints
			events.POST("/:event_id/share", handlers.ShareEventWithUsers)
			events.POST("/:event_id/share/permissions", handlers.ShareEventWithPermissions)
			events.POST("/:event_id/share/:user_id", handlers.ShareEvent)
			events.DELETE("/:event_id/share/:user_id", handlers.RemoveSharedUser)
			events.GET("/:event_id/shared-users", handlers.GetEventSharedUsers)
			events.GET("/:event_id/permissions", handlers.GetEventPermissions)
			events.GET("/:event_id/permissions/:user_id", handlers.GetUserPermission)
		}

		reminders := api.Group("/reminders", middleware.AuthMiddleware())
		{
			reminders.GET("/pending", handlers.PendingReminders)
			reminders.GET("/upcoming", handlers.UpcomingReminders)
			reminders.POST("/:reminder_id/sent", handlers.MarkReminderSent)

			// Admin surface; authorization is enforced by the deployment.
			reminders.GET("", handlers.ListAllReminders)
			reminders.DELETE("/:reminder_id", handlers.DeleteReminder)
		}
	}

	return r
}
