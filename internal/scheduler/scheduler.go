package scheduler

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/michval1/calendar-backend/db"
	"github.com/michval1/calendar-backend/internal/handlers"
	"github.com/michval1/calendar-backend/internal/models"
	"github.com/michval1/calendar-backend/internal/services"
)

const defaultPollInterval = 30 * time.Second

// Dispatcher periodically polls for due reminders and fans them out to the
// per-user websocket feeds and the optional webhook. It never marks a
// reminder as sent; acknowledgement stays with the client through the
// mark-sent endpoint.
type Dispatcher struct {
	interval   time.Duration
	webhookURL string
	ctx        context.Context
	cancel     context.CancelFunc
}

func NewDispatcher(interval time.Duration, webhookURL string) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		interval:   interval,
		webhookURL: webhookURL,
		ctx:        ctx,
		cancel:     cancel,
	}
}

func (d *Dispatcher) Start() {
	log.Printf("Starting reminder dispatcher (interval %s)", d.interval)

	go func() {
		ticker := time.NewTicker(d.interval)
		defer ticker.Stop()

		for {
			select {
			case <-d.ctx.Done():
				return
			case <-ticker.C:
				d.dispatch(time.Now())
			}
		}
	}()
}

func (d *Dispatcher) Stop() {
	log.Println("Stopping reminder dispatcher")
	d.cancel()
}

func (d *Dispatcher) dispatch(now time.Time) {
	var userIDs []uint

	err := db.DB.Model(&models.Reminder{}).
		Where("is_sent = ? AND reminder_time <= ?", false, now).
		Distinct().
		Pluck("user_id", &userIDs).Error

	if err != nil {
		log.Printf("Failed to query users with due reminders: %v", err)
		return
	}

	reminderSvc := services.NewReminderService(db.DB)

	for _, userID := range userIDs {
		due, err := reminderSvc.PendingFor(userID, now)
		if err != nil {
			log.Printf("Failed to load pending reminders for user %d: %v", userID, err)
			continue
		}
		if len(due) == 0 {
			continue
		}

		handlers.BroadcastReminders(userID, due)

		if d.webhookURL != "" {
			// The webhook only sees reminders that became due since the
			// last tick; the feed re-announces everything still pending.
			fresh := make([]models.Reminder, 0, len(due))
			for _, reminder := range due {
				if reminder.ReminderTime.After(now.Add(-d.interval)) {
					fresh = append(fresh, reminder)
				}
			}
			if err := services.NotifyReminderWebhook(d.webhookURL, fresh); err != nil {
				log.Printf("Reminder webhook failed for user %d: %v", userID, err)
			}
		}
	}
}

// Global dispatcher instance
var globalDispatcher *Dispatcher

// Initialize creates and starts the global dispatcher from the
// environment.
func Initialize() {
	interval := defaultPollInterval

	if raw := os.Getenv("REMINDER_POLL_INTERVAL"); raw != "" {
		if seconds, err := strconv.Atoi(raw); err == nil && seconds > 0 {
			interval = time.Duration(seconds) * time.Second
		} else {
			log.Printf("Invalid REMINDER_POLL_INTERVAL %q, using default", raw)
		}
	}

	globalDispatcher = NewDispatcher(interval, os.Getenv("REMINDER_WEBHOOK_URL"))
	globalDispatcher.Start()
}

// Shutdown stops the global dispatcher.
func Shutdown() {
	if globalDispatcher != nil {
		globalDispatcher.Stop()
	}
}
