package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/michval1/calendar-backend/internal/models"
)

type ReminderWebhookEntry struct {
	ReminderID   uint      `json:"reminder_id"`
	EventID      uint      `json:"event_id"`
	UserID       uint      `json:"user_id"`
	ReminderTime time.Time `json:"reminder_time"`
	Message      string    `json:"message"`
}

type ReminderWebhookRequest struct {
	Username  string                 `json:"username"`
	Text      string                 `json:"text"`
	Reminders []ReminderWebhookEntry `json:"reminders"`
}

const webhookTimeout = 10 * time.Second

// NotifyReminderWebhook posts a batch of due reminders to an external
// webhook. Delivery is best effort at the collaborator boundary; the
// reminders stay pending until a client acknowledges them.
func NotifyReminderWebhook(webhookURL string, reminders []models.Reminder) error {
	if webhookURL == "" || len(reminders) == 0 {
		return nil
	}

	entries := make([]ReminderWebhookEntry, 0, len(reminders))
	for _, reminder := range reminders {
		entries = append(entries, ReminderWebhookEntry{
			ReminderID:   reminder.ID,
			EventID:      reminder.EventID,
			UserID:       reminder.UserID,
			ReminderTime: reminder.ReminderTime,
			Message:      reminder.Message,
		})
	}

	payload := ReminderWebhookRequest{
		Username:  "Calendar Reminders",
		Text:      fmt.Sprintf("%d reminder(s) due", len(entries)),
		Reminders: entries,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	client := &http.Client{Timeout: webhookTimeout}
	resp, err := client.Post(webhookURL, "application/json", bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to send reminder webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("reminder webhook returned status %d", resp.StatusCode)
	}
	return nil
}
