package queue

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"time"

	engerr "github.com/ducminhle1904/mt5-trade-engine/internal/errors"
)

// Notification is an execution outcome waiting for delivery to the user.
// Deleting the file IS the delivery acknowledgment: a crash between send
// and MarkSent redelivers (at-least-once), it never loses.
type Notification struct {
	NotificationID string            `json:"notification_id"`
	RecipientID    int64             `json:"recipient_id"`
	TradeID        int64             `json:"trade_id"`
	Success        bool              `json:"success"`
	Message        string            `json:"message"`
	Details        map[string]string `json:"details"`
	CreatedAt      time.Time         `json:"created_at"`
	Sent           bool              `json:"sent"`
}

// NotificationQueue is the durable outbound side of the pipeline: the
// worker enqueues one notification per processed command, and the delivery
// channel drains it. Same file-per-entry durability shape as CommandQueue,
// directionally reversed.
type NotificationQueue struct {
	dir string
}

// NewNotificationQueue opens (creating if needed) a notification queue
// rooted at dir.
func NewNotificationQueue(dir string) (*NotificationQueue, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, engerr.NewDurabilityError("notification_queue", "create_dir", err)
	}
	return &NotificationQueue{dir: dir}, nil
}

// Dir returns the queue directory.
func (q *NotificationQueue) Dir() string {
	return q.dir
}

// Enqueue durably records an execution outcome for delivery.
func (q *NotificationQueue) Enqueue(recipientID, tradeID int64, success bool, message string, details map[string]string) (string, error) {
	notifID := newID()

	if details == nil {
		details = map[string]string{}
	}

	notif := Notification{
		NotificationID: notifID,
		RecipientID:    recipientID,
		TradeID:        tradeID,
		Success:        success,
		Message:        message,
		Details:        details,
		CreatedAt:      time.Now().UTC(),
	}

	if err := writeEntry(q.dir, notifID, notif); err != nil {
		return "", engerr.NewDurabilityError("notification_queue", "enqueue", err)
	}

	return notifID, nil
}

// GetPending returns all undelivered notifications in creation order.
// Corrupt entries are skipped, not fatal: one bad file must not wedge
// delivery of everything behind it.
func (q *NotificationQueue) GetPending() ([]Notification, error) {
	ids, err := listEntries(q.dir)
	if err != nil {
		return nil, err
	}

	notifications := make([]Notification, 0, len(ids))
	for _, id := range ids {
		data, err := os.ReadFile(filepath.Join(q.dir, id+entryExt))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, engerr.NewDurabilityError("notification_queue", "get_pending", err)
		}

		var notif Notification
		if err := json.Unmarshal(data, &notif); err != nil {
			log.Printf("notification_queue: skipping corrupt entry %s: %v", id, err)
			continue
		}

		notifications = append(notifications, notif)
	}

	return notifications, nil
}

// MarkSent acknowledges delivery by destroying the entry. Callers must
// only invoke it after delivery has observably succeeded. Returns
// ErrNotFound when the notification no longer exists.
func (q *NotificationQueue) MarkSent(notificationID string) error {
	path := filepath.Join(q.dir, notificationID+entryExt)

	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return engerr.NewDurabilityError("notification_queue", "mark_sent", err)
	}

	return nil
}

// PendingCount returns the number of undelivered notifications.
func (q *NotificationQueue) PendingCount() int {
	ids, err := listEntries(q.dir)
	if err != nil {
		return 0
	}
	return len(ids)
}

// Clear deletes every pending notification. Testing and emergency cleanup
// only.
func (q *NotificationQueue) Clear() error {
	return clearEntries(q.dir)
}
