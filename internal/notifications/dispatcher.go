package notifications

import (
	"context"
	"log"
	"time"

	"github.com/ducminhle1904/mt5-trade-engine/internal/queue"
)

// Dispatcher drains the notification queue and delivers each entry to its
// recipient. MarkSent runs only after a successful send, so a crash
// between send and acknowledgment redelivers: duplicate "trade executed"
// messages are tolerable, lost ones are not.
type Dispatcher struct {
	queue    *queue.NotificationQueue
	notifier Notifier
	interval time.Duration
}

// NewDispatcher creates a dispatcher polling the queue at the given
// interval.
func NewDispatcher(q *queue.NotificationQueue, notifier Notifier, interval time.Duration) *Dispatcher {
	if interval <= 0 {
		interval = time.Second
	}
	return &Dispatcher{
		queue:    q,
		notifier: notifier,
		interval: interval,
	}
}

// Run polls until the context is canceled.
func (d *Dispatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := d.DispatchPending(); err != nil {
				log.Printf("dispatcher: %v", err)
			}
		}
	}
}

// DispatchPending delivers every pending notification once. A failed send
// leaves the entry queued for the next cycle; it is never acknowledged
// blind.
func (d *Dispatcher) DispatchPending() error {
	pending, err := d.queue.GetPending()
	if err != nil {
		return err
	}

	for _, notif := range pending {
		if err := d.notifier.Send(notif.RecipientID, notif.Message); err != nil {
			log.Printf("dispatcher: delivery to %d failed, will retry: %v", notif.RecipientID, err)
			continue
		}

		if err := d.queue.MarkSent(notif.NotificationID); err != nil {
			log.Printf("dispatcher: acknowledge %s failed: %v", notif.NotificationID, err)
		}
	}

	return nil
}
