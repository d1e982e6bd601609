package notifications

// Notifier delivers an execution outcome to a user over some chat
// channel.
type Notifier interface {
	// Send delivers message to the given recipient. A nil return means
	// delivery observably succeeded and the notification may be
	// acknowledged.
	Send(recipientID int64, message string) error
}
