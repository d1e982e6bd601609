package queue

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationEnqueueGetPending(t *testing.T) {
	q, err := NewNotificationQueue(t.TempDir())
	require.NoError(t, err)

	notifID, err := q.Enqueue(777001, 42, true, "trade filled", map[string]string{
		"ticket": "1000123",
	})
	require.NoError(t, err)

	pending, err := q.GetPending()
	require.NoError(t, err)
	require.Len(t, pending, 1)

	notif := pending[0]
	assert.Equal(t, notifID, notif.NotificationID)
	assert.Equal(t, int64(777001), notif.RecipientID)
	assert.Equal(t, int64(42), notif.TradeID)
	assert.True(t, notif.Success)
	assert.Equal(t, "trade filled", notif.Message)
	assert.Equal(t, "1000123", notif.Details["ticket"])
	assert.False(t, notif.Sent)
}

func TestNotificationMarkSent(t *testing.T) {
	q, err := NewNotificationQueue(t.TempDir())
	require.NoError(t, err)

	notifID, err := q.Enqueue(777001, 42, false, "trade failed", nil)
	require.NoError(t, err)

	require.NoError(t, q.MarkSent(notifID))
	assert.Equal(t, 0, q.PendingCount())

	// Acknowledging twice reports the entry as gone
	err = q.MarkSent(notifID)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestNotificationCreationOrder(t *testing.T) {
	q, err := NewNotificationQueue(t.TempDir())
	require.NoError(t, err)

	var ids []string
	for i := int64(0); i < 4; i++ {
		id, err := q.Enqueue(777001, i, true, "ok", nil)
		require.NoError(t, err)
		ids = append(ids, id)
	}

	pending, err := q.GetPending()
	require.NoError(t, err)
	require.Len(t, pending, 4)
	for i, notif := range pending {
		assert.Equal(t, ids[i], notif.NotificationID)
	}
}

func TestNotificationCorruptEntrySkipped(t *testing.T) {
	dir := t.TempDir()
	q, err := NewNotificationQueue(dir)
	require.NoError(t, err)

	_, err = q.Enqueue(777001, 1, true, "ok", nil)
	require.NoError(t, err)

	// Hand-written garbage alongside a valid entry
	require.NoError(t, os.WriteFile(filepath.Join(dir, "00000000000000000000000000.json"), []byte("{not json"), 0644))

	pending, err := q.GetPending()
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}
