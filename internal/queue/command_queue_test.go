package queue

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ducminhle1904/mt5-trade-engine/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCommand() types.TradeCommand {
	return types.TradeCommand{
		CommandID:   "cmd-1",
		UserID:      777001,
		AccountID:   1,
		OrderSide:   types.SideBuy,
		Instrument:  "XAUUSD",
		EntryPrice:  2000.00,
		StopPrice:   1995.00,
		TargetPrice: 2015.00,
		RiskUSD:     50,
		EmotionTag:  "calm",
		SetupTag:    "FZ1",
		CreatedAt:   time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestEnqueueDequeueRoundTrip(t *testing.T) {
	q, err := NewCommandQueue(t.TempDir())
	require.NoError(t, err)

	cmd := testCommand()
	queueID, err := q.Enqueue(cmd)
	require.NoError(t, err)
	require.NotEmpty(t, queueID)

	env, err := q.Dequeue(queueID)
	require.NoError(t, err)
	assert.Equal(t, queueID, env.QueueID)
	assert.Equal(t, "pending", env.Status)
	assert.Equal(t, cmd, env.Command)

	// Dequeue is destructive: the id is gone from the pending set
	pending, err := q.ListPending()
	require.NoError(t, err)
	assert.NotContains(t, pending, queueID)
}

func TestDequeueNotFound(t *testing.T) {
	q, err := NewCommandQueue(t.TempDir())
	require.NoError(t, err)

	_, err = q.Dequeue("01JX0000000000000000000000")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestDequeueTwiceLosesRace(t *testing.T) {
	q, err := NewCommandQueue(t.TempDir())
	require.NoError(t, err)

	queueID, err := q.Enqueue(testCommand())
	require.NoError(t, err)

	_, err = q.Dequeue(queueID)
	require.NoError(t, err)

	_, err = q.Dequeue(queueID)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestListPendingOldestFirst(t *testing.T) {
	q, err := NewCommandQueue(t.TempDir())
	require.NoError(t, err)

	var ids []string
	for i := 0; i < 5; i++ {
		id, err := q.Enqueue(testCommand())
		require.NoError(t, err)
		ids = append(ids, id)
	}

	pending, err := q.ListPending()
	require.NoError(t, err)
	assert.Equal(t, ids, pending, "ULID ids enqueued in sequence must list in order")
	assert.Equal(t, 5, q.PendingCount())
}

func TestPendingSurvivesReopen(t *testing.T) {
	dir := t.TempDir()

	q, err := NewCommandQueue(dir)
	require.NoError(t, err)
	queueID, err := q.Enqueue(testCommand())
	require.NoError(t, err)

	// A fresh queue over the same directory simulates a process restart:
	// the enqueued command must still be pending and retrievable.
	q2, err := NewCommandQueue(dir)
	require.NoError(t, err)

	pending, err := q2.ListPending()
	require.NoError(t, err)
	require.Contains(t, pending, queueID)

	env, err := q2.Dequeue(queueID)
	require.NoError(t, err)
	assert.Equal(t, testCommand(), env.Command)
}

func TestPartialWriteNeverVisible(t *testing.T) {
	dir := t.TempDir()
	q, err := NewCommandQueue(dir)
	require.NoError(t, err)

	// A leftover temp file (crash mid-write) must not show up as pending.
	tmp := filepath.Join(dir, ".01JXDEADBEEF.tmp")
	require.NoError(t, os.WriteFile(tmp, []byte(`{"queue_id": "trunc`), 0644))

	pending, err := q.ListPending()
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestClear(t *testing.T) {
	q, err := NewCommandQueue(t.TempDir())
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := q.Enqueue(testCommand())
		require.NoError(t, err)
	}
	require.Equal(t, 3, q.PendingCount())

	require.NoError(t, q.Clear())
	assert.Equal(t, 0, q.PendingCount())
}
