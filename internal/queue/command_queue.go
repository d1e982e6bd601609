package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	engerr "github.com/ducminhle1904/mt5-trade-engine/internal/errors"
	"github.com/ducminhle1904/mt5-trade-engine/pkg/types"
)

// ErrNotFound is returned when a queue entry does not exist, typically
// because another call already dequeued it.
var ErrNotFound = errors.New("queue: entry not found")

const (
	entryExt = ".json"
	tmpExt   = ".tmp"
)

// Envelope wraps a TradeCommand with queue metadata. Presence of the
// envelope file in the queue directory IS the pending state; there is no
// separate done marker.
type Envelope struct {
	QueueID    string             `json:"queue_id"`
	EnqueuedAt time.Time          `json:"enqueued_at"`
	Status     string             `json:"status"`
	Command    types.TradeCommand `json:"command"`
}

// CommandQueue is a durable file-backed FIFO of pending trade commands.
// One JSON file per command; enqueue writes a temp file and atomically
// renames it, so a partial write is never visible as a valid entry.
//
// Single consumer by design: there is no lease or visibility timeout, and
// Dequeue is the one destructive claim operation. Running two workers
// against the same directory is a deployment error.
type CommandQueue struct {
	dir string
}

// NewCommandQueue opens (creating if needed) a command queue rooted at dir.
func NewCommandQueue(dir string) (*CommandQueue, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, engerr.NewDurabilityError("command_queue", "create_dir", err)
	}
	return &CommandQueue{dir: dir}, nil
}

// Dir returns the queue directory.
func (q *CommandQueue) Dir() string {
	return q.dir
}

// Enqueue durably appends a command and returns its queue id. A successful
// return guarantees the command survives a crash of the calling process.
func (q *CommandQueue) Enqueue(cmd types.TradeCommand) (string, error) {
	queueID := newID()

	env := Envelope{
		QueueID:    queueID,
		EnqueuedAt: time.Now().UTC(),
		Status:     "pending",
		Command:    cmd,
	}

	if err := writeEntry(q.dir, queueID, env); err != nil {
		return "", engerr.NewDurabilityError("command_queue", "enqueue", err)
	}

	return queueID, nil
}

// Dequeue destructively claims the entry with the given queue id. Returns
// ErrNotFound when the entry does not exist (already claimed, or never
// enqueued). After Dequeue returns, the id no longer appears in
// ListPending and ownership of the command transfers to the caller.
func (q *CommandQueue) Dequeue(queueID string) (*Envelope, error) {
	path := filepath.Join(q.dir, queueID+entryExt)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, engerr.NewDurabilityError("command_queue", "dequeue", err)
	}

	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, engerr.NewDurabilityError("command_queue", "dequeue",
			fmt.Errorf("corrupt entry %s: %w", queueID, err))
	}

	if err := os.Remove(path); err != nil {
		return nil, engerr.NewDurabilityError("command_queue", "dequeue", err)
	}

	return &env, nil
}

// ListPending returns pending queue ids, oldest first. Ordering is
// lexicographic on the ULID id (creation time, random tiebreak), not
// insertion order: interleaved enqueuers with clock skew sort by their
// wall-clock timestamps.
func (q *CommandQueue) ListPending() ([]string, error) {
	return listEntries(q.dir)
}

// PendingCount returns the number of pending commands.
func (q *CommandQueue) PendingCount() int {
	ids, err := q.ListPending()
	if err != nil {
		return 0
	}
	return len(ids)
}

// Clear deletes every pending command. Testing and emergency cleanup only.
func (q *CommandQueue) Clear() error {
	return clearEntries(q.dir)
}

// writeEntry persists v as <id>.json in dir via write-temp-fsync-rename.
func writeEntry(dir, id string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	tmpPath := filepath.Join(dir, "."+id+tmpExt)
	finalPath := filepath.Join(dir, id+entryExt)

	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}

	if err := os.Rename(tmpPath, finalPath); err != nil {
		os.Remove(tmpPath)
		return err
	}

	return nil
}

// listEntries returns entry ids in dir sorted lexicographically.
func listEntries(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*"+entryExt))
	if err != nil {
		return nil, engerr.NewDurabilityError("queue", "list", err)
	}

	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, strings.TrimSuffix(filepath.Base(m), entryExt))
	}
	sort.Strings(ids)

	return ids, nil
}

// clearEntries removes every entry file in dir.
func clearEntries(dir string) error {
	matches, err := filepath.Glob(filepath.Join(dir, "*"+entryExt))
	if err != nil {
		return engerr.NewDurabilityError("queue", "clear", err)
	}
	for _, m := range matches {
		if err := os.Remove(m); err != nil {
			return engerr.NewDurabilityError("queue", "clear", err)
		}
	}
	return nil
}
