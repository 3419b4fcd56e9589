package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// EntryType distinguishes operator turns, engine replies and progress ticks.
type EntryType string

const (
	EntryUser     EntryType = "user"
	EntryBot      EntryType = "bot"
	EntryProgress EntryType = "progress"
)

// Action is a recovery action offered alongside an error entry.
type Action struct {
	Kind  string `json:"kind"` // "retry" or "cancel"
	Label string `json:"label"`
}

// FileAnalysis is the automation payload embedded in the entry that started
// a purchase-order workflow. Completed is flipped once the order is created;
// it is the only mutation an appended entry ever receives.
type FileAnalysis struct {
	FileName  string `json:"fileName,omitempty"`
	ItemCount int    `json:"itemCount"`
	Completed bool   `json:"completed"`
}

// Entry is one workflow event in the conversation. Timestamp (unix millis)
// together with Text forms the deduplication key.
type Entry struct {
	Type      EntryType     `json:"type"`
	Text      string        `json:"text"`
	Timestamp int64         `json:"timestamp"`
	Analysis  *FileAnalysis `json:"fileAnalysis,omitempty"`
	Actions   []Action      `json:"actions,omitempty"`
}

// NewEntry builds an entry stamped with the current time.
func NewEntry(t EntryType, text string) Entry {
	return Entry{Type: t, Text: text, Timestamp: time.Now().UnixMilli()}
}

// RetryCancelActions is the standard recovery pair attached to recoverable
// error entries.
func RetryCancelActions() []Action {
	return []Action{
		{Kind: "retry", Label: "Retry"},
		{Kind: "cancel", Label: "Cancel workflow"},
	}
}

// Log is an append-only, deduplicated sequence of workflow events, persisted
// through a Store on every append so it survives process restarts.
type Log struct {
	mu      sync.Mutex
	store   Store
	key     string
	logger  *slog.Logger
	entries []Entry
}

// NewLog restores the last persisted log for the session, or initializes an
// empty one. Corrupt or unreadable persisted state is discarded and treated
// as empty — restoring the log is never fatal.
func NewLog(ctx context.Context, store Store, sessionID string, logger *slog.Logger) *Log {
	l := &Log{store: store, key: "conversation:" + sessionID, logger: logger}

	data, ok, err := store.Get(ctx, l.key)
	if err != nil {
		logger.Warn("conversation restore failed, starting empty", "session", sessionID, "error", err)
		return l
	}
	if !ok {
		return l
	}
	if err := json.Unmarshal(data, &l.entries); err != nil {
		logger.Warn("discarding corrupt conversation state", "session", sessionID, "error", err)
		l.entries = nil
	}
	return l
}

// Append adds the entry and persists the full log. An entry whose
// (timestamp, text) pair already exists is silently dropped; the return
// value reports whether the entry was stored.
func (l *Log) Append(ctx context.Context, e Entry) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, existing := range l.entries {
		if existing.Timestamp == e.Timestamp && existing.Text == e.Text {
			return false
		}
	}
	l.entries = append(l.entries, e)
	l.persist(ctx)
	return true
}

// Entries returns a copy of the current log.
func (l *Log) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// MarkAnalysisCompleted flips the Completed flag on the entry carrying the
// given timestamp's file analysis, once the order has been created.
func (l *Log) MarkAnalysisCompleted(ctx context.Context, timestamp int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := range l.entries {
		if l.entries[i].Timestamp == timestamp && l.entries[i].Analysis != nil {
			l.entries[i].Analysis.Completed = true
			l.persist(ctx)
			return nil
		}
	}
	return fmt.Errorf("no analysis entry at timestamp %d", timestamp)
}

// ClearAutomationArtifacts removes entries carrying file-analysis or action
// payloads while preserving plain user/bot turns, so a restarted session
// cannot replay a stale purchase-order preview.
func (l *Log) ClearAutomationArtifacts(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()

	kept := l.entries[:0]
	for _, e := range l.entries {
		stalePreview := e.Analysis != nil && !e.Analysis.Completed
		if stalePreview || len(e.Actions) > 0 || e.Type == EntryProgress {
			continue
		}
		kept = append(kept, e)
	}
	l.entries = kept
	l.persist(ctx)
}

// persist writes the full log to the store. Persistence failures are logged
// and swallowed: losing a write degrades restart recovery, it must not fail
// the workflow. Caller holds l.mu.
func (l *Log) persist(ctx context.Context) {
	data, err := json.Marshal(l.entries)
	if err != nil {
		l.logger.Error("conversation marshal failed", "key", l.key, "error", err)
		return
	}
	if err := l.store.Set(ctx, l.key, data); err != nil {
		l.logger.Warn("conversation persist failed", "key", l.key, "error", err)
	}
}
