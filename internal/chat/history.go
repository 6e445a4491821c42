package chat

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Entry is one question/answer pair in the chat history.
type Entry struct {
	UserID           uuid.UUID
	Topic            Topic
	SessionID        string
	UserMessage      string
	AssistantMessage string
	CreatedAt        time.Time
}

// HistoryStore persists chat history. Writes are best-effort from the
// service's point of view; a failed insert is logged, never surfaced.
type HistoryStore interface {
	Insert(ctx context.Context, entry Entry) error
}
