package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cidadao-inteligente/api/internal/chat"
)

// HistoryStore is the PostgreSQL implementation of chat.HistoryStore.
type HistoryStore struct {
	pool *pgxpool.Pool
}

// NewHistoryStore creates a history store over the pool.
func NewHistoryStore(pool *pgxpool.Pool) *HistoryStore {
	if pool == nil {
		panic("storage: pgx pool is required")
	}
	return &HistoryStore{pool: pool}
}

// Insert implements chat.HistoryStore.
func (s *HistoryStore) Insert(ctx context.Context, entry chat.Entry) error {
	const query = `
		INSERT INTO chat_history (id, user_id, topic, session_id, user_message, assistant_message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	var sessionID *string
	if entry.SessionID != "" {
		sessionID = &entry.SessionID
	}
	_, err := s.pool.Exec(ctx, query,
		uuid.New(),
		entry.UserID,
		string(entry.Topic),
		sessionID,
		entry.UserMessage,
		entry.AssistantMessage,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("storage: failed to insert chat history: %w", err)
	}
	return nil
}
