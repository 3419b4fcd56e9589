package conversation

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists conversation payloads in the conversation_logs
// table (see migrations/001_conversation_logs.sql).
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx,
		"SELECT payload FROM conversation_logs WHERE session_key = $1", key,
	).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to load conversation %s: %w", key, err)
	}
	return payload, true, nil
}

func (s *PostgresStore) Set(ctx context.Context, key string, data []byte) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO conversation_logs (session_key, payload, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (session_key) DO UPDATE SET payload = $2, updated_at = NOW()
	`, key, data)
	if err != nil {
		return fmt.Errorf("failed to persist conversation %s: %w", key, err)
	}
	return nil
}

func (s *PostgresStore) Clear(ctx context.Context, key string) error {
	if _, err := s.pool.Exec(ctx, "DELETE FROM conversation_logs WHERE session_key = $1", key); err != nil {
		return fmt.Errorf("failed to clear conversation %s: %w", key, err)
	}
	return nil
}
