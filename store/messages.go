package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Message is one conversation turn. History is append-only and ordered by
// timestamp.
type Message struct {
	ID          int64
	Content     string
	Participant string
	Timestamp   time.Time
}

type MessageStore interface {
	Append(ctx context.Context, content, participant string) (Message, error)
	ListAll(ctx context.Context) ([]Message, error)
}

type PostgresMessageStore struct {
	pool *pgxpool.Pool
}

func NewPostgresMessageStore(pool *pgxpool.Pool) *PostgresMessageStore {
	return &PostgresMessageStore{pool: pool}
}

func (s *PostgresMessageStore) Append(ctx context.Context, content, participant string) (Message, error) {
	if s.pool == nil {
		return Message{}, fmt.Errorf("postgres pool is nil")
	}
	if participant == "" {
		participant = "user"
	}

	var participantID int64
	// Upsert so RETURNING yields the id for both the new and existing row.
	err := s.pool.QueryRow(ctx, `
		INSERT INTO participants (name) VALUES ($1)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id
	`, participant).Scan(&participantID)
	if err != nil {
		return Message{}, fmt.Errorf("upsert participant: %w", err)
	}

	msg := Message{Content: content, Participant: participant}
	err = s.pool.QueryRow(ctx, `
		INSERT INTO messages (content, participant_id, created_at)
		VALUES ($1, $2, NOW())
		RETURNING id, created_at
	`, content, participantID).Scan(&msg.ID, &msg.Timestamp)
	if err != nil {
		return Message{}, fmt.Errorf("insert message: %w", err)
	}

	return msg, nil
}

func (s *PostgresMessageStore) ListAll(ctx context.Context) ([]Message, error) {
	if s.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := s.pool.Query(ctx, `
		SELECT m.id, m.content, p.name, m.created_at
		FROM messages m
		JOIN participants p ON p.id = m.participant_id
		ORDER BY m.created_at, m.id
	`)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	messages := make([]Message, 0)
	for rows.Next() {
		var msg Message
		if scanErr := rows.Scan(&msg.ID, &msg.Content, &msg.Participant, &msg.Timestamp); scanErr != nil {
			return nil, fmt.Errorf("scan message: %w", scanErr)
		}
		messages = append(messages, msg)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return messages, nil
}

var _ MessageStore = (*PostgresMessageStore)(nil)
