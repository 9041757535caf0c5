package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"chatroom/internal/models"
	"chatroom/pkg/logger"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(context.Background(), databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Test connection
	if err := pool.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &PostgresStore{pool: pool}
	if err := s.ensureSchema(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	logger.Info("Connected to database successfully")
	return s, nil
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS participants (
			name      TEXT PRIMARY KEY,
			last_seen TIMESTAMPTZ NOT NULL
		);
		CREATE TABLE IF NOT EXISTS messages (
			seq       BIGSERIAL PRIMARY KEY,
			from_name TEXT NOT NULL,
			to_name   TEXT NOT NULL,
			text      TEXT NOT NULL,
			type      TEXT NOT NULL,
			time      TEXT NOT NULL
		);`
	_, err := s.pool.Exec(ctx, schema)
	return err
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// Participant Repository Implementation
func (s *PostgresStore) CreateParticipant(ctx context.Context, name string, lastSeen time.Time) error {
	query := `INSERT INTO participants (name, last_seen) VALUES ($1, $2)`
	_, err := s.pool.Exec(ctx, query, name, lastSeen)
	return err
}

func (s *PostgresStore) GetParticipant(ctx context.Context, name string) (*models.Participant, error) {
	query := `SELECT name, last_seen FROM participants WHERE name = $1`

	p := &models.Participant{}
	err := s.pool.QueryRow(ctx, query, name).Scan(&p.Name, &p.LastSeen)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return p, nil
}

func (s *PostgresStore) ListParticipants(ctx context.Context) ([]*models.Participant, error) {
	query := `SELECT name, last_seen FROM participants ORDER BY name`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var participants []*models.Participant
	for rows.Next() {
		p := &models.Participant{}
		if err := rows.Scan(&p.Name, &p.LastSeen); err != nil {
			return nil, err
		}
		participants = append(participants, p)
	}

	return participants, rows.Err()
}

func (s *PostgresStore) TouchParticipant(ctx context.Context, name string, lastSeen time.Time) error {
	query := `UPDATE participants SET last_seen = $2 WHERE name = $1`

	tag, err := s.pool.Exec(ctx, query, name, lastSeen)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListStaleParticipants(ctx context.Context, cutoff time.Time) ([]*models.Participant, error) {
	query := `SELECT name, last_seen FROM participants WHERE last_seen <= $1`

	rows, err := s.pool.Query(ctx, query, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stale []*models.Participant
	for rows.Next() {
		p := &models.Participant{}
		if err := rows.Scan(&p.Name, &p.LastSeen); err != nil {
			return nil, err
		}
		stale = append(stale, p)
	}

	return stale, rows.Err()
}

func (s *PostgresStore) DeleteStaleParticipants(ctx context.Context, cutoff time.Time) error {
	// The condition is applied here again, so a heartbeat that landed
	// after the stale read keeps its participant alive.
	query := `DELETE FROM participants WHERE last_seen <= $1`
	_, err := s.pool.Exec(ctx, query, cutoff)
	return err
}

// Message Repository Implementation
func (s *PostgresStore) AppendMessage(ctx context.Context, msg *models.Message) error {
	query := `INSERT INTO messages (from_name, to_name, text, type, time) VALUES ($1, $2, $3, $4, $5)`
	_, err := s.pool.Exec(ctx, query, msg.From, msg.To, msg.Text, msg.Type, msg.Time)
	return err
}

func (s *PostgresStore) AppendMessages(ctx context.Context, msgs []*models.Message) error {
	if len(msgs) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	query := `INSERT INTO messages (from_name, to_name, text, type, time) VALUES ($1, $2, $3, $4, $5)`
	for _, msg := range msgs {
		if _, err := tx.Exec(ctx, query, msg.From, msg.To, msg.Text, msg.Type, msg.Time); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (s *PostgresStore) ListMessages(ctx context.Context) ([]*models.Message, error) {
	query := `SELECT from_name, to_name, text, type, time FROM messages ORDER BY seq`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*models.Message
	for rows.Next() {
		msg := &models.Message{}
		if err := rows.Scan(&msg.From, &msg.To, &msg.Text, &msg.Type, &msg.Time); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}

	return messages, rows.Err()
}
