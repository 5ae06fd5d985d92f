package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/citymemory/backend/internal/models"
	"github.com/jmoiron/sqlx"
)

// PostgresStore keeps each room as a JSONB document. status and the
// timestamps are mirrored into columns for listing.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore wraps a connected pool. The rooms table must exist.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type roomRow struct {
	ID  string `db:"id"`
	Doc []byte `db:"doc"`
}

func (s *PostgresStore) Put(ctx context.Context, room *models.Room) error {
	doc, err := json.Marshal(room)
	if err != nil {
		return fmt.Errorf("encode room %s: %w", room.ID, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO rooms (id, status, created_at, updated_at, doc)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET status = EXCLUDED.status, updated_at = EXCLUDED.updated_at, doc = EXCLUDED.doc`,
		room.ID, string(room.Status), room.CreatedAt, room.UpdatedAt, doc)
	return err
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*models.Room, error) {
	var row roomRow
	err := s.db.GetContext(ctx, &row, `SELECT id, doc FROM rooms WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return decodeRow(row)
}

func (s *PostgresStore) ListWaiting(ctx context.Context) ([]*models.Room, error) {
	return s.list(ctx, `SELECT id, doc FROM rooms WHERE status = $1 ORDER BY created_at DESC, id DESC`, string(models.StatusWaiting))
}

func (s *PostgresStore) ListAll(ctx context.Context) ([]*models.Room, error) {
	return s.list(ctx, `SELECT id, doc FROM rooms ORDER BY created_at DESC, id DESC`)
}

func (s *PostgresStore) list(ctx context.Context, query string, args ...any) ([]*models.Room, error) {
	var rows []roomRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	rooms := make([]*models.Room, 0, len(rows))
	for _, row := range rows {
		r, err := decodeRow(row)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, r)
	}
	return rooms, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM rooms WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Update merges only the named keys into the stored document in a single
// statement.
func (s *PostgresStore) Update(ctx context.Context, room *models.Room, fields ...Field) error {
	patch := make(map[string]any, len(fields)+2)
	for _, f := range fields {
		v, err := fieldValue(room, f)
		if err != nil {
			return err
		}
		patch[string(f)] = v
	}
	patch["version"] = room.Version
	patch["updatedAt"] = room.UpdatedAt

	b, err := json.Marshal(patch)
	if err != nil {
		return fmt.Errorf("encode patch for room %s: %w", room.ID, err)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE rooms
		SET doc = doc || $2::jsonb,
		    status = COALESCE($2::jsonb->>'status', status),
		    updated_at = $3
		WHERE id = $1`,
		room.ID, string(b), room.UpdatedAt)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func decodeRow(row roomRow) (*models.Room, error) {
	var room models.Room
	if err := json.Unmarshal(row.Doc, &room); err != nil {
		return nil, fmt.Errorf("decode room %s: %w", row.ID, err)
	}
	return &room, nil
}
