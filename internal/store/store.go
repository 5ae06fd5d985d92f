// Package store persists rooms. Every backend stores the full room
// document and supports partial updates of named top-level fields.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/citymemory/backend/internal/models"
)

// ErrNotFound is returned when a room id has no document
var ErrNotFound = errors.New("room not found")

// Field names a top-level room field that Update may write
type Field string

const (
	FieldPlayers   Field = "players"
	FieldStatus    Field = "status"
	FieldGameState Field = "gameState"
	FieldHost      Field = "host"
)

// Store is the room document store.
//
// Update writes only the named fields plus version and updatedAt, so two
// operations touching disjoint fields never clobber each other.
type Store interface {
	Put(ctx context.Context, room *models.Room) error
	Get(ctx context.Context, id string) (*models.Room, error)
	ListWaiting(ctx context.Context) ([]*models.Room, error)
	ListAll(ctx context.Context) ([]*models.Room, error)
	Delete(ctx context.Context, id string) (bool, error)
	Update(ctx context.Context, room *models.Room, fields ...Field) error
}

// fieldValue returns the value of f on room
func fieldValue(room *models.Room, f Field) (any, error) {
	switch f {
	case FieldPlayers:
		return room.Players, nil
	case FieldStatus:
		return room.Status, nil
	case FieldGameState:
		return room.GameState, nil
	case FieldHost:
		return room.Host, nil
	default:
		return nil, fmt.Errorf("unknown room field %q", f)
	}
}

// applyFields copies the named fields from src onto dst along with the
// version and update time
func applyFields(dst, src *models.Room, fields []Field) error {
	for _, f := range fields {
		switch f {
		case FieldPlayers:
			dst.Players = src.Clone().Players
		case FieldStatus:
			dst.Status = src.Status
		case FieldGameState:
			dst.GameState = src.GameState.Clone()
		case FieldHost:
			dst.Host = src.Host
		default:
			return fmt.Errorf("unknown room field %q", f)
		}
	}
	dst.Version = src.Version
	dst.UpdatedAt = src.UpdatedAt
	return nil
}
