package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/citymemory/backend/internal/models"
	"github.com/redis/go-redis/v9"
)

const (
	roomKeyPrefix = "room:"
	roomIndexKey  = "rooms:by_created"

	maxUpdateRetries = 5
)

// RedisStore keeps each room in a hash with one JSON-encoded entry per
// top-level field. A sorted set scored by creation time orders listings.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore wraps a connected client
func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func roomKey(id string) string {
	return roomKeyPrefix + id
}

// encodeRoom splits a room into hash entries keyed by JSON field name
func encodeRoom(room *models.Room) (map[string]any, error) {
	doc, err := json.Marshal(room)
	if err != nil {
		return nil, err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(doc, &raw); err != nil {
		return nil, err
	}
	out := make(map[string]any, len(raw))
	for k, v := range raw {
		out[k] = string(v)
	}
	return out, nil
}

func decodeRoom(fields map[string]string) (*models.Room, error) {
	raw := make(map[string]json.RawMessage, len(fields))
	for k, v := range fields {
		raw[k] = json.RawMessage(v)
	}
	doc, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	var room models.Room
	if err := json.Unmarshal(doc, &room); err != nil {
		return nil, err
	}
	return &room, nil
}

func (s *RedisStore) Put(ctx context.Context, room *models.Room) error {
	values, err := encodeRoom(room)
	if err != nil {
		return fmt.Errorf("encode room %s: %w", room.ID, err)
	}
	key := roomKey(room.ID)
	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, values)
		pipe.ZAdd(ctx, roomIndexKey, redis.Z{Score: float64(room.CreatedAt.UnixNano()), Member: room.ID})
		return nil
	})
	return err
}

func (s *RedisStore) Get(ctx context.Context, id string) (*models.Room, error) {
	fields, err := s.rdb.HGetAll(ctx, roomKey(id)).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, ErrNotFound
	}
	return decodeRoom(fields)
}

func (s *RedisStore) ListWaiting(ctx context.Context) ([]*models.Room, error) {
	all, err := s.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, r := range all {
		if r.Status == models.StatusWaiting {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *RedisStore) ListAll(ctx context.Context) ([]*models.Room, error) {
	ids, err := s.rdb.ZRevRange(ctx, roomIndexKey, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []*models.Room{}, nil
	}

	cmds := make([]*redis.MapStringStringCmd, len(ids))
	_, err = s.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = pipe.HGetAll(ctx, roomKey(id))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	rooms := make([]*models.Room, 0, len(ids))
	for i, cmd := range cmds {
		fields := cmd.Val()
		if len(fields) == 0 {
			// index entry outlived its hash
			s.rdb.ZRem(ctx, roomIndexKey, ids[i])
			continue
		}
		r, err := decodeRoom(fields)
		if err != nil {
			return nil, fmt.Errorf("decode room %s: %w", ids[i], err)
		}
		rooms = append(rooms, r)
	}
	sortNewestFirst(rooms)
	return rooms, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) (bool, error) {
	var del *redis.IntCmd
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, roomKey(id))
		pipe.ZRem(ctx, roomIndexKey, id)
		return nil
	})
	if err != nil {
		return false, err
	}
	return del.Val() > 0, nil
}

// Update issues one HSET of the named fields inside a WATCH transaction
// so a room deleted concurrently is never resurrected as a partial hash.
func (s *RedisStore) Update(ctx context.Context, room *models.Room, fields ...Field) error {
	values := make(map[string]any, len(fields)+2)
	for _, f := range fields {
		v, err := fieldValue(room, f)
		if err != nil {
			return err
		}
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode %s: %w", f, err)
		}
		values[string(f)] = string(b)
	}
	version, _ := json.Marshal(room.Version)
	updatedAt, _ := json.Marshal(room.UpdatedAt)
	values["version"] = string(version)
	values["updatedAt"] = string(updatedAt)

	key := roomKey(room.ID)
	txf := func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, values)
			return nil
		})
		return err
	}

	for i := 0; i < maxUpdateRetries; i++ {
		err := s.rdb.Watch(ctx, txf, key)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return fmt.Errorf("update room %s: too much contention", room.ID)
}
