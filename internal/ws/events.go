package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"
)

// RoomEventsChannel carries room changes made outside the server process
const RoomEventsChannel = "room_events"

// RoomEventDeleted is published after a room is removed from the store
const RoomEventDeleted = "room_deleted"

// RoomEvent is the payload on RoomEventsChannel
type RoomEvent struct {
	Type   string `json:"type"`
	RoomID string `json:"roomId"`
}

// PublishRoomDeleted announces that roomID was removed and returns the
// number of subscribers that received it
func PublishRoomDeleted(ctx context.Context, rdb *redis.Client, roomID string) (int64, error) {
	b, err := json.Marshal(RoomEvent{Type: RoomEventDeleted, RoomID: roomID})
	if err != nil {
		return 0, err
	}
	n, err := rdb.Publish(ctx, RoomEventsChannel, b).Result()
	if err != nil {
		return 0, fmt.Errorf("publish %s: %w", RoomEventsChannel, err)
	}
	return n, nil
}

// StartRoomEventSubscriber listens on RoomEventsChannel until ctx is done
// and calls onDeleted for every room_deleted event
func StartRoomEventSubscriber(ctx context.Context, rdb *redis.Client, onDeleted func(roomID string)) {
	if rdb == nil {
		log.Println("[EVENTS] Redis client not set; room event subscriber not started")
		return
	}

	pubsub := rdb.Subscribe(ctx, RoomEventsChannel)
	ch := pubsub.Channel()
	go func() {
		defer pubsub.Close()
		log.Printf("[EVENTS] %s subscriber started", RoomEventsChannel)
		for {
			select {
			case <-ctx.Done():
				log.Printf("[EVENTS] %s subscriber stopping", RoomEventsChannel)
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				handleRoomEvent(msg.Payload, onDeleted)
			}
		}
	}()
}

func handleRoomEvent(payload string, onDeleted func(roomID string)) {
	var ev RoomEvent
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		log.Printf("[EVENTS] invalid event payload: %v", err)
		return
	}
	switch ev.Type {
	case RoomEventDeleted:
		if ev.RoomID == "" {
			log.Printf("[EVENTS] %s without roomId", ev.Type)
			return
		}
		log.Printf("[EVENTS] room %s deleted elsewhere", ev.RoomID)
		onDeleted(ev.RoomID)
	default:
		log.Printf("[EVENTS] ignoring event type %q", ev.Type)
	}
}
