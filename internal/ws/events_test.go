package ws

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHandleRoomEvent(t *testing.T) {
	var got []string
	onDeleted := func(id string) { got = append(got, id) }

	handleRoomEvent(`{"type":"room_deleted","roomId":"room_1"}`, onDeleted)
	handleRoomEvent(`{"type":"room_deleted"}`, onDeleted)
	handleRoomEvent(`{"type":"room_renamed","roomId":"room_2"}`, onDeleted)
	handleRoomEvent(`garbage`, onDeleted)

	assert.Equal(t, []string{"room_1"}, got)
}
