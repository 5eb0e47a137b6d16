package server

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/npezzotti/go-chatserver/internal/protocol"
)

func TestAddMemberDeduplicates(t *testing.T) {
	room := NewChatRoom(1, protocol.RoomTypeNormal)

	first := &User{Id: 1}
	room.AddMember(first)
	room.AddMember(&User{Id: 1})
	room.AddMember(&User{Id: 2})

	assert.Equal(t, 2, room.NumMembers(), "expected duplicate id to be ignored")
	assert.Same(t, first, room.Members()[0], "expected original member to be kept")
}

func TestRemoveMember(t *testing.T) {
	room := NewChatRoom(1, protocol.RoomTypeNormal)
	room.AddMember(&User{Id: 1})
	room.AddMember(&User{Id: 2})

	room.RemoveMember(1)

	assert.Equal(t, 1, room.NumMembers(), "expected one member to remain")
	assert.False(t, room.HasMember(1), "expected user 1 to be removed")
	assert.True(t, room.HasMember(2), "expected user 2 to remain")

	room.RemoveMember(99)
	assert.Equal(t, 1, room.NumMembers(), "expected removal of unknown id to be a no-op")
}

func TestReplaceMember(t *testing.T) {
	room := NewChatRoom(1, protocol.RoomTypeNormal)
	room.AddMember(&User{Id: 1})
	room.AddMember(&User{Id: 2})

	replacement := &User{Id: 1}
	require.True(t, room.ReplaceMember(replacement), "expected member 1 to be replaced")
	assert.Same(t, replacement, room.Members()[0], "expected replacement to keep its slot")

	assert.False(t, room.ReplaceMember(&User{Id: 99}), "expected replacing a non-member to fail")
	assert.Equal(t, 2, room.NumMembers(), "expected membership size to be unchanged")
}

func TestBroadcast(t *testing.T) {
	cs, db := newTestServer(t)

	alice, aliceLines := newPipeUser(t, cs, 1)
	bob, bobLines := newPipeUser(t, cs, 2)

	room := NewChatRoom(1, protocol.RoomTypeNormal)
	room.AddMember(alice)
	room.AddMember(bob)

	db.On("InsertResponseCommand", mock.Anything).Return(int64(10), nil).Once()
	db.On("InsertResponseCommand", mock.Anything).Return(int64(11), nil).Once()

	room.Broadcast(&protocol.SendMessageCommand{
		BaseCommand: protocol.BaseCommand{
			Action:      protocol.ActionSendMessage,
			RequesterId: 1,
		},
		RoomId:  1,
		Content: "hello",
	})

	var got protocol.SendMessageCommand
	require.NoError(t, json.Unmarshal([]byte(recvLine(t, aliceLines)), &got))
	assert.Equal(t, int64(1), got.RecipientId, "expected frame addressed to alice")
	assert.Equal(t, protocol.StatusNotSent, got.TransmissionStatus, "expected NOT_SENT status")
	require.NotNil(t, got.Id, "expected logged command id on the frame")
	assert.Equal(t, int64(10), *got.Id, "expected alice's copy to carry its own log id")

	require.NoError(t, json.Unmarshal([]byte(recvLine(t, bobLines)), &got))
	assert.Equal(t, int64(2), got.RecipientId, "expected frame addressed to bob")
	assert.Equal(t, int64(11), *got.Id, "expected bob's copy to carry its own log id")
}

func TestBroadcastPersistsForDetachedMembers(t *testing.T) {
	cs, db := newTestServer(t)

	offline := newPlaceholderUser(3, cs, cs.log)
	room := NewChatRoom(1, protocol.RoomTypeNormal)
	room.AddMember(offline)

	db.On("InsertResponseCommand", mock.Anything).Return(int64(20), nil).Once()

	room.Broadcast(&protocol.SendMessageCommand{
		BaseCommand: protocol.BaseCommand{Action: protocol.ActionSendMessage},
		RoomId:      1,
		Content:     "missed you",
	})

	db.AssertNumberOfCalls(t, "InsertResponseCommand", 1)
}
