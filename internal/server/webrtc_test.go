package server

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/npezzotti/go-chatserver/internal/database"
	"github.com/npezzotti/go-chatserver/internal/protocol"
)

// videoRoomWithUsers registers a video room with the given users joined,
// the first one as host.
func videoRoomWithUsers(cs *ChatServer, chatRoomId int64, users ...*User) *VideoRoom {
	vr := NewVideoRoom(uuid.NewString(), chatRoomId, users[0].Id)
	for _, u := range users {
		vr.AddParticipant(u)
	}
	cs.registry.addVideoRoom(vr)
	return vr
}

func TestCreateVideoRoom(t *testing.T) {
	cs, db := newTestServer(t)

	alice, aliceLines := newPipeUser(t, cs, 1)
	room := NewChatRoom(3, protocol.RoomTypeNormal)
	room.AddMember(alice)
	cs.registry.addRoom(room)

	db.On("InsertMessage", mock.MatchedBy(func(msg database.Message) bool {
		return msg.RoomId == 3 && msg.SenderId == 1 && msg.Type == "VIDEO_ROOM_OPEN"
	})).Return(int64(42), nil)
	db.On("GetMembers", int64(3)).Return([]database.Member{{UserId: 1, Nickname: "alice"}}, nil)
	db.On("InsertDeliveryRecords", int64(42), []int64{1}, "UNREAD", mock.Anything).Return(nil)
	db.On("InsertResponseCommand", mock.Anything).Return(int64(90), nil)

	cs.createVideoRoom(alice, &protocol.CreateVideoRoomCommand{
		BaseCommand: protocol.BaseCommand{
			Action:      protocol.ActionCreateVideoRoom,
			RequesterId: 1,
			CreatedAT:   "2026-08-30 10:00:00",
		},
		RoomId: 3,
	})

	var created protocol.CreateVideoRoomCommand
	require.NoError(t, json.Unmarshal([]byte(recvLine(t, aliceLines)), &created))
	require.NotEmpty(t, created.VideoRoomId, "expected generated video room id")
	_, err := uuid.Parse(created.VideoRoomId)
	assert.NoError(t, err, "expected video room id to be a uuid")

	vr := cs.registry.videoRoomById(created.VideoRoomId)
	require.NotNil(t, vr, "expected video room registered")
	assert.True(t, vr.IsHost(1), "expected creator as host")

	// the open notice lands in the chat room as a message
	var msg protocol.SendMessageCommand
	require.NoError(t, json.Unmarshal([]byte(recvLine(t, aliceLines)), &msg))
	assert.Equal(t, protocol.MessageTypeVideoRoomOpen, msg.Type, "expected VIDEO_ROOM_OPEN message")
	assert.Equal(t, created.VideoRoomId, msg.Content, "expected message content to carry the video room id")
	assert.Equal(t, int64(1), msg.RequesterId, "expected message attributed to the creator")
}

func TestJoinVideoRoom(t *testing.T) {
	cs, db := newTestServer(t)

	alice, aliceLines := newPipeUser(t, cs, 1)
	bob, bobLines := newPipeUser(t, cs, 2)
	vr := videoRoomWithUsers(cs, 3, alice)

	db.On("GetUser", int64(2)).Return(database.User{Id: 2, Nickname: "bob"}, nil)
	db.On("GetUser", int64(1)).Return(database.User{Id: 1, Nickname: "alice"}, nil)

	cs.joinVideoRoom(bob, &protocol.JoinVideoRoomCommand{
		BaseCommand: protocol.BaseCommand{
			Action:      protocol.ActionJoinVideoRoom,
			RequesterId: 2,
		},
		VideoRoomId: vr.Id,
	})

	// existing participants learn about the newcomer only
	var toAlice protocol.JoinVideoRoomCommand
	require.NoError(t, json.Unmarshal([]byte(recvLine(t, aliceLines)), &toAlice))
	assert.Equal(t, "bob", toAlice.Nickname, "expected newcomer's nickname")
	assert.Equal(t, int64(1), toAlice.RecipientId, "expected notice addressed to alice")
	assert.Empty(t, toAlice.UserList, "expected no roster for existing participants")

	// the joiner receives the full roster
	var toBob protocol.JoinVideoRoomCommand
	require.NoError(t, json.Unmarshal([]byte(recvLine(t, bobLines)), &toBob))
	assert.Len(t, toBob.UserList, 2, "expected full roster for the joiner")
}

func TestJoinVideoRoomAlreadyJoined(t *testing.T) {
	cs, _ := newTestServer(t)

	alice, aliceLines := newPipeUser(t, cs, 1)
	vr := videoRoomWithUsers(cs, 3, alice)

	cs.joinVideoRoom(alice, &protocol.JoinVideoRoomCommand{
		BaseCommand: protocol.BaseCommand{Action: protocol.ActionJoinVideoRoom, RequesterId: 1},
		VideoRoomId: vr.Id,
	})

	assert.Len(t, vr.Participants(), 1, "expected no duplicate participant")
	assertNoLine(t, aliceLines)
}

func TestExitVideoRoomParticipant(t *testing.T) {
	cs, _ := newTestServer(t)

	alice, aliceLines := newPipeUser(t, cs, 1)
	bob, bobLines := newPipeUser(t, cs, 2)
	vr := videoRoomWithUsers(cs, 3, alice, bob)

	cs.exitVideoRoom(bob, &protocol.ExitVideoRoomCommand{
		BaseCommand: protocol.BaseCommand{Action: protocol.ActionExitVideoRoom, RequesterId: 2},
		VideoRoomId: vr.Id,
		RoomId:      3,
	})

	assert.Nil(t, vr.ParticipantById(2), "expected bob removed")
	assert.True(t, vr.IsHost(1), "expected host unchanged")

	var got protocol.ExitVideoRoomCommand
	require.NoError(t, json.Unmarshal([]byte(recvLine(t, aliceLines)), &got))
	assert.Equal(t, int64(2), got.RequesterId, "expected leaver id on the notice")
	assert.False(t, got.IsHost, "expected non-host exit")

	assertNoLine(t, bobLines)
	assert.NotNil(t, cs.registry.videoRoomById(vr.Id), "expected room kept while occupied")
}

func TestExitVideoRoomHostClosesSession(t *testing.T) {
	cs, db := newTestServer(t)

	alice, aliceLines := newPipeUser(t, cs, 1)
	room := NewChatRoom(3, protocol.RoomTypeNormal)
	room.AddMember(alice)
	cs.registry.addRoom(room)

	vr := videoRoomWithUsers(cs, 3, alice)

	db.On("InsertMessage", mock.MatchedBy(func(msg database.Message) bool {
		return msg.Type == "VIDEO_ROOM_CLOSE" && msg.Content == vr.Id
	})).Return(int64(43), nil)
	db.On("GetMembers", int64(3)).Return([]database.Member{{UserId: 1, Nickname: "alice"}}, nil)
	db.On("InsertDeliveryRecords", int64(43), []int64{1}, "UNREAD", mock.Anything).Return(nil)
	db.On("InsertResponseCommand", mock.Anything).Return(int64(91), nil)

	cs.exitVideoRoom(alice, &protocol.ExitVideoRoomCommand{
		BaseCommand: protocol.BaseCommand{
			Action:      protocol.ActionExitVideoRoom,
			RequesterId: 1,
			CreatedAT:   "2026-08-30 10:00:00",
		},
		VideoRoomId: vr.Id,
		RoomId:      3,
		IsHost:      true,
	})

	var msg protocol.SendMessageCommand
	require.NoError(t, json.Unmarshal([]byte(recvLine(t, aliceLines)), &msg))
	assert.Equal(t, protocol.MessageTypeVideoRoomClose, msg.Type, "expected VIDEO_ROOM_CLOSE message")

	assert.Nil(t, cs.registry.videoRoomById(vr.Id), "expected empty room removed")
}

func TestHandleSDPRelaysToTarget(t *testing.T) {
	cs, _ := newTestServer(t)

	alice, aliceLines := newPipeUser(t, cs, 1)
	bob, bobLines := newPipeUser(t, cs, 2)
	vr := videoRoomWithUsers(cs, 3, alice, bob)

	cs.handleSDP(alice, &protocol.SDPCommand{
		BaseCommand: protocol.BaseCommand{Action: protocol.ActionSDP, RequesterId: 1},
		VideoRoomId: vr.Id,
		TargetId:    2,
		Sdp:         &protocol.SessionDescription{Type: "offer", Description: "v=0..."},
	})

	var got protocol.SDPCommand
	require.NoError(t, json.Unmarshal([]byte(recvLine(t, bobLines)), &got))
	assert.Equal(t, int64(2), got.RecipientId, "expected relay addressed to the target")
	assert.Equal(t, int64(1), got.RequesterId, "expected sender id preserved")
	require.NotNil(t, got.Sdp, "expected sdp payload")
	assert.Equal(t, "offer", got.Sdp.Type, "expected sdp passed through")

	assertNoLine(t, aliceLines)
}

func TestHandleSDPDropsEmptyDescription(t *testing.T) {
	cs, _ := newTestServer(t)

	alice, _ := newPipeUser(t, cs, 1)
	bob, bobLines := newPipeUser(t, cs, 2)
	vr := videoRoomWithUsers(cs, 3, alice, bob)

	cs.handleSDP(alice, &protocol.SDPCommand{
		BaseCommand: protocol.BaseCommand{Action: protocol.ActionSDP, RequesterId: 1},
		VideoRoomId: vr.Id,
		TargetId:    2,
		Sdp:         &protocol.SessionDescription{Type: "offer", Description: "   "},
	})

	assertNoLine(t, bobLines)
}

func TestHandleIceCandidate(t *testing.T) {
	cs, _ := newTestServer(t)

	alice, _ := newPipeUser(t, cs, 1)
	bob, bobLines := newPipeUser(t, cs, 2)
	vr := videoRoomWithUsers(cs, 3, alice, bob)

	cs.handleIceCandidate(alice, &protocol.IceCandidateCommand{
		BaseCommand:  protocol.BaseCommand{Action: protocol.ActionIceCandidate, RequesterId: 1},
		VideoRoomId:  vr.Id,
		TargetId:     2,
		IceCandidate: &protocol.IceCandidate{SdpMid: "0", Sdp: "candidate:1 1 udp"},
	})

	var got protocol.IceCandidateCommand
	require.NoError(t, json.Unmarshal([]byte(recvLine(t, bobLines)), &got))
	assert.Equal(t, int64(2), got.RecipientId, "expected candidate addressed to the target")
	require.NotNil(t, got.IceCandidate, "expected candidate payload")
	assert.Equal(t, "candidate:1 1 udp", got.IceCandidate.Sdp, "expected candidate passed through")
}

func TestMediaStatusExcludesSender(t *testing.T) {
	cs, _ := newTestServer(t)

	alice, aliceLines := newPipeUser(t, cs, 1)
	bob, bobLines := newPipeUser(t, cs, 2)
	carol, carolLines := newPipeUser(t, cs, 3)
	vr := videoRoomWithUsers(cs, 3, alice, bob, carol)

	cs.mediaStatus(alice, &protocol.MediaStatusCommand{
		BaseCommand: protocol.BaseCommand{Action: protocol.ActionMediaStatus, RequesterId: 1},
		VideoRoomId: vr.Id,
		MediaType:   protocol.MediaTypeAudio,
		IsEnabled:   false,
	})

	var got protocol.MediaStatusCommand
	require.NoError(t, json.Unmarshal([]byte(recvLine(t, bobLines)), &got))
	assert.Equal(t, protocol.MediaTypeAudio, got.MediaType, "expected media type passed through")
	assert.Equal(t, int64(2), got.RecipientId, "expected bob's copy addressed to bob")

	require.NoError(t, json.Unmarshal([]byte(recvLine(t, carolLines)), &got))
	assert.Equal(t, int64(3), got.RecipientId, "expected carol's copy addressed to carol")

	assertNoLine(t, aliceLines)
}

func TestGetVideoRoomParticipant(t *testing.T) {
	cs, db := newTestServer(t)

	alice, aliceLines := newPipeUser(t, cs, 1)
	bob, bobLines := newPipeUser(t, cs, 2)
	vr := videoRoomWithUsers(cs, 3, alice, bob)

	db.On("GetUser", int64(1)).Return(database.User{Id: 1, Nickname: "alice"}, nil)
	db.On("GetUser", int64(2)).Return(database.User{Id: 2, Nickname: "bob"}, nil)

	cs.getVideoRoomParticipant(alice, &protocol.GetVideoRoomParticipantCommand{
		BaseCommand: protocol.BaseCommand{Action: protocol.ActionGetVideoRoomParticipant, RequesterId: 1},
		VideoRoomId: vr.Id,
	})

	var got protocol.GetVideoRoomParticipantCommand
	require.NoError(t, json.Unmarshal([]byte(recvLine(t, aliceLines)), &got))
	require.Len(t, got.UserList, 2, "expected both participants in the roster")
	assert.Equal(t, "alice", got.UserList[0].Nickname, "expected profile data resolved")

	assertNoLine(t, bobLines)
}
