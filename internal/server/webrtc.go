package server

import (
	"strings"

	"github.com/npezzotti/go-chatserver/internal/ident"
	"github.com/npezzotti/go-chatserver/internal/protocol"
)

// createVideoRoom opens a signaling session anchored to a chat room.
// The creator becomes host, gets the generated room id back, and a
// VIDEO_ROOM_OPEN message carrying the id is posted to the chat room.
func (cs *ChatServer) createVideoRoom(u *User, cmd *protocol.CreateVideoRoomCommand) {
	opId := ident.NewOpID()

	vr := NewVideoRoom(ident.NewVideoRoomID(), cmd.RoomId, u.Id)
	vr.AddParticipant(u)

	cs.registry.addVideoRoom(vr)
	cs.stats.Incr(MetricNumVideoRooms)
	cs.log.Printf("op %s: user %d opened video room %s for room %d", opId, u.Id, vr.Id, cmd.RoomId)

	cmd.VideoRoomId = vr.Id
	cmd.RecipientId = u.Id
	u.send(cmd, false)

	msg := &protocol.SendMessageCommand{
		BaseCommand: protocol.BaseCommand{
			Action:      protocol.ActionSendMessage,
			RequesterId: u.Id,
			CreatedAT:   cmd.CreatedAT,
		},
		RoomId:  cmd.RoomId,
		Content: vr.Id,
		Type:    protocol.MessageTypeVideoRoomOpen,
	}
	cs.sendMessage(u, msg)
}

func (cs *ChatServer) joinVideoRoom(u *User, cmd *protocol.JoinVideoRoomCommand) {
	opId := ident.NewOpID()

	vr := cs.registry.videoRoomById(cmd.VideoRoomId)
	if vr == nil {
		cs.log.Printf("op %s: join request for unknown video room %s", opId, cmd.VideoRoomId)
		return
	}

	if !vr.AddParticipant(u) {
		cs.log.Printf("op %s: user %d already in video room %s", opId, u.Id, cmd.VideoRoomId)
		return
	}

	if userData, err := cs.db.GetUser(cmd.RequesterId); err != nil {
		cs.log.Printf("op %s: load user %d: %v", opId, cmd.RequesterId, err)
	} else {
		cmd.Nickname = userData.Nickname
		cmd.ProfileImage = userData.ProfileImage
	}

	// existing participants only learn about the newcomer
	for _, p := range vr.Participants() {
		if p.Id == u.Id {
			continue
		}
		cmd.RecipientId = p.Id
		p.send(cmd, false)
	}

	// the joiner gets the full roster, itself included
	cmd.UserList = cs.participantData(opId, vr)
	cmd.RecipientId = u.Id
	u.send(cmd, false)

	cs.log.Printf("op %s: user %d joined video room %s", opId, u.Id, cmd.VideoRoomId)
}

func (cs *ChatServer) exitVideoRoom(u *User, cmd *protocol.ExitVideoRoomCommand) {
	opId := ident.NewOpID()

	vr := cs.registry.videoRoomById(cmd.VideoRoomId)
	if vr == nil {
		cs.log.Printf("op %s: exit request for unknown video room %s", opId, cmd.VideoRoomId)
		return
	}

	if cmd.IsHost {
		// closing the session is announced in the chat room
		msg := &protocol.SendMessageCommand{
			BaseCommand: protocol.BaseCommand{
				Action:      protocol.ActionSendMessage,
				RequesterId: u.Id,
				CreatedAT:   cmd.CreatedAT,
			},
			RoomId:  cmd.RoomId,
			Content: vr.Id,
			Type:    protocol.MessageTypeVideoRoomClose,
		}
		cs.sendMessage(u, msg)
	}

	vr.RemoveParticipant(u.Id)

	for _, p := range vr.Participants() {
		exit := &protocol.ExitVideoRoomCommand{
			BaseCommand: protocol.BaseCommand{
				Action:      protocol.ActionExitVideoRoom,
				RequesterId: cmd.RequesterId,
				CreatedAT:   cmd.CreatedAT,
			},
			ResponseMeta: protocol.ResponseMeta{RecipientId: p.Id},
			VideoRoomId:  cmd.VideoRoomId,
			RoomId:       cmd.RoomId,
			IsHost:       cmd.IsHost,
		}
		p.send(exit, false)
	}

	if vr.IsEmpty() {
		cs.registry.removeVideoRoom(vr.Id)
		cs.stats.Decr(MetricNumVideoRooms)
		cs.log.Printf("op %s: removed empty video room %s", opId, vr.Id)
	}
}

// handleSDP relays an offer or answer to the target participant.
func (cs *ChatServer) handleSDP(u *User, cmd *protocol.SDPCommand) {
	opId := ident.NewOpID()

	vr := cs.registry.videoRoomById(cmd.VideoRoomId)
	if vr == nil {
		cs.log.Printf("op %s: sdp for unknown video room %s", opId, cmd.VideoRoomId)
		return
	}

	target := vr.ParticipantById(cmd.TargetId)
	if target == nil {
		cs.log.Printf("op %s: sdp target %d not in video room %s", opId, cmd.TargetId, cmd.VideoRoomId)
		return
	}

	if cmd.Sdp == nil || strings.TrimSpace(cmd.Sdp.Description) == "" {
		cs.log.Printf("op %s: dropping empty sdp from user %d", opId, u.Id)
		return
	}

	cmd.RecipientId = target.Id
	target.send(cmd, false)
}

func (cs *ChatServer) handleIceCandidate(u *User, cmd *protocol.IceCandidateCommand) {
	opId := ident.NewOpID()

	vr := cs.registry.videoRoomById(cmd.VideoRoomId)
	if vr == nil {
		cs.log.Printf("op %s: ice candidate for unknown video room %s", opId, cmd.VideoRoomId)
		return
	}

	if cmd.IceCandidate == nil || cmd.IceCandidate.Sdp == "" {
		cs.log.Printf("op %s: dropping invalid ice candidate from user %d", opId, u.Id)
		return
	}

	target := vr.ParticipantById(cmd.TargetId)
	if target == nil {
		cs.log.Printf("op %s: ice target %d not in video room %s", opId, cmd.TargetId, cmd.VideoRoomId)
		return
	}

	cmd.RecipientId = target.Id
	target.send(cmd, false)
}

// mediaStatus fans a mute or camera toggle out to everyone else.
func (cs *ChatServer) mediaStatus(u *User, cmd *protocol.MediaStatusCommand) {
	vr := cs.registry.videoRoomById(cmd.VideoRoomId)
	if vr == nil {
		cs.log.Printf("media status for unknown video room %s", cmd.VideoRoomId)
		return
	}

	for _, p := range vr.Participants() {
		if p.Id == cmd.RequesterId {
			continue
		}
		cmd.RecipientId = p.Id
		p.send(cmd, false)
	}
}

func (cs *ChatServer) getVideoRoomParticipant(u *User, cmd *protocol.GetVideoRoomParticipantCommand) {
	opId := ident.NewOpID()

	vr := cs.registry.videoRoomById(cmd.VideoRoomId)
	if vr == nil {
		cs.log.Printf("op %s: roster request for unknown video room %s", opId, cmd.VideoRoomId)
		return
	}

	cmd.UserList = cs.participantData(opId, vr)
	cmd.RecipientId = u.Id
	u.send(cmd, false)
}

// participantData resolves each participant's profile. Participants
// whose profile cannot be loaded are skipped.
func (cs *ChatServer) participantData(opId string, vr *VideoRoom) []protocol.UserData {
	participants := vr.Participants()
	userList := make([]protocol.UserData, 0, len(participants))
	for _, p := range participants {
		userData, err := cs.db.GetUser(p.Id)
		if err != nil {
			cs.log.Printf("op %s: load user %d: %v", opId, p.Id, err)
			continue
		}
		userList = append(userList, protocol.UserData{
			Id:           userData.Id,
			Nickname:     userData.Nickname,
			ProfileImage: userData.ProfileImage,
		})
	}
	return userList
}
