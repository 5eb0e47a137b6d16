package server

import (
	"github.com/npezzotti/go-chatserver/internal/database"
	"github.com/npezzotti/go-chatserver/internal/ident"
	"github.com/npezzotti/go-chatserver/internal/protocol"
)

// connect binds the connection to the requester's user id, swaps the
// fresh user object into every room the user belongs to, and replays
// commands that were never acknowledged.
func (cs *ChatServer) connect(u *User, cmd *protocol.ConnectCommand) {
	opId := ident.NewOpID()
	u.Id = cmd.RequesterId
	cs.log.Printf("op %s: user %d connected", opId, u.Id)

	if old := cs.findUser(u.Id); old != nil && old != u {
		// the newest connection wins
		old.conn.Detach()
		cs.removeUser(old)
	}

	roomIds, err := cs.db.GetJoinedRoomIds(u.Id)
	if err != nil {
		cs.log.Printf("op %s: get joined rooms for user %d: %v", opId, u.Id, err)
		return
	}

	for _, roomId := range roomIds {
		room := cs.registry.room(roomId)
		if room == nil {
			cs.log.Printf("op %s: user %d belongs to unknown room %d", opId, u.Id, roomId)
			continue
		}
		room.ReplaceMember(u)
	}

	if cs.addUser(u) {
		cs.stats.Incr(MetricNumConnections)
	}

	cs.replayNotSent(opId, u)
}

// replayNotSent redelivers logged commands the user never acknowledged.
// Rows stay NOT_SENT until the client confirms with CHECK_RECEIVE.
func (cs *ChatServer) replayNotSent(opId string, u *User) {
	rows, err := cs.db.GetNotSentCommands(u.Id)
	if err != nil {
		cs.log.Printf("op %s: load unsent commands for user %d: %v", opId, u.Id, err)
		return
	}

	for _, row := range rows {
		action, err := protocol.ParseAction([]byte(row.Json))
		if err != nil {
			cs.log.Printf("op %s: parse logged command %d: %v", opId, row.Id, err)
			continue
		}

		cmd, err := protocol.Decode(action, []byte(row.Json))
		if err != nil {
			cs.log.Printf("op %s: decode logged command %d: %v", opId, row.Id, err)
			continue
		}

		resp, ok := cmd.(protocol.ResponseCommand)
		if !ok {
			cs.log.Printf("op %s: logged command %d has non-response action %q", opId, row.Id, action)
			continue
		}

		resp.Base().Id = protocol.Int64(row.Id)
		u.send(resp, false)
	}

	if len(rows) > 0 {
		cs.log.Printf("op %s: replayed %d commands to user %d", opId, len(rows), u.Id)
	}
}

func (cs *ChatServer) createRoom(u *User, cmd *protocol.CreateRoomCommand) {
	opId := ident.NewOpID()

	var (
		roomId int64
		err    error
	)
	room := &ChatRoom{RoomType: cmd.RoomType}

	switch cmd.RoomType {
	case protocol.RoomTypeOpen:
		roomId, err = cs.db.InsertRoom(cmd.RoomName, cmd.Description, string(cmd.RoomType), cmd.RequesterId)
		if err != nil {
			cs.log.Printf("op %s: insert open room: %v", opId, err)
			return
		}

		dbRoom, err := cs.db.GetRoom(roomId)
		if err != nil {
			cs.log.Printf("op %s: load room %d: %v", opId, roomId, err)
			return
		}
		room.RoomName = dbRoom.RoomName
		room.Description = dbRoom.Description
		room.MasterUserId = dbRoom.MasterUserId
	default:
		roomId, err = cs.db.InsertRoom(nil, nil, string(protocol.RoomTypeNormal), 0)
		if err != nil {
			cs.log.Printf("op %s: insert room: %v", opId, err)
			return
		}
		room.RoomType = protocol.RoomTypeNormal
	}

	room.Id = roomId
	cs.registry.addRoom(room)
	cs.stats.Incr(MetricNumChatRooms)
	cs.log.Printf("op %s: user %d created %s room %d", opId, cmd.RequesterId, room.RoomType, roomId)

	// the creator invites everyone, itself included
	invitedIds := cmd.InvitedIdList
	hasCreator := false
	for _, id := range invitedIds {
		if id == cmd.RequesterId {
			hasCreator = true
			break
		}
	}
	if !hasCreator {
		invitedIds = append(invitedIds, cmd.RequesterId)
	}

	invite := &protocol.InviteCommand{
		RoomInfoCommand: protocol.RoomInfoCommand{
			BaseCommand: protocol.BaseCommand{
				Action:      protocol.ActionInvite,
				RequesterId: cmd.RequesterId,
				CreatedAT:   cmd.CreatedAT,
			},
			RoomId:   roomId,
			RoomType: room.RoomType,
		},
		InvitedIdList: invitedIds,
	}
	if room.RoomType == protocol.RoomTypeOpen {
		invite.RoomName = cmd.RoomName
		invite.Description = cmd.Description
		invite.MasterId = cmd.RequesterId
	}

	cs.roomInvite(u, invite)
}

func (cs *ChatServer) roomInvite(u *User, cmd *protocol.InviteCommand) {
	opId := ident.NewOpID()

	room := cs.registry.room(cmd.RoomId)
	if room == nil {
		cs.log.Printf("op %s: invite to unknown room %d", opId, cmd.RoomId)
		return
	}

	for _, userId := range cmd.InvitedIdList {
		// a repeat invite records another membership row; AddMember
		// keeps the in-memory list unique by id
		if err := cs.db.InsertMembership(cmd.RoomId, userId, cmd.CreatedAT); err != nil {
			cs.log.Printf("op %s: insert membership for user %d in room %d: %v", opId, userId, cmd.RoomId, err)
			continue
		}

		member := cs.findUser(userId)
		if member == nil {
			member = newPlaceholderUser(userId, cs, cs.log)
		}
		room.AddMember(member)
	}

	// an empty system message anchors the invite in room history
	msgId, err := cs.db.InsertMessage(database.Message{
		RoomId: cmd.RoomId,
		SentAt: cmd.CreatedAT,
		Type:   string(protocol.MessageTypeText),
	})
	if err != nil {
		cs.log.Printf("op %s: insert invite message for room %d: %v", opId, cmd.RoomId, err)
		return
	}
	cmd.MessageId = protocol.Int64(msgId)

	if err := cs.fillRoomInfo(&cmd.RoomInfoCommand); err != nil {
		cs.log.Printf("op %s: load room %d data: %v", opId, cmd.RoomId, err)
		return
	}

	room.Broadcast(cmd)
	cs.log.Printf("op %s: invited %d users to room %d", opId, len(cmd.InvitedIdList), cmd.RoomId)
}

// fillRoomInfo refreshes a room info payload from the database.
func (cs *ChatServer) fillRoomInfo(cmd *protocol.RoomInfoCommand) error {
	members, err := cs.db.GetMembers(cmd.RoomId)
	if err != nil {
		return err
	}
	cmd.MemberList = memberData(members)

	dbRoom, err := cs.db.GetRoom(cmd.RoomId)
	if err != nil {
		return err
	}
	cmd.RoomName = dbRoom.RoomName
	cmd.Description = dbRoom.Description
	cmd.MasterId = dbRoom.MasterUserId
	cmd.RoomType = protocol.RoomType(dbRoom.RoomType)

	return nil
}

func memberData(members []database.Member) []protocol.UserData {
	userList := make([]protocol.UserData, 0, len(members))
	for _, m := range members {
		userList = append(userList, protocol.UserData{
			Id:           m.UserId,
			Nickname:     m.Nickname,
			ProfileImage: m.ProfileImage,
			IsExit:       m.IsExited,
		})
	}
	return userList
}

func (cs *ChatServer) roomInfo(u *User, cmd *protocol.RoomInfoCommand) {
	opId := ident.NewOpID()

	room := cs.registry.room(cmd.RoomId)
	if room == nil {
		cs.log.Printf("op %s: info request for unknown room %d", opId, cmd.RoomId)
		return
	}

	infoChanged := false
	if cmd.RoomName != nil && *cmd.RoomName != "" {
		if err := cs.db.UpdateRoomName(cmd.RoomId, *cmd.RoomName); err != nil {
			cs.log.Printf("op %s: update room %d name: %v", opId, cmd.RoomId, err)
			return
		}
		room.RoomName = cmd.RoomName
		infoChanged = true
	}

	// a blank description clears the field
	if cmd.Description != nil {
		if err := cs.db.UpdateRoomDescription(cmd.RoomId, *cmd.Description); err != nil {
			cs.log.Printf("op %s: update room %d description: %v", opId, cmd.RoomId, err)
			return
		}
		room.Description = cmd.Description
		infoChanged = true
	}

	resp := &protocol.RoomInfoCommand{
		BaseCommand: protocol.BaseCommand{
			Action:      protocol.ActionRoomInfo,
			RequesterId: cmd.RequesterId,
			CreatedAT:   cmd.CreatedAT,
		},
		RoomId: cmd.RoomId,
	}
	if err := cs.fillRoomInfo(resp); err != nil {
		cs.log.Printf("op %s: load room %d data: %v", opId, cmd.RoomId, err)
		return
	}

	if infoChanged {
		room.Broadcast(resp)
	} else {
		resp.RecipientId = u.Id
		resp.TransmissionStatus = protocol.StatusNotSent
		u.send(resp, true)
	}
}

func (cs *ChatServer) roomExit(u *User, cmd *protocol.ExitRoomCommand) {
	opId := ident.NewOpID()

	room := cs.registry.room(cmd.RoomId)
	if room == nil {
		cs.log.Printf("op %s: exit request for unknown room %d", opId, cmd.RoomId)
		return
	}

	room.RemoveMember(cmd.RequesterId)

	if err := cs.db.ExitMembership(cmd.RoomId, cmd.RequesterId, cmd.CreatedAT); err != nil {
		cs.log.Printf("op %s: exit membership for user %d in room %d: %v", opId, cmd.RequesterId, cmd.RoomId, err)
		return
	}

	dbRoom, err := cs.db.GetRoom(cmd.RoomId)
	if err != nil {
		cs.log.Printf("op %s: load room %d: %v", opId, cmd.RoomId, err)
		return
	}

	if dbRoom.MasterUserId == cmd.RequesterId {
		if err := cs.db.ClearMaster(cmd.RoomId); err != nil {
			cs.log.Printf("op %s: clear master of room %d: %v", opId, cmd.RoomId, err)
			return
		}
		room.MasterUserId = 0
	}

	members, err := cs.db.GetMembers(cmd.RoomId)
	if err != nil {
		cs.log.Printf("op %s: get members of room %d: %v", opId, cmd.RoomId, err)
		return
	}

	active := 0
	for _, m := range members {
		if !m.IsExited {
			active++
		}
	}

	if active == 0 {
		cs.deleteRoom(opId, cmd.RoomId)
		return
	}

	hasMessages, err := cs.db.RoomHasMessages(cmd.RoomId)
	if err != nil {
		cs.log.Printf("op %s: check messages of room %d: %v", opId, cmd.RoomId, err)
		return
	}
	if !hasMessages {
		cs.deleteRoom(opId, cmd.RoomId)
		return
	}

	msgId, err := cs.db.InsertMessage(database.Message{
		RoomId: cmd.RoomId,
		SentAt: cmd.CreatedAT,
		Type:   string(protocol.MessageTypeText),
	})
	if err != nil {
		cs.log.Printf("op %s: insert exit message for room %d: %v", opId, cmd.RoomId, err)
		return
	}
	cmd.MessageId = protocol.Int64(msgId)

	cmd.MemberList = memberData(members)
	cmd.RoomName = dbRoom.RoomName
	cmd.Description = dbRoom.Description
	cmd.MasterId = room.MasterUserId
	cmd.RoomType = protocol.RoomType(dbRoom.RoomType)

	room.Broadcast(cmd)
	cs.log.Printf("op %s: user %d exited room %d, %d active members remain", opId, cmd.RequesterId, cmd.RoomId, active)
}

// deleteRoom drops a room from the database and the registry.
func (cs *ChatServer) deleteRoom(opId string, roomId int64) {
	if err := cs.db.DeleteRoom(roomId); err != nil {
		cs.log.Printf("op %s: delete room %d: %v", opId, roomId, err)
		return
	}

	cs.registry.removeRoom(roomId)
	cs.stats.Decr(MetricNumChatRooms)
	cs.log.Printf("op %s: deleted room %d", opId, roomId)
}

func (cs *ChatServer) sendMessage(u *User, cmd *protocol.SendMessageCommand) {
	opId := ident.NewOpID()

	cmd.TransmissionStatus = protocol.StatusNotSent
	cmd.ReadStatus = protocol.ReadStatusUnread

	msgId, err := cs.db.InsertMessage(database.Message{
		RoomId:   cmd.RoomId,
		SenderId: cmd.RequesterId,
		Content:  cmd.Content,
		Type:     string(cmd.Type),
		SentAt:   cmd.CreatedAT,
	})
	if err != nil {
		cs.log.Printf("op %s: insert message for room %d: %v", opId, cmd.RoomId, err)
		return
	}
	cmd.MessageId = protocol.Int64(msgId)

	members, err := cs.db.GetMembers(cmd.RoomId)
	if err != nil {
		cs.log.Printf("op %s: get members of room %d: %v", opId, cmd.RoomId, err)
		return
	}

	recipientIds := make([]int64, 0, len(members))
	for _, m := range members {
		recipientIds = append(recipientIds, m.UserId)
	}
	if err := cs.db.InsertDeliveryRecords(msgId, recipientIds, string(protocol.ReadStatusUnread), cmd.CreatedAT); err != nil {
		cs.log.Printf("op %s: insert delivery records for message %d: %v", opId, msgId, err)
		return
	}

	room := cs.registry.room(cmd.RoomId)
	if room == nil {
		cs.log.Printf("op %s: message for unknown room %d", opId, cmd.RoomId)
		return
	}

	room.Broadcast(cmd)
	cs.stats.Incr(MetricMessagesSent)
	cs.log.Printf("op %s: user %d sent message %d to room %d", opId, cmd.RequesterId, msgId, cmd.RoomId)
}

// checkReceive marks a logged command delivered so it is not replayed
// on the next CONNECT.
func (cs *ChatServer) checkReceive(u *User, cmd *protocol.CheckReceiveCommand) {
	if err := cs.db.UpdateResponseCommandStatus(cmd.CommandId, string(protocol.StatusSent)); err != nil {
		cs.log.Printf("ack command %d for user %d: %v", cmd.CommandId, u.Id, err)
	}
}
