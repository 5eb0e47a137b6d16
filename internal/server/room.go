package server

import (
	"sync"

	"github.com/npezzotti/go-chatserver/internal/protocol"
)

// ChatRoom is the in-memory view of a chat room. Members are held as
// user pointers so a reconnecting user's fresh object can be swapped in
// without rebuilding the room.
type ChatRoom struct {
	Id           int64
	RoomType     protocol.RoomType
	RoomName     *string
	Description  *string
	MasterUserId int64

	mu      sync.RWMutex
	members []*User
}

func NewChatRoom(id int64, roomType protocol.RoomType) *ChatRoom {
	return &ChatRoom{
		Id:       id,
		RoomType: roomType,
	}
}

// AddMember appends u unless a member with the same id is already
// present.
func (r *ChatRoom) AddMember(u *User) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, member := range r.members {
		if member.Id == u.Id {
			return
		}
	}
	r.members = append(r.members, u)
}

// RemoveMember drops the first member matching u's id.
func (r *ChatRoom) RemoveMember(userId int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, member := range r.members {
		if member.Id == userId {
			r.members = append(r.members[:i], r.members[i+1:]...)
			return
		}
	}
}

// ReplaceMember swaps the member with u's id for u, keeping its slot.
// Returns false when no member with that id exists.
func (r *ChatRoom) ReplaceMember(u *User) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, member := range r.members {
		if member.Id == u.Id {
			r.members[i] = u
			return true
		}
	}
	return false
}

func (r *ChatRoom) HasMember(userId int64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, member := range r.members {
		if member.Id == userId {
			return true
		}
	}
	return false
}

// Members returns a snapshot of the membership.
func (r *ChatRoom) Members() []*User {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := make([]*User, len(r.members))
	copy(members, r.members)
	return members
}

func (r *ChatRoom) NumMembers() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members)
}

// Broadcast persists and delivers cmd to every member. The recipient id
// is stamped per member, so each persisted copy replays to exactly one
// user.
func (r *ChatRoom) Broadcast(cmd protocol.ResponseCommand) {
	cmd.Meta().TransmissionStatus = protocol.StatusNotSent

	for _, member := range r.Members() {
		cmd.Meta().RecipientId = member.Id
		cmd.Base().Id = nil
		member.send(cmd, true)
	}
}
