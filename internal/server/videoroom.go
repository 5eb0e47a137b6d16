package server

import (
	"sync"
)

// VideoRoom tracks the participants of one WebRTC session. Signaling is
// relayed between participants; no media touches the server.
type VideoRoom struct {
	Id         string
	ChatRoomId int64

	mu           sync.RWMutex
	hostId       int64
	participants []*User
}

func NewVideoRoom(id string, chatRoomId, hostId int64) *VideoRoom {
	return &VideoRoom{
		Id:         id,
		ChatRoomId: chatRoomId,
		hostId:     hostId,
	}
}

func (vr *VideoRoom) HostId() int64 {
	vr.mu.RLock()
	defer vr.mu.RUnlock()
	return vr.hostId
}

func (vr *VideoRoom) IsHost(userId int64) bool {
	vr.mu.RLock()
	defer vr.mu.RUnlock()
	return vr.hostId == userId
}

// AddParticipant appends u unless already joined. Returns false when u
// was already a participant.
func (vr *VideoRoom) AddParticipant(u *User) bool {
	vr.mu.Lock()
	defer vr.mu.Unlock()

	for _, p := range vr.participants {
		if p.Id == u.Id {
			return false
		}
	}
	vr.participants = append(vr.participants, u)
	return true
}

// RemoveParticipant drops the user and reassigns the host role to the
// first remaining participant when the host leaves.
func (vr *VideoRoom) RemoveParticipant(userId int64) {
	vr.mu.Lock()
	defer vr.mu.Unlock()

	for i, p := range vr.participants {
		if p.Id == userId {
			vr.participants = append(vr.participants[:i], vr.participants[i+1:]...)
			break
		}
	}

	if vr.hostId == userId && len(vr.participants) > 0 {
		vr.hostId = vr.participants[0].Id
	}
}

func (vr *VideoRoom) ParticipantById(userId int64) *User {
	vr.mu.RLock()
	defer vr.mu.RUnlock()

	for _, p := range vr.participants {
		if p.Id == userId {
			return p
		}
	}
	return nil
}

// Participants returns a snapshot of the current participants.
func (vr *VideoRoom) Participants() []*User {
	vr.mu.RLock()
	defer vr.mu.RUnlock()

	participants := make([]*User, len(vr.participants))
	copy(participants, vr.participants)
	return participants
}

func (vr *VideoRoom) IsEmpty() bool {
	vr.mu.RLock()
	defer vr.mu.RUnlock()
	return len(vr.participants) == 0
}
