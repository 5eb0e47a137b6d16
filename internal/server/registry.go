package server

import "sync"

// registry indexes the live rooms. Chat rooms are keyed by database id,
// video rooms by their generated id.
type registry struct {
	mu        sync.RWMutex
	rooms     map[int64]*ChatRoom
	videoRoom map[string]*VideoRoom
}

func newRegistry() *registry {
	return &registry{
		rooms:     make(map[int64]*ChatRoom),
		videoRoom: make(map[string]*VideoRoom),
	}
}

func (reg *registry) room(id int64) *ChatRoom {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return reg.rooms[id]
}

func (reg *registry) addRoom(r *ChatRoom) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.rooms[r.Id] = r
}

func (reg *registry) removeRoom(id int64) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	delete(reg.rooms, id)
}

func (reg *registry) allRooms() []*ChatRoom {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	rooms := make([]*ChatRoom, 0, len(reg.rooms))
	for _, r := range reg.rooms {
		rooms = append(rooms, r)
	}
	return rooms
}

func (reg *registry) videoRoomById(id string) *VideoRoom {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return reg.videoRoom[id]
}

func (reg *registry) addVideoRoom(vr *VideoRoom) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.videoRoom[vr.Id] = vr
}

func (reg *registry) removeVideoRoom(id string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	delete(reg.videoRoom, id)
}
