package database

import (
	"github.com/stretchr/testify/mock"
)

type MockChatRepository struct {
	mock.Mock
}

func (m *MockChatRepository) Ping() error {
	args := m.Called()
	return args.Error(0)
}
func (m *MockChatRepository) LoadRooms() (map[int64][]int64, error) {
	args := m.Called()
	if rooms, ok := args.Get(0).(map[int64][]int64); ok {
		return rooms, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *MockChatRepository) GetRoom(roomId int64) (Room, error) {
	args := m.Called(roomId)
	return args.Get(0).(Room), args.Error(1)
}
func (m *MockChatRepository) InsertRoom(name, description *string, roomType string, masterId int64) (int64, error) {
	args := m.Called(name, description, roomType, masterId)
	return args.Get(0).(int64), args.Error(1)
}
func (m *MockChatRepository) UpdateRoomName(roomId int64, name string) error {
	args := m.Called(roomId, name)
	return args.Error(0)
}
func (m *MockChatRepository) UpdateRoomDescription(roomId int64, description string) error {
	args := m.Called(roomId, description)
	return args.Error(0)
}
func (m *MockChatRepository) DeleteRoom(roomId int64) error {
	args := m.Called(roomId)
	return args.Error(0)
}
func (m *MockChatRepository) ClearMaster(roomId int64) error {
	args := m.Called(roomId)
	return args.Error(0)
}
func (m *MockChatRepository) InsertMembership(roomId, userId int64, enteredAt string) error {
	args := m.Called(roomId, userId, enteredAt)
	return args.Error(0)
}
func (m *MockChatRepository) ExitMembership(roomId, userId int64, exitedAt string) error {
	args := m.Called(roomId, userId, exitedAt)
	return args.Error(0)
}
func (m *MockChatRepository) GetMembers(roomId int64) ([]Member, error) {
	args := m.Called(roomId)
	if members, ok := args.Get(0).([]Member); ok {
		return members, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *MockChatRepository) GetUser(userId int64) (User, error) {
	args := m.Called(userId)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockChatRepository) GetJoinedRoomIds(userId int64) ([]int64, error) {
	args := m.Called(userId)
	if roomIds, ok := args.Get(0).([]int64); ok {
		return roomIds, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *MockChatRepository) RoomHasMessages(roomId int64) (bool, error) {
	args := m.Called(roomId)
	return args.Bool(0), args.Error(1)
}
func (m *MockChatRepository) InsertMessage(msg Message) (int64, error) {
	args := m.Called(msg)
	return args.Get(0).(int64), args.Error(1)
}
func (m *MockChatRepository) InsertDeliveryRecords(messageId int64, recipientIds []int64, status, at string) error {
	args := m.Called(messageId, recipientIds, status, at)
	return args.Error(0)
}
func (m *MockChatRepository) InsertResponseCommand(cmd ResponseCommand) (int64, error) {
	args := m.Called(cmd)
	return args.Get(0).(int64), args.Error(1)
}
func (m *MockChatRepository) UpdateResponseCommandStatus(id int64, status string) error {
	args := m.Called(id, status)
	return args.Error(0)
}
func (m *MockChatRepository) GetNotSentCommands(recipientId int64) ([]ResponseCommand, error) {
	args := m.Called(recipientId)
	if commands, ok := args.Get(0).([]ResponseCommand); ok {
		return commands, args.Error(1)
	}
	return nil, args.Error(1)
}
