package database

// ChatRepository is the full persistence capability set. Callers may
// invoke it from any goroutine; implementations must be safe for
// concurrent use.
type ChatRepository interface {
	Ping() error
	// LoadRooms returns every room id with the user ids that have a
	// membership row, used to rebuild the in-memory registry at boot.
	LoadRooms() (map[int64][]int64, error)
	GetRoom(roomId int64) (Room, error)
	InsertRoom(name, description *string, roomType string, masterId int64) (int64, error)
	UpdateRoomName(roomId int64, name string) error
	UpdateRoomDescription(roomId int64, description string) error
	DeleteRoom(roomId int64) error
	ClearMaster(roomId int64) error
	InsertMembership(roomId, userId int64, enteredAt string) error
	// ExitMembership stamps exited_at on the latest open membership row
	// for the pair; it updates nothing if no such row exists.
	ExitMembership(roomId, userId int64, exitedAt string) error
	GetMembers(roomId int64) ([]Member, error)
	GetUser(userId int64) (User, error)
	GetJoinedRoomIds(userId int64) ([]int64, error)
	// RoomHasMessages reports whether any non-server message exists.
	RoomHasMessages(roomId int64) (bool, error)
	InsertMessage(msg Message) (int64, error)
	InsertDeliveryRecords(messageId int64, recipientIds []int64, status, at string) error
	InsertResponseCommand(cmd ResponseCommand) (int64, error)
	UpdateResponseCommandStatus(id int64, status string) error
	GetNotSentCommands(recipientId int64) ([]ResponseCommand, error)
}
