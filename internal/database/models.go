package database

// Room is the persisted chat room metadata. A zero MasterUserId means
// the room has no master.
type Room struct {
	Id           int64
	RoomName     *string
	Description  *string
	RoomType     string
	MasterUserId int64
}

// Member is one user's latest membership state in a room.
type Member struct {
	UserId       int64
	Nickname     string
	ProfileImage *string
	IsExited     bool
}

// User is the profile row for a single user.
type User struct {
	Id           int64
	Nickname     string
	ProfileImage *string
}

// Message is a persisted chat message. SenderId 0 marks a
// server-originated message.
type Message struct {
	Id       int64
	RoomId   int64
	SenderId int64
	Content  string
	Type     string
	SentAt   string
}

// ResponseCommand is one row of the reliable-delivery log: the exact
// JSON the server intends to write to a recipient, and whether it has
// been acknowledged.
type ResponseCommand struct {
	Id          int64
	Action      string
	RecipientId int64
	Json        string
	Status      string
}
