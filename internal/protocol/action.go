package protocol

// Action discriminates the payload shape of a command frame.
type Action string

const (
	ActionConnect                 Action = "CONNECT"
	ActionDisconnect              Action = "DISCONNECT"
	ActionCreateRoom              Action = "CREATE_ROOM"
	ActionRoomInfo                Action = "ROOM_INFO"
	ActionInvite                  Action = "INVITE"
	ActionSendMessage             Action = "SEND_MESSAGE"
	ActionCheckReceive            Action = "CHECK_RECEIVE"
	ActionExitRoom                Action = "EXIT_ROOM"
	ActionCreateVideoRoom         Action = "CREATE_VIDEO_ROOM"
	ActionJoinVideoRoom           Action = "JOIN_VIDEO_ROOM"
	ActionExitVideoRoom           Action = "EXIT_VIDEO_ROOM"
	ActionSDP                     Action = "SDP"
	ActionIceCandidate            Action = "ICE_CANDIDATE"
	ActionMediaStatus             Action = "MEDIA_STATUS"
	ActionGetVideoRoomParticipant Action = "GET_VIDEO_ROOM_PARTICIPANT"
)

// RoomType distinguishes unnamed private rooms from named, discoverable ones.
type RoomType string

const (
	RoomTypeNormal RoomType = "NORMAL"
	RoomTypeOpen   RoomType = "OPEN"
)

type MessageType string

const (
	MessageTypeText           MessageType = "TEXT"
	MessageTypeImage          MessageType = "IMAGE"
	MessageTypeVideo          MessageType = "VIDEO"
	MessageTypeVideoRoomOpen  MessageType = "VIDEO_ROOM_OPEN"
	MessageTypeVideoRoomClose MessageType = "VIDEO_ROOM_CLOSE"
)

type ReadStatus string

const (
	ReadStatusRead   ReadStatus = "READ"
	ReadStatusUnread ReadStatus = "UNREAD"
)

// TransmissionStatus tracks per-recipient delivery of a logged response
// command. Rows start NOT_SENT and are promoted on the client's ack.
type TransmissionStatus string

const (
	StatusSent    TransmissionStatus = "SENT"
	StatusNotSent TransmissionStatus = "NOT_SENT"
)

type MediaType string

const (
	MediaTypeVideo MediaType = "VIDEO"
	MediaTypeAudio MediaType = "AUDIO"
)
