// Package protocol implements the line-oriented JSON wire format: one
// command per newline-terminated frame, discriminated by the "action"
// field. Decoding tolerates unknown fields; absent optional fields are
// encoded as null so clients can rely on their presence.
package protocol

import (
	"encoding/json"
	"fmt"
)

// BaseCommand is the envelope shared by every frame. The id is assigned
// by the server when the command is logged for reliable delivery.
type BaseCommand struct {
	Id          *int64 `json:"id"`
	Action      Action `json:"action"`
	RequesterId int64  `json:"requesterId"`
	CreatedAT   string `json:"createdAT"`
}

func (b *BaseCommand) Base() *BaseCommand { return b }

// ResponseMeta carries the per-recipient fields stamped onto outbound
// frames during broadcast.
type ResponseMeta struct {
	RecipientId        int64              `json:"recipientId,omitempty"`
	TransmissionStatus TransmissionStatus `json:"transmissionStatus,omitempty"`
}

func (m *ResponseMeta) Meta() *ResponseMeta { return m }

// Command is any decodable frame.
type Command interface {
	Base() *BaseCommand
}

// ResponseCommand is a frame the server can address to a recipient and
// log for at-least-once delivery.
type ResponseCommand interface {
	Command
	Meta() *ResponseMeta
}

// UserData is the member representation embedded in room and video room
// responses.
type UserData struct {
	Id           int64   `json:"id"`
	Nickname     string  `json:"nickname"`
	ProfileImage *string `json:"profileImage"`
	IsExit       bool    `json:"isExit"`
}

// SessionDescription mirrors the WebRTC SDP payload; the server never
// inspects the description body.
type SessionDescription struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

type IceCandidate struct {
	SdpMid        string `json:"sdpMid"`
	SdpMLineIndex int    `json:"sdpMLineIndex"`
	Sdp           string `json:"sdp"`
	ServerUrl     string `json:"serverUrl,omitempty"`
	AdapterType   string `json:"adapterType,omitempty"`
}

type ConnectCommand struct {
	BaseCommand
}

type DisconnectCommand struct {
	BaseCommand
}

type CreateRoomCommand struct {
	BaseCommand
	InvitedIdList []int64  `json:"invitedIdList"`
	RoomName      *string  `json:"roomName"`
	Description   *string  `json:"description"`
	RoomType      RoomType `json:"roomType"`
}

type RoomInfoCommand struct {
	BaseCommand
	ResponseMeta
	RoomId      int64      `json:"roomId"`
	MasterId    int64      `json:"masterId"`
	MemberList  []UserData `json:"memberList"`
	RoomName    *string    `json:"roomName"`
	Description *string    `json:"description"`
	RoomType    RoomType   `json:"roomType"`
}

type InviteCommand struct {
	RoomInfoCommand
	MessageId           *int64  `json:"messageId"`
	InvitedIdList       []int64 `json:"invitedIdList"`
	IsNewOpenChatMember bool    `json:"isNewOpenChatMember"`
}

type ExitRoomCommand struct {
	RoomInfoCommand
	MessageId *int64 `json:"messageId"`
}

type SendMessageCommand struct {
	BaseCommand
	ResponseMeta
	MessageId  *int64      `json:"messageId"`
	RoomId     int64       `json:"roomId"`
	Content    string      `json:"content"`
	Type       MessageType `json:"type"`
	ReadStatus ReadStatus  `json:"readStatus"`
}

type CheckReceiveCommand struct {
	BaseCommand
	CommandId int64 `json:"commandId"`
}

type CreateVideoRoomCommand struct {
	BaseCommand
	ResponseMeta
	RoomId      int64  `json:"roomId"`
	VideoRoomId string `json:"videoRoomId"`
}

type JoinVideoRoomCommand struct {
	BaseCommand
	ResponseMeta
	VideoRoomId  string     `json:"videoRoomId"`
	Nickname     string     `json:"nickname"`
	ProfileImage *string    `json:"profileImage"`
	UserList     []UserData `json:"userList"`
	VideoEnabled bool       `json:"videoEnabled"`
	AudioEnabled bool       `json:"audioEnabled"`
}

type ExitVideoRoomCommand struct {
	BaseCommand
	ResponseMeta
	VideoRoomId string `json:"videoRoomId"`
	RoomId      int64  `json:"roomId"`
	IsHost      bool   `json:"isHost"`
}

type SDPCommand struct {
	BaseCommand
	ResponseMeta
	VideoRoomId string              `json:"videoRoomId"`
	TargetId    int64               `json:"targetId"`
	Sdp         *SessionDescription `json:"sdp"`
}

type IceCandidateCommand struct {
	BaseCommand
	ResponseMeta
	VideoRoomId  string        `json:"videoRoomId"`
	TargetId     int64         `json:"targetId"`
	IceCandidate *IceCandidate `json:"iceCandidate"`
}

type MediaStatusCommand struct {
	BaseCommand
	ResponseMeta
	VideoRoomId string    `json:"videoRoomId"`
	MediaType   MediaType `json:"mediaType"`
	IsEnabled   bool      `json:"isEnabled"`
}

type GetVideoRoomParticipantCommand struct {
	BaseCommand
	ResponseMeta
	VideoRoomId string     `json:"videoRoomId"`
	UserList    []UserData `json:"userList"`
}

// ParseAction extracts the discriminator from a raw frame.
func ParseAction(data []byte) (Action, error) {
	var envelope struct {
		Action Action `json:"action"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return "", fmt.Errorf("parse frame: %w", err)
	}
	if envelope.Action == "" {
		return "", fmt.Errorf("frame has no action")
	}
	return envelope.Action, nil
}

// Decode unmarshals a frame into the payload type for its action.
func Decode(action Action, data []byte) (Command, error) {
	var cmd Command
	switch action {
	case ActionConnect:
		cmd = &ConnectCommand{}
	case ActionDisconnect:
		cmd = &DisconnectCommand{}
	case ActionCreateRoom:
		cmd = &CreateRoomCommand{}
	case ActionRoomInfo:
		cmd = &RoomInfoCommand{}
	case ActionInvite:
		cmd = &InviteCommand{}
	case ActionSendMessage:
		cmd = &SendMessageCommand{}
	case ActionCheckReceive:
		cmd = &CheckReceiveCommand{}
	case ActionExitRoom:
		cmd = &ExitRoomCommand{}
	case ActionCreateVideoRoom:
		cmd = &CreateVideoRoomCommand{}
	case ActionJoinVideoRoom:
		cmd = &JoinVideoRoomCommand{}
	case ActionExitVideoRoom:
		cmd = &ExitVideoRoomCommand{}
	case ActionSDP:
		cmd = &SDPCommand{}
	case ActionIceCandidate:
		cmd = &IceCandidateCommand{}
	case ActionMediaStatus:
		cmd = &MediaStatusCommand{}
	case ActionGetVideoRoomParticipant:
		cmd = &GetVideoRoomParticipantCommand{}
	default:
		return nil, fmt.Errorf("unknown action %q", action)
	}

	if err := json.Unmarshal(data, cmd); err != nil {
		return nil, fmt.Errorf("decode %s: %w", action, err)
	}
	return cmd, nil
}

// Encode marshals a frame for the wire.
func Encode(cmd Command) ([]byte, error) {
	return json.Marshal(cmd)
}

// Int64 returns a pointer for optional numeric fields.
func Int64(v int64) *int64 { return &v }

// String returns a pointer for optional string fields.
func String(s string) *string { return &s }
