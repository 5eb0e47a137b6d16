package server

import (
	"errors"
	"fmt"
	"log"
	"net"
	"sync"

	"github.com/npezzotti/go-chatserver/internal/database"
	"github.com/npezzotti/go-chatserver/internal/protocol"
	"github.com/npezzotti/go-chatserver/internal/stats"
)

const (
	MetricNumConnections = "NumConnections"
	MetricNumChatRooms   = "NumChatRooms"
	MetricNumVideoRooms  = "NumVideoRooms"
	MetricMessagesSent   = "MessagesSent"
)

type ChatServer struct {
	log      *log.Logger
	db       database.ChatRepository
	stats    stats.StatsProvider
	registry *registry

	usersMu sync.RWMutex
	users   []*User

	listener net.Listener
	stop     chan struct{}
	done     chan struct{}
}

func NewChatServer(logger *log.Logger, db database.ChatRepository, sp stats.StatsProvider) (*ChatServer, error) {
	cs := &ChatServer{
		log:      logger,
		db:       db,
		stats:    sp,
		registry: newRegistry(),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}

	sp.RegisterMetric(MetricNumConnections)
	sp.RegisterMetric(MetricNumChatRooms)
	sp.RegisterMetric(MetricNumVideoRooms)
	sp.RegisterMetric(MetricMessagesSent)

	if err := cs.loadRooms(); err != nil {
		return nil, fmt.Errorf("load rooms: %w", err)
	}

	return cs, nil
}

// loadRooms rebuilds the room registry from persisted memberships.
// Members come up detached until their owner connects.
func (cs *ChatServer) loadRooms() error {
	rooms, err := cs.db.LoadRooms()
	if err != nil {
		return err
	}

	for roomId, userIds := range rooms {
		dbRoom, err := cs.db.GetRoom(roomId)
		if err != nil {
			return fmt.Errorf("get room %d: %w", roomId, err)
		}

		room := NewChatRoom(roomId, protocol.RoomType(dbRoom.RoomType))
		room.RoomName = dbRoom.RoomName
		room.Description = dbRoom.Description
		room.MasterUserId = dbRoom.MasterUserId

		for _, userId := range userIds {
			room.AddMember(newPlaceholderUser(userId, cs, cs.log))
		}

		cs.registry.addRoom(room)
		cs.stats.Incr(MetricNumChatRooms)
	}

	return nil
}

func (cs *ChatServer) ListenAndServe(addr string) error {
	if err := cs.Listen(addr); err != nil {
		return err
	}
	return cs.Serve()
}

func (cs *ChatServer) Listen(addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %q: %w", addr, err)
	}
	cs.listener = listener
	cs.log.Printf("listening on %q", listener.Addr())
	return nil
}

func (cs *ChatServer) Serve() error {
	for {
		conn, err := cs.listener.Accept()
		if err != nil {
			select {
			case <-cs.stop:
				close(cs.done)
				return nil
			default:
				if errors.Is(err, net.ErrClosed) {
					close(cs.done)
					return nil
				}
				cs.log.Printf("accept: %v", err)
				continue
			}
		}

		user := NewUser(cs, NewConnManager(conn), cs.log)
		go user.readLoop()
	}
}

// Addr reports the bound listener address, nil before Listen.
func (cs *ChatServer) Addr() net.Addr {
	if cs.listener == nil {
		return nil
	}
	return cs.listener.Addr()
}

func (cs *ChatServer) Shutdown() {
	cs.log.Println("received shutdown signal")
	close(cs.stop)
	if cs.listener != nil {
		cs.listener.Close()
		<-cs.done
	}

	cs.usersMu.Lock()
	users := make([]*User, len(cs.users))
	copy(users, cs.users)
	cs.usersMu.Unlock()

	for _, u := range users {
		u.conn.Detach()
	}
}

// dispatch routes a decoded frame to its handler. Every action except
// CONNECT requires the user to have identified itself first.
func (cs *ChatServer) dispatch(u *User, action protocol.Action, cmd protocol.Command) {
	if action != protocol.ActionConnect && u.Id == 0 {
		cs.log.Printf("dropping %q from unidentified connection", action)
		return
	}

	switch c := cmd.(type) {
	case *protocol.ConnectCommand:
		cs.connect(u, c)
	case *protocol.DisconnectCommand:
		u.conn.Detach()
	case *protocol.CreateRoomCommand:
		cs.createRoom(u, c)
	case *protocol.InviteCommand:
		cs.roomInvite(u, c)
	case *protocol.RoomInfoCommand:
		cs.roomInfo(u, c)
	case *protocol.ExitRoomCommand:
		cs.roomExit(u, c)
	case *protocol.SendMessageCommand:
		cs.sendMessage(u, c)
	case *protocol.CheckReceiveCommand:
		cs.checkReceive(u, c)
	case *protocol.CreateVideoRoomCommand:
		cs.createVideoRoom(u, c)
	case *protocol.JoinVideoRoomCommand:
		cs.joinVideoRoom(u, c)
	case *protocol.ExitVideoRoomCommand:
		cs.exitVideoRoom(u, c)
	case *protocol.SDPCommand:
		cs.handleSDP(u, c)
	case *protocol.IceCandidateCommand:
		cs.handleIceCandidate(u, c)
	case *protocol.MediaStatusCommand:
		cs.mediaStatus(u, c)
	case *protocol.GetVideoRoomParticipantCommand:
		cs.getVideoRoomParticipant(u, c)
	default:
		cs.log.Printf("no handler for action %q", action)
	}
}

// addUser records u in the online list unless a user with the same id
// is already present. Reports whether u was added.
func (cs *ChatServer) addUser(u *User) bool {
	cs.usersMu.Lock()
	defer cs.usersMu.Unlock()

	for _, existing := range cs.users {
		if existing.Id == u.Id {
			return false
		}
	}
	cs.users = append(cs.users, u)
	return true
}

// removeUser deletes u by object identity so a stale user's exiting
// read loop never evicts the replacement that took over its id.
func (cs *ChatServer) removeUser(u *User) {
	cs.usersMu.Lock()
	defer cs.usersMu.Unlock()

	for i, existing := range cs.users {
		if existing == u {
			cs.users = append(cs.users[:i], cs.users[i+1:]...)
			cs.stats.Decr(MetricNumConnections)
			return
		}
	}
}

func (cs *ChatServer) findUser(id int64) *User {
	cs.usersMu.RLock()
	defer cs.usersMu.RUnlock()

	for _, u := range cs.users {
		if u.Id == id {
			return u
		}
	}
	return nil
}
