package server

import (
	"log"

	"github.com/npezzotti/go-chatserver/internal/database"
	"github.com/npezzotti/go-chatserver/internal/ident"
	"github.com/npezzotti/go-chatserver/internal/protocol"
)

// User is one chat participant. A user stays alive after its socket
// drops so rooms can keep addressing it for persistence-only delivery.
type User struct {
	Id   int64
	cs   *ChatServer
	conn *ConnManager
	log  *log.Logger
}

func NewUser(cs *ChatServer, cm *ConnManager, l *log.Logger) *User {
	return &User{
		cs:   cs,
		conn: cm,
		log:  l,
	}
}

// newPlaceholderUser backs a room member who is not connected.
func newPlaceholderUser(id int64, cs *ChatServer, l *log.Logger) *User {
	return &User{
		Id:   id,
		cs:   cs,
		conn: NewConnManager(nil),
		log:  l,
	}
}

func (u *User) readLoop() {
	defer func() {
		u.conn.Detach()
		u.cs.removeUser(u)
		u.log.Printf("read loop exiting for user %d", u.Id)
	}()

	for {
		line, err := u.conn.ReadLine()
		if err != nil {
			break
		}

		u.handleLine(line)
	}
}

func (u *User) handleLine(line string) {
	action, err := protocol.ParseAction([]byte(line))
	if err != nil {
		u.log.Printf("parse action: %v", err)
		return
	}

	cmd, err := protocol.Decode(action, []byte(line))
	if err != nil {
		u.log.Printf("decode %q command: %v", action, err)
		return
	}

	// the server's clock is authoritative
	cmd.Base().CreatedAT = ident.NowUTC()

	u.cs.dispatch(u, action, cmd)
}

// send delivers cmd to the user. When persist is true the command is
// written to the response log first and stamped with the row id, so a
// frame lost on a dead socket can be replayed at the next CONNECT.
func (u *User) send(cmd protocol.ResponseCommand, persist bool) {
	if persist {
		data, err := protocol.Encode(cmd)
		if err != nil {
			u.log.Printf("encode %q command: %v", cmd.Base().Action, err)
			return
		}

		id, err := u.cs.db.InsertResponseCommand(database.ResponseCommand{
			Action:      string(cmd.Base().Action),
			RecipientId: cmd.Meta().RecipientId,
			Json:        string(data),
			Status:      string(protocol.StatusNotSent),
		})
		if err != nil {
			u.log.Printf("persist %q command for user %d: %v", cmd.Base().Action, u.Id, err)
			return
		}

		cmd.Base().Id = protocol.Int64(id)
	}

	if !u.conn.IsConnected() {
		return
	}

	data, err := protocol.Encode(cmd)
	if err != nil {
		u.log.Printf("encode %q command: %v", cmd.Base().Action, err)
		return
	}

	if err := u.conn.WriteLine(data); err != nil {
		u.log.Printf("write %q command to user %d: %v", cmd.Base().Action, u.Id, err)
	}
}
