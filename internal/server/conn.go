package server

import (
	"bufio"
	"io"
	"net"
	"sync"
)

type connState int

const (
	// Detached connections belong to placeholder users loaded from the
	// database or to users whose socket has been taken over.
	Detached connState = iota
	Attached
	Closing
)

// ConnManager owns a user's socket. Writes are serialized through a
// mutex so concurrent room broadcasts never interleave frames.
type ConnManager struct {
	mu     sync.Mutex
	conn   net.Conn
	reader *bufio.Reader
	state  connState
}

func NewConnManager(conn net.Conn) *ConnManager {
	cm := &ConnManager{}
	if conn != nil {
		cm.conn = conn
		cm.reader = bufio.NewReader(conn)
		cm.state = Attached
	}
	return cm
}

// Attach hands cm a new socket, closing any previous one.
func (cm *ConnManager) Attach(conn net.Conn) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.conn != nil {
		cm.conn.Close()
	}
	cm.conn = conn
	cm.reader = bufio.NewReader(conn)
	cm.state = Attached
}

// Detach closes the socket but keeps the user object usable for
// persistence-only delivery.
func (cm *ConnManager) Detach() {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.conn != nil {
		cm.conn.Close()
		cm.conn = nil
		cm.reader = nil
	}
	cm.state = Detached
}

func (cm *ConnManager) IsConnected() bool {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	return cm.state == Attached && cm.conn != nil
}

// WriteLine writes one newline-terminated frame.
func (cm *ConnManager) WriteLine(data []byte) error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.state != Attached || cm.conn == nil {
		return net.ErrClosed
	}

	frame := make([]byte, 0, len(data)+1)
	frame = append(frame, data...)
	frame = append(frame, '\n')

	_, err := cm.conn.Write(frame)
	return err
}

// ReadLine blocks until a full frame arrives. It returns io.EOF once
// the connection is detached or closed.
func (cm *ConnManager) ReadLine() (string, error) {
	cm.mu.Lock()
	reader := cm.reader
	cm.mu.Unlock()

	if reader == nil {
		return "", io.EOF
	}

	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}

	return line, nil
}
