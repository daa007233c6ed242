// Package ipc is the local control channel of the interactive assistant:
// one JSON object per connection over a unix socket.
package ipc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	log "log/slog"
	"net"
	"os"
	"sync"
	"time"
)

const (
	CmdReset = "reset"
	CmdQuit  = "quit"
)

type ControlMessage struct {
	Cmd       string `json:"cmd"`
	SessionID string `json:"session_id,omitempty"`
}

type Server struct {
	ln   net.Listener
	path string
	wg   sync.WaitGroup
	once sync.Once
	done chan struct{}
}

// StartServer listens on path and calls handler for every decoded message.
// A stale socket file at path is removed first. The server stops when ctx
// is done or Close is called.
func StartServer(ctx context.Context, path string, handler func(ControlMessage)) (*Server, error) {
	_ = os.Remove(path)

	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen: %w", err)
	}

	s := &Server{ln: ln, path: path, done: make(chan struct{})}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := ln.Accept()
			if err != nil {
				if errors.Is(err, net.ErrClosed) {
					return
				}
				log.Warn("Control socket accept failed", "err", err)
				continue
			}
			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				handleConn(conn, handler)
			}()
		}
	}()

	go func() {
		select {
		case <-ctx.Done():
			_ = s.Close()
		case <-s.done:
		}
	}()

	return s, nil
}

func (s *Server) Path() string { return s.path }

func (s *Server) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		err = s.ln.Close()
		s.wg.Wait()
		_ = os.Remove(s.path)
	})
	return err
}

func handleConn(conn net.Conn, handler func(ControlMessage)) {
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var msg ControlMessage
	if err := json.NewDecoder(conn).Decode(&msg); err != nil {
		log.Warn("Bad control message", "err", err)
		return
	}
	log.Debug("Control message", "cmd", msg.Cmd, "session", msg.SessionID)
	handler(msg)
}

func SendCommand(path, cmd string) error {
	return Send(path, ControlMessage{Cmd: cmd})
}

func Send(path string, msg ControlMessage) error {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return err
	}
	defer conn.Close()

	return json.NewEncoder(conn).Encode(msg)
}
