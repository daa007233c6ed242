// Package protocol defines the JSON frames of the /api/ws chat endpoint
// and a small client for it.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const (
	TypeQuery    = "query"
	TypeReset    = "reset"
	TypeResponse = "response"
	TypeError    = "error"
)

// Frame is one websocket text message in either direction. Requests use
// Type, Query and SessionID; replies use the remaining fields.
type Frame struct {
	Type      string `json:"type"`
	Query     string `json:"query,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	Response  string `json:"response,omitempty"`
	Status    string `json:"status,omitempty"`
	Message   string `json:"message,omitempty"`
	Detail    string `json:"detail,omitempty"`
}

// Parse decodes and validates a request frame.
func Parse(data []byte) (Frame, error) {
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return Frame{}, fmt.Errorf("invalid frame: %w", err)
	}

	switch f.Type {
	case TypeQuery:
		if strings.TrimSpace(f.Query) == "" {
			return f, errors.New("query is required")
		}
	case TypeReset:
	case "":
		return f, errors.New("missing frame type")
	default:
		return f, fmt.Errorf("unknown frame type %q", f.Type)
	}
	return f, nil
}

func Response(sessionID, text string) Frame {
	return Frame{Type: TypeResponse, SessionID: sessionID, Response: text}
}

func ResetAck(sessionID, message string) Frame {
	return Frame{Type: TypeReset, Status: "success", Message: message, SessionID: sessionID}
}

func Error(sessionID, detail string) Frame {
	return Frame{Type: TypeError, SessionID: sessionID, Detail: detail}
}

// Err turns an error frame into a Go error, nil otherwise.
func (f Frame) Err() error {
	if f.Type != TypeError {
		return nil
	}
	return &RemoteError{Detail: f.Detail}
}

type RemoteError struct {
	Detail string
}

func (e *RemoteError) Error() string { return "remote: " + e.Detail }
