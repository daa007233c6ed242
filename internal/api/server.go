// Package api exposes the conversation manager over HTTP JSON and a
// websocket chat endpoint. Session state lives in memory only and is lost
// on restart.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	log "log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"voxchat/internal/conversation"
	"voxchat/pkg/protocol"
)

const (
	healthMessage = "Voice AI Assistant API is running"
	resetMessage  = "Conversation history cleared"
	maxBody       = 1 << 20
)

// Chat is the part of conversation.Manager the facade needs.
type Chat interface {
	Submit(ctx context.Context, sessionID, userText string) (string, error)
	Reset(sessionID string)
	ActiveSessions() int
}

type Server struct {
	chat     Chat
	model    string
	logger   *log.Logger
	mux      *http.ServeMux
	upgrader websocket.Upgrader
}

func New(chat Chat, model string, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}

	s := &Server{
		chat:   chat,
		model:  model,
		logger: logger,
		mux:    http.NewServeMux(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}

	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("POST /api/query", s.handleQuery)
	s.mux.HandleFunc("POST /api/reset", s.handleReset)
	s.mux.HandleFunc("GET /api/status", s.handleStatus)
	s.mux.HandleFunc("GET /api/ws", s.handleWS)
	return s
}

// Handler returns the routes wrapped in a fully open CORS policy.
func (s *Server) Handler() http.Handler {
	return cors(s.mux)
}

// NewHTTPServer binds the handler to addr with conservative timeouts.
func (s *Server) NewHTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

type queryRequest struct {
	Query     *string `json:"query"`
	SessionID string  `json:"session_id"`
}

type queryResponse struct {
	Response  string `json:"response"`
	SessionID string `json:"session_id"`
}

type resetRequest struct {
	SessionID string `json:"session_id"`
}

type resetResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

type statusResponse struct {
	Status         string `json:"status"`
	ActiveSessions int    `json:"active_sessions"`
	Model          string `json:"model"`
}

type healthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "healthy", Message: healthMessage})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Detail: err.Error()})
		return
	}
	if req.Query == nil || strings.TrimSpace(*req.Query) == "" {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Detail: "query is required"})
		return
	}
	session := sessionOrDefault(req.SessionID)

	reply, err := s.query(r.Context(), session, *req.Query)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Detail: queryDetail(err)})
		return
	}
	writeJSON(w, http.StatusOK, queryResponse{Response: reply, SessionID: session})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Detail: err.Error()})
		return
	}
	session := sessionOrDefault(req.SessionID)

	s.chat.Reset(session)
	s.logger.Info("Session reset", "session", session)
	writeJSON(w, http.StatusOK, resetResponse{Status: "success", Message: resetMessage, SessionID: session})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{
		Status:         "active",
		ActiveSessions: s.chat.ActiveSessions(),
		Model:          s.model,
	})
}

func (s *Server) query(ctx context.Context, session, text string) (string, error) {
	reply, err := s.chat.Submit(ctx, session, text)
	if err != nil {
		s.logger.Error("Error processing query", "session", session, "err", err)
		return "", err
	}
	return reply, nil
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("Websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxBody)

	s.logger.Debug("Websocket connected", "remote", r.RemoteAddr)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if !protocol.IsClosed(err) {
				s.logger.Warn("Websocket read failed", "err", err)
			}
			return
		}

		reply := s.handleFrame(r.Context(), data)
		if err := conn.WriteJSON(reply); err != nil {
			s.logger.Warn("Websocket write failed", "err", err)
			return
		}
	}
}

func (s *Server) handleFrame(ctx context.Context, data []byte) protocol.Frame {
	f, err := protocol.Parse(data)
	session := sessionOrDefault(f.SessionID)
	if err != nil {
		return protocol.Error(session, err.Error())
	}

	switch f.Type {
	case protocol.TypeReset:
		s.chat.Reset(session)
		s.logger.Info("Session reset", "session", session)
		return protocol.ResetAck(session, resetMessage)
	default:
		reply, err := s.query(ctx, session, f.Query)
		if err != nil {
			return protocol.Error(session, queryDetail(err))
		}
		return protocol.Response(session, reply)
	}
}

func queryDetail(err error) string {
	return "Error processing query: " + err.Error()
}

func sessionOrDefault(id string) string {
	if id == "" {
		return conversation.DefaultSession
	}
	return id
}

// decodeBody accepts an empty body as "all defaults".
func decodeBody(r *http.Request, v any) error {
	err := json.NewDecoder(io.LimitReader(r.Body, maxBody)).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
