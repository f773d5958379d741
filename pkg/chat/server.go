// Copyright 2026 © The HRBot Authors
// SPDX-License-Identifier: Apache-2.0

// Package chat exposes the assistant over HTTP+JSON. The transport is
// a thin layer: registration and commands are handled here, everything
// else is delegated to the agent.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/seritra/hrbot/pkg/agent"
	"github.com/seritra/hrbot/pkg/hr"
)

// Assistant handles one message for one principal.
type Assistant interface {
	HandleExchange(ctx context.Context, emp *hr.Employee, text string) (string, error)
}

const (
	msgRegisterFirst     = "Please register first. Send your Employee ID."
	msgRegisterFirstHelp = "Please register first by sending your Employee ID."
	msgNotLinked         = "You are not linked to any account."
	msgUnlinked          = "Account disconnected. Send your Employee ID to link again."
	msgEmployeeNotFound  = "Employee not found. Check your Employee ID."
	msgAgentError        = "Sorry, I encountered an error. Please try again or use /help"

	helpFallback = "I can help you with:\n- Leave balance\n- Employee info\n- Salary details\n- Leave requests"
)

// Server is the HTTP chat endpoint.
type Server struct {
	directory hr.Directory
	assistant Assistant
	sessions  *agent.SessionCache
	logger    *slog.Logger
}

// NewServer creates a chat server.
func NewServer(directory hr.Directory, assistant Assistant, sessions *agent.SessionCache, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		directory: directory,
		assistant: assistant,
		sessions:  sessions,
		logger:    logger,
	}
}

type messageRequest struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

type messageResponse struct {
	Text string `json:"text"`
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/v1/messages" && r.Method == http.MethodPost:
		s.handleMessage(w, r)
	case r.URL.Path == "/healthz" && r.Method == http.MethodGet:
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	req.Text = strings.TrimSpace(req.Text)
	if req.ChatID == "" || req.Text == "" {
		writeError(w, http.StatusBadRequest, "chat_id and text are required")
		return
	}

	reply, err := s.reply(r.Context(), req.ChatID, req.Text)
	if err != nil {
		s.logger.Error("message handling failed", "chat_id", req.ChatID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Text: reply})
}

// reply routes one message: commands, registration, then the agent.
func (s *Server) reply(ctx context.Context, chatID, text string) (string, error) {
	switch text {
	case "/start":
		return s.handleStart(ctx, chatID)
	case "/help":
		return s.handleHelp(ctx, chatID)
	case "/unlink":
		return s.handleUnlink(ctx, chatID)
	}

	emp, err := s.resolve(ctx, chatID)
	if err != nil {
		return "", err
	}

	if isEmployeeID(text) {
		return s.handleRegister(ctx, chatID, emp, text)
	}

	if emp == nil {
		return msgRegisterFirst, nil
	}

	reply, err := s.assistant.HandleExchange(ctx, emp, text)
	if err != nil {
		s.logger.Error("exchange failed", "chat_id", chatID, "employee_id", emp.ID, "error", err)
		return msgAgentError, nil
	}
	return reply, nil
}

func (s *Server) handleStart(ctx context.Context, chatID string) (string, error) {
	emp, err := s.resolve(ctx, chatID)
	if err != nil {
		return "", err
	}
	if emp == nil {
		return "Welcome to HR Bot!\n\nSend your Employee ID to link your account.\nExample: 123", nil
	}
	return fmt.Sprintf("Welcome back, %s!\n\n"+
		"I'm your HR assistant. Just chat naturally, in Arabic or English.\n\n"+
		"Examples:\n"+
		"- What's my leave balance?\n"+
		"- Show me my salary\n\n"+
		"Commands: /unlink to disconnect", emp.FullName), nil
}

func (s *Server) handleHelp(ctx context.Context, chatID string) (string, error) {
	emp, err := s.resolve(ctx, chatID)
	if err != nil {
		return "", err
	}
	if emp == nil {
		return msgRegisterFirstHelp, nil
	}
	// Even help goes through the agent; a canned list is the fallback.
	reply, err := s.assistant.HandleExchange(ctx, emp, "What can you help me with?")
	if err != nil {
		s.logger.Warn("help exchange failed", "chat_id", chatID, "error", err)
		return helpFallback, nil
	}
	return reply, nil
}

func (s *Server) handleUnlink(ctx context.Context, chatID string) (string, error) {
	emp, err := s.resolve(ctx, chatID)
	if err != nil {
		return "", err
	}
	if emp == nil {
		return msgNotLinked, nil
	}
	if err := s.directory.UnlinkChat(ctx, chatID); err != nil && !errors.Is(err, hr.ErrNotFound) {
		return "", err
	}
	s.sessions.Evict(chatID)
	return msgUnlinked, nil
}

func (s *Server) handleRegister(ctx context.Context, chatID string, linked *hr.Employee, text string) (string, error) {
	if linked != nil {
		return fmt.Sprintf("Already linked to %s.\nUse /unlink first to change.", linked.FullName), nil
	}

	employeeID, _ := strconv.ParseInt(text, 10, 64)
	emp, err := s.directory.GetEmployee(ctx, employeeID)
	if err != nil {
		if errors.Is(err, hr.ErrNotFound) {
			return msgEmployeeNotFound, nil
		}
		return "", err
	}

	if err := s.directory.LinkChat(ctx, emp.ID, chatID); err != nil {
		return "", err
	}
	s.logger.Info("chat linked", "chat_id", chatID, "employee_id", emp.ID)

	return fmt.Sprintf("Welcome, %s!\n\n"+
		"Your assistant is ready. Try asking:\n"+
		"- What's my balance?\n"+
		"- Request 3 days leave next week", emp.FullName), nil
}

// resolve returns the linked principal for a chat, or nil when the
// chat is not registered. Lookups go through the session cache.
func (s *Server) resolve(ctx context.Context, chatID string) (*hr.Employee, error) {
	emp, err := s.sessions.Get(chatID, func() (*hr.Employee, error) {
		return s.directory.GetEmployeeByChatID(ctx, chatID)
	})
	if err != nil {
		if errors.Is(err, hr.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return emp, nil
}

// isEmployeeID reports whether text looks like an employee identifier:
// digits only, at most ten of them.
func isEmployeeID(text string) bool {
	if len(text) == 0 || len(text) > 10 {
		return false
	}
	for _, r := range text {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
