package gateway

import (
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"jobagent/internal/agent"
	"jobagent/internal/jobsearch"
)

type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.SessionID == "" || req.Message == "" {
		writeError(w, http.StatusBadRequest, "session_id and message are required")
		return
	}

	ctx, done, ok := s.startRun(agent.ContextWithChannel(r.Context(), "http"), req.SessionID)
	if !ok {
		writeError(w, http.StatusConflict, "a run is already in progress for this session")
		return
	}
	defer done()

	sse := NewSSEWriter(w)
	var sentError bool

	err := s.assistant.Run(ctx, req.SessionID, req.Message, func(ev agent.Event) {
		switch ev.Type {
		case agent.EventToken:
			text, _ := ev.Data.(string)
			sse.Send("token", map[string]string{"content": text})
		case agent.EventToolCall, agent.EventToolResult, agent.EventTodos:
			sse.Send(string(ev.Type), ev.Data)
		case agent.EventError:
			sentError = true
			msg, _ := ev.Data.(string)
			sse.Send("error", map[string]string{"error": msg})
		case agent.EventDone:
			text, _ := ev.Data.(string)
			sse.Send("done", map[string]string{"content": text})
		}
	})

	if err != nil {
		slog.Warn("chat run failed", "session_id", req.SessionID, "error", err)
		if !sentError {
			sse.Send("error", map[string]string{"error": err.Error()})
		}
	}
}

type agentsResponse struct {
	Model          string                   `json:"model"`
	RecursionLimit int                      `json:"recursion_limit"`
	Tools          []string                 `json:"tools"`
	SubAgents      []jobsearch.SubAgentSpec `json:"sub_agents"`
}

func (s *Server) handleAgents(w http.ResponseWriter, r *http.Request) {
	spec := s.assistant.Spec()
	writeJSON(w, http.StatusOK, agentsResponse{
		Model:          spec.Model,
		RecursionLimit: spec.RecursionLimit,
		Tools:          spec.ToolNames(),
		SubAgents:      spec.SubAgents,
	})
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	if s.sessions == nil {
		writeJSON(w, http.StatusOK, map[string][]string{"sessions": {}})
		return
	}
	ids, err := s.sessions.Sessions(r.Context())
	if err != nil {
		slog.Error("listing sessions", "error", err)
		writeError(w, http.StatusInternalServerError, "listing sessions failed")
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"sessions": ids})
}

func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	files, err := s.assistant.Workspace().List(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if files == nil {
		files = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"files": files})
}

func (s *Server) handleGetFile(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	data, err := s.assistant.Workspace().ReadFile(r.PathValue("id"), name)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		writeError(w, http.StatusNotFound, "file not found")
		return
	case err != nil:
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	contentType := "text/plain; charset=utf-8"
	if strings.EqualFold(path.Ext(name), ".md") {
		contentType = "text/markdown; charset=utf-8"
	}
	w.Header().Set("Content-Type", contentType)
	w.Write(data)
}

func (s *Server) handleTodos(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"todos": s.assistant.Todos().List(r.PathValue("id"))})
}

func (s *Server) handleCancelRun(w http.ResponseWriter, r *http.Request) {
	if !s.cancelRun(r.PathValue("id")) {
		writeError(w, http.StatusNotFound, "no run in progress")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
