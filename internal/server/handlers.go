package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/tradelm/tradelm-ai/internal/chat"
	"github.com/tradelm/tradelm-ai/internal/llm"
	"github.com/tradelm/tradelm-ai/internal/tagging"
)

// --- JSON helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// mapStatus translates a core error into an HTTP status once, at the
// boundary. Provider failures map to 502, an uninitialized gateway and
// everything uncategorized to 500.
func mapStatus(err error) int {
	var lerr *llm.Error
	if errors.As(err, &lerr) {
		switch lerr.Kind {
		case llm.KindProvider:
			return http.StatusBadGateway
		case llm.KindUnavailable:
			return http.StatusInternalServerError
		}
	}
	return http.StatusInternalServerError
}

// --- Handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": ServiceName})
}

func (s *Server) handleTagTrade(w http.ResponseWriter, r *http.Request) {
	var req tagging.Request
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, "notes is required")
		return
	}

	tags, err := s.tagger.Tag(r.Context(), req.Notes)
	if err != nil {
		s.logger.Error("tagging failed",
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("error", err.Error()),
		)
		writeError(w, mapStatus(err), "tagging failed: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, tagging.Response{Tags: tags})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "session_id")

	var req chat.Request
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, "user_id, user_plan and new_message are required")
		return
	}

	reply, err := s.orch.Respond(r.Context(), req)
	if err != nil {
		s.logger.Error("chat failed",
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("session_id", sessionID),
			slog.String("user_id", req.UserID),
			slog.String("error", err.Error()),
		)
		writeError(w, mapStatus(err), "chat processing failed: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, reply)
}
