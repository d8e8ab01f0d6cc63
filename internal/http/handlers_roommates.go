package http

import (
	"fmt"
	"net/http"

	"room8/internal/core"
	"room8/internal/log"
	"room8/internal/services"
)

type roommateRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Color string `json:"color"`
}

// roommateUpdateRequest leaves absent fields unchanged.
type roommateUpdateRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Color    *string `json:"color"`
	IsActive *bool   `json:"isActive"`
}

func (s *Server) handleListRoommates(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Data(nonNil(s.household.Roommates())).Write(w)
}

func (s *Server) handleGetRoommate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	p, ok := s.household.Roommate(id)
	if !ok {
		writeError(w, r, fmt.Errorf("roommate %s: %w", id, core.ErrNotFound), log.OpRead)
		return
	}
	NewJSONResponse().Data(p).Write(w)
}

func (s *Server) handleAddRoommate(w http.ResponseWriter, r *http.Request) {
	var req roommateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, log.OpCreate)
		return
	}

	p, err := s.household.AddRoommate(r.Context(),
		sanitizeInput(req.Name), sanitizeInput(req.Email), sanitizeInput(req.Color))
	if err != nil {
		writeError(w, r, err, log.OpCreate)
		return
	}
	Created(p).Write(w)
}

func (s *Server) handleUpdateRoommate(w http.ResponseWriter, r *http.Request) {
	var req roommateUpdateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, log.OpUpdate)
		return
	}

	p, err := s.household.UpdateRoommate(r.Context(), r.PathValue("id"), services.RoommateUpdate{
		Name:     sanitizePtr(req.Name),
		Email:    sanitizePtr(req.Email),
		Color:    sanitizePtr(req.Color),
		IsActive: req.IsActive,
	})
	if err != nil {
		writeError(w, r, err, log.OpUpdate)
		return
	}
	NewJSONResponse().Data(p).Write(w)
}

// handleRemoveRoommate also unassigns the roommate's chores.
func (s *Server) handleRemoveRoommate(w http.ResponseWriter, r *http.Request) {
	if err := s.household.RemoveRoommate(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err, log.OpDelete)
		return
	}
	NoContent().Write(w)
}
