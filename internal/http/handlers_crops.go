package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"khetbook/internal/crop"
)

type statusRequest struct {
	Status string `json:"status"`
}

func (s *Server) handleListCrops(w http.ResponseWriter, r *http.Request) {
	out, err := s.crops.List(r.Context(), mustAccountID(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if out == nil {
		out = []crop.Record{}
	}
	writeJSON(w, http.StatusOK, out)
}

// handleCreateCrop stores a new crop. Its status always starts as active.
func (s *Server) handleCreateCrop(w http.ResponseWriter, r *http.Request) {
	var d crop.Draft
	if err := decodeJSON(w, r, &d); err != nil {
		s.writeError(w, r, err)
		return
	}
	c, err := s.crops.Create(r.Context(), mustAccountID(r), d)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleSetCropStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	target, err := crop.ParseStatus(req.Status)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	c, err := s.crops.SetStatus(r.Context(), mustAccountID(r), chi.URLParam(r, "id"), target)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleDeleteCrop(w http.ResponseWriter, r *http.Request) {
	if err := s.crops.Delete(r.Context(), mustAccountID(r), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
