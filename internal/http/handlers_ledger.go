package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"khetbook/internal/ledger"
)

// ledgerRoutes mounts the record endpoints of one kind. Expenses and
// incomes share the handlers; the kind pins the accepted categories.
func (s *Server) ledgerRoutes(kind ledger.Kind) func(chi.Router) {
	return func(lr chi.Router) {
		lr.Get("/", s.handleListRecords(kind))
		lr.Post("/", s.handleCreateRecord(kind))
		lr.Get("/{id}", s.handleGetRecord(kind))
		lr.Put("/{id}", s.handleUpdateRecord(kind))
		lr.Delete("/{id}", s.handleDeleteRecord(kind))
	}
}

func (s *Server) handleListRecords(kind ledger.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := s.ledger.List(r.Context(), mustAccountID(r), kind, queryParam(r, "cropId"))
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		if out == nil {
			out = []ledger.Record{}
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func (s *Server) handleGetRecord(kind ledger.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, err := s.ledger.Get(r.Context(), mustAccountID(r), kind, chi.URLParam(r, "id"))
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

// handleCreateRecord re-validates the body and derives its total; totals
// sent by the client are ignored.
func (s *Server) handleCreateRecord(kind ledger.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in ledger.Record
		if err := decodeJSON(w, r, &in); err != nil {
			s.writeError(w, r, err)
			return
		}
		rec, err := s.ledger.Create(r.Context(), mustAccountID(r), kind, in)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, rec)
	}
}

func (s *Server) handleUpdateRecord(kind ledger.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in ledger.Record
		if err := decodeJSON(w, r, &in); err != nil {
			s.writeError(w, r, err)
			return
		}
		rec, err := s.ledger.Update(r.Context(), mustAccountID(r), kind, chi.URLParam(r, "id"), in)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

func (s *Server) handleDeleteRecord(kind ledger.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.ledger.Delete(r.Context(), mustAccountID(r), kind, chi.URLParam(r, "id")); err != nil {
			s.writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
