package http

import (
	"net/http"
)

type otpRequest struct {
	Phone string `json:"phone"`
}

type verifyRequest struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// handleRequestOTP sends a one-time code to the given phone number.
func (s *Server) handleRequestOTP(w http.ResponseWriter, r *http.Request) {
	var req otpRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.auth.RequestOTP(r.Context(), sanitizeInput(req.Phone)); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusAccepted, "code sent")
}

// handleVerifyOTP exchanges a valid code for a session token.
func (s *Server) handleVerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	token, err := s.auth.Verify(r.Context(), sanitizeInput(req.Phone), sanitizeInput(req.Code))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Token: token})
}
