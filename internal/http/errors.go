package http

import (
	"errors"
	"net/http"

	"khetbook/internal/auth"
	"khetbook/internal/crop"
	"khetbook/internal/ledger"
	"khetbook/internal/location"
	"khetbook/internal/log"
	"khetbook/internal/repository"
	"khetbook/internal/services"
)

// writeError maps domain errors to status codes. Anything unrecognised is
// logged and reported as a 500 without details.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *ledger.ValidationError
	if errors.As(err, &verr) {
		writeMessage(w, http.StatusBadRequest, verr.Message())
		return
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, services.ErrInvalidInput),
		errors.Is(err, services.ErrUnknownCrop),
		errors.Is(err, ledger.ErrPayloadMismatch),
		errors.Is(err, crop.ErrInvalidStatus),
		errors.Is(err, crop.ErrInvalidSeason),
		errors.Is(err, crop.ErrInvalidUnit),
		errors.Is(err, location.ErrUnknownLocation),
		errors.Is(err, auth.ErrInvalidPhone):
		status = http.StatusBadRequest
	case errors.Is(err, auth.ErrInvalidCode), errors.Is(err, auth.ErrInvalidToken):
		status = http.StatusUnauthorized
	case errors.Is(err, auth.ErrTooManyAttempts):
		status = http.StatusTooManyRequests
	case errors.Is(err, repository.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, repository.ErrConflict):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldError, err)
		writeMessage(w, status, "something went wrong, please try again")
		return
	}
	writeMessage(w, status, err.Error())
}
