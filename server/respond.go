package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/bitfsorg/libfactory-go/derive"
	"github.com/bitfsorg/libfactory-go/factory"
	"github.com/bitfsorg/libfactory-go/ident"
	"github.com/bitfsorg/libfactory-go/registry"
)

type errorBody struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	id := RequestID(r.Context())
	ev := s.log.Info()
	if status >= http.StatusInternalServerError {
		ev = s.log.Error()
	}
	ev.Err(err).Str("request_id", id).Int("status", status).Msg("request failed")
	writeJSON(w, status, errorBody{Error: err.Error(), RequestID: id})
}

// StatusFor maps an error to its HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, ErrMissingHeaders),
		errors.Is(err, ErrInvalidPubKey),
		errors.Is(err, ErrBadSignature),
		errors.Is(err, ErrReplayedNonce):
		return http.StatusUnauthorized
	case errors.Is(err, factory.ErrAccessDenied):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, registry.ErrAddressOccupied),
		errors.Is(err, factory.ErrTypeExists),
		errors.Is(err, factory.ErrAlreadyPaused),
		errors.Is(err, factory.ErrNotPaused),
		errors.Is(err, factory.ErrReentrancy):
		return http.StatusConflict
	case errors.Is(err, factory.ErrPaused),
		errors.Is(err, factory.ErrNotInitialized),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, ErrUnknownAction),
		errors.Is(err, factory.ErrInvalidRoyalty),
		errors.Is(err, factory.ErrInvalidType),
		errors.Is(err, factory.ErrInvalidParams),
		errors.Is(err, factory.ErrSplitterFail),
		errors.Is(err, ident.ErrInvalidIdentity),
		errors.Is(err, derive.ErrInvalidSalt),
		errors.Is(err, registry.ErrInvalidColID),
		errors.Is(err, registry.ErrIndexOutOfRange):
		return http.StatusBadRequest
	case errors.Is(err, factory.ErrConstruction):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}
