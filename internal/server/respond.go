package server

import (
	"encoding/json"
	"net/http"

	"github.com/Nick-McCarthy/M-Stash-sub001/internal/logging"
	"github.com/Nick-McCarthy/M-Stash-sub001/internal/services"
)

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message, details string) {
	s.writeJSON(w, status, errorResponse{Error: message, Details: details})
}

// writeServiceError maps a service error onto the response taxonomy and logs
// it with the request id.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, operation string, err error) {
	status := services.HTTPStatus(err)
	requestID, _ := services.RequestIDFromContext(r.Context())
	attrs := logging.Args(
		logging.String("operation", operation),
		logging.String(logging.FieldRequestID, requestID),
		logging.Error(err),
	)
	if status >= 500 {
		s.logger.Error("request failed", attrs...)
	} else {
		s.logger.Warn("request rejected", attrs...)
	}
	s.writeError(w, status, http.StatusText(status), err.Error())
}
