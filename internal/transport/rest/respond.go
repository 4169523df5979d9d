package rest

import (
	"errors"
	"net/http"

	"github.com/heartmarshall/presence-dashboard/internal/domain"
)

type errorResponse struct {
	Error         string                `json:"error"`
	Class         string                `json:"class,omitempty"`
	Notifications []domain.Notification `json:"notifications,omitempty"`
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// statusFor maps a dashboard error onto an HTTP status. A missing table is
// not a transport failure: the warning already sits in the notification
// list, so it is reported as 200.
func statusFor(err error) int {
	if errors.Is(err, domain.ErrUnknownSection) {
		return http.StatusNotFound
	}
	switch domain.Classify(err) {
	case domain.ClassNone, domain.ClassRelationMissing:
		return http.StatusOK
	case domain.ClassValidation:
		return http.StatusBadRequest
	case domain.ClassNoSession, domain.ClassAuthExpired:
		return http.StatusUnauthorized
	case domain.ClassPermissionDenied:
		return http.StatusForbidden
	case domain.ClassSaveInProgress:
		return http.StatusConflict
	case domain.ClassNotFoundEmpty:
		return http.StatusNotFound
	}
	return http.StatusBadGateway
}
