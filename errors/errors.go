package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrWorkerPanic             = fmt.Errorf("worker panic")
	ErrRoomNotFound            = fmt.Errorf("chat room not found")
	ErrMessageNotFound         = fmt.Errorf("chat message not found")
	ErrNotRoomMember           = fmt.Errorf("user is not a member of the room")
	ErrUnknownNotificationType = fmt.Errorf("unknown notification type")
)

// MapToHTTPStatus translates domain errors to transport status codes.
// Unknown errors are reported as internal faults.
func MapToHTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrRoomNotFound), errors.Is(err, ErrMessageNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrNotRoomMember):
		return http.StatusForbidden
	case errors.Is(err, ErrUnknownNotificationType):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
