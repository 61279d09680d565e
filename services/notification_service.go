package services

import (
	"fmt"
	"log/slog"

	"studyhub/contract"
	"studyhub/domain"
	apperrors "studyhub/errors"
)

type INotificationService interface {
	Notify(recipientID int, t domain.NotificationType, payload any) error
}

// NotificationService pushes transient events (friend requests, study
// invites, admin replies) to the recipient's live channel, if any.
// Delivery is best-effort; only an out-of-enumeration type is an error.
type NotificationService struct {
	log      *slog.Logger
	registry contract.IRegistry
}

func NewNotificationService(log *slog.Logger, registry contract.IRegistry) *NotificationService {
	return &NotificationService{log: log, registry: registry}
}

func (s *NotificationService) Notify(recipientID int, t domain.NotificationType, payload any) error {
	if _, ok := t.EventName(); !ok {
		return fmt.Errorf("%w: %q", apperrors.ErrUnknownNotificationType, string(t))
	}
	s.registry.Send(recipientID, t, payload)
	return nil
}
