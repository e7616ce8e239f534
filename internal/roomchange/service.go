package roomchange

import (
	"context"
	"strings"

	"hosteldesk/internal/account"
	"hosteldesk/internal/apperr"
	"hosteldesk/internal/metrics"
)

// Store is the persistence surface the service needs.
type Store interface {
	Create(ctx context.Context, req Request) (Request, error)
	Get(ctx context.Context, id string) (*Request, error)
	PendingFor(ctx context.Context, studentID string) (*Request, error)
	LatestTerminalFor(ctx context.Context, studentID string) (*Request, error)
	DeleteTerminalFor(ctx context.Context, studentID string) (int, error)
	List(ctx context.Context, status string) ([]ListItem, error)
	Approve(ctx context.Context, id string) (*Request, error)
	Reject(ctx context.Context, id string) (*Request, error)
}

// Directory resolves student accounts for precondition checks.
type Directory interface {
	Get(ctx context.Context, id string) (account.Account, error)
}

// Service implements the room-change request workflow.
type Service struct {
	store    Store
	accounts Directory
}

// NewService creates a service.
func NewService(store Store, accounts Directory) *Service {
	return &Service{store: store, accounts: accounts}
}

// Submit creates a pending request for the student. The new room must be
// non-empty, differ from the current room, and the student must not already
// have a pending request.
func (s *Service) Submit(ctx context.Context, studentID, newRoom string) (Request, error) {
	newRoom = strings.TrimSpace(newRoom)
	if newRoom == "" {
		return Request{}, apperr.Validation("new room is required")
	}
	student, err := s.accounts.Get(ctx, studentID)
	if err != nil {
		return Request{}, err
	}
	if student.RoomNo == newRoom {
		return Request{}, apperr.Validation("already in this room")
	}
	pending, err := s.store.PendingFor(ctx, studentID)
	if err != nil {
		return Request{}, err
	}
	if pending != nil {
		return Request{}, apperr.Conflict("room change request already pending")
	}
	req, err := s.store.Create(ctx, Request{StudentID: studentID, NewRoom: newRoom})
	if err != nil {
		return Request{}, err
	}
	metrics.RoomChangeTransitions.WithLabelValues(StatusPending).Inc()
	return req, nil
}

// Approve transitions a pending request to approved and moves the student
// to the requested room. Both effects commit together.
func (s *Service) Approve(ctx context.Context, id string) (Request, error) {
	return s.transition(ctx, id, s.store.Approve, StatusApproved)
}

// Reject transitions a pending request to rejected.
func (s *Service) Reject(ctx context.Context, id string) (Request, error) {
	return s.transition(ctx, id, s.store.Reject, StatusRejected)
}

func (s *Service) transition(ctx context.Context, id string,
	apply func(context.Context, string) (*Request, error), to string) (Request, error) {

	req, err := apply(ctx, id)
	if err != nil {
		return Request{}, err
	}
	if req == nil {
		existing, err := s.store.Get(ctx, id)
		if err != nil {
			return Request{}, err
		}
		if existing == nil {
			return Request{}, apperr.NotFound("request not found")
		}
		return Request{}, apperr.Conflict("request already processed")
	}
	metrics.RoomChangeTransitions.WithLabelValues(to).Inc()
	return *req, nil
}

// PendingStatus reports whether the student has a pending request and its
// target room.
type PendingStatus struct {
	Pending bool    `json:"pending"`
	NewRoom *string `json:"newRoom"`
}

// Pending returns the student's current pending request, if any.
func (s *Service) Pending(ctx context.Context, studentID string) (PendingStatus, error) {
	req, err := s.store.PendingFor(ctx, studentID)
	if err != nil {
		return PendingStatus{}, err
	}
	if req == nil {
		return PendingStatus{Pending: false}, nil
	}
	return PendingStatus{Pending: true, NewRoom: &req.NewRoom}, nil
}

// Notification is the one-shot payload for a decided request. It renders on
// every poll until the student clears it.
type Notification struct {
	HasNotification bool   `json:"hasNotification"`
	Status          string `json:"status,omitempty"`
	NewRoom         string `json:"newRoom,omitempty"`
}

// Notification returns the student's most recently decided request, if any.
func (s *Service) Notification(ctx context.Context, studentID string) (Notification, error) {
	req, err := s.store.LatestTerminalFor(ctx, studentID)
	if err != nil {
		return Notification{}, err
	}
	if req == nil {
		return Notification{HasNotification: false}, nil
	}
	return Notification{HasNotification: true, Status: req.Status, NewRoom: req.NewRoom}, nil
}

// ClearNotifications deletes the student's decided requests. Clearing is
// explicit so the client can keep rendering the dialog across polls until
// the student acknowledges it.
func (s *Service) ClearNotifications(ctx context.Context, studentID string) error {
	_, err := s.store.DeleteTerminalFor(ctx, studentID)
	return err
}

// List returns requests for the warden review screen, newest first.
func (s *Service) List(ctx context.Context, status string) ([]ListItem, error) {
	if status != "" && status != StatusPending && status != StatusApproved && status != StatusRejected {
		return nil, apperr.Validation("unknown status filter")
	}
	return s.store.List(ctx, status)
}
