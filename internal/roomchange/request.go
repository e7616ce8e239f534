package roomchange

import "time"

// Request states. Approved and rejected are terminal; a terminal request
// only disappears when the student clears their notification.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Request is a student's room-change request.
type Request struct {
	ID        string    `json:"id"`
	StudentID string    `json:"studentId"`
	NewRoom   string    `json:"newRoom"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ListItem is a request joined with the owning student's identity, for the
// warden review list.
type ListItem struct {
	ID          string    `json:"id"`
	RegNo       string    `json:"regNo"`
	Name        string    `json:"name"`
	Dept        string    `json:"dept"`
	CurrentRoom string    `json:"currentRoom"`
	NewRoom     string    `json:"newRoom"`
	Status      string    `json:"status"`
	RequestedAt time.Time `json:"requestedAt"`
}
