package account

import "time"

// Roles stored on accounts.
const (
	RoleStudent = "student"
	RoleWarden  = "warden"
)

// Account is a student or warden identity record. Warden rows carry an
// email-like identifier in RegNo and leave the hostel fields empty.
type Account struct {
	ID            string    `json:"id"`
	RegNo         string    `json:"regNo"`
	Name          string    `json:"name"`
	ParentMobile  string    `json:"parentMobile,omitempty"`
	StudentMobile string    `json:"studentMobile,omitempty"`
	RoomNo        string    `json:"roomNo,omitempty"`
	Floor         string    `json:"floor,omitempty"`
	Warden        string    `json:"warden,omitempty"`
	Dept          string    `json:"dept,omitempty"`
	PasswordHash  string    `json:"-"`
	Role          string    `json:"role"`
	CreatedAt     time.Time `json:"createdAt"`
}
