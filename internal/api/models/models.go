package models

import (
	"time"

	domain "github.com/rhymednick/inw-radio-log/internal/models"
)

// SaveUserRequest creates a user when ID is empty and updates it otherwise.
type SaveUserRequest struct {
	ID           string  `json:"id"`
	Name         *string `json:"name"`
	ProfilePhoto string  `json:"profilePhoto"`
}

// DeleteUserRequest identifies the user to delete.
type DeleteUserRequest struct {
	ID string `json:"id"`
}

// CreateRadioRequest adds a radio to the inventory.
type CreateRadioRequest struct {
	ID   string `json:"ID"`
	Name string `json:"Name"`
}

// DeleteRadioRequest identifies the radio to delete.
type DeleteRadioRequest struct {
	ID string `json:"ID"`
}

// CheckOutRequest assigns a radio to a user. Force reassigns a radio that
// is already checked out.
type CheckOutRequest struct {
	UserID string `json:"userID"`
	Force  bool   `json:"force"`
}

// CommentRequest appends a comment to a radio. Kind is empty for a plain
// comment, or "damage" / "nonfunctional" for a report. Author wins over
// UserID; UserID is resolved to the user's display name.
type CommentRequest struct {
	Text   string `json:"text"`
	Kind   string `json:"kind"`
	Author string `json:"author"`
	UserID string `json:"userID"`
}

// AppendLogRequest records a checkout log entry.
type AppendLogRequest struct {
	RadioID   string           `json:"radioID"`
	UserID    string           `json:"userID"`
	Operation domain.Operation `json:"operation"`
}

// InitUsersRequest optionally overrides the configured import directory.
type InitUsersRequest struct {
	Dir string `json:"dir"`
}

// HeldRadio is a radio as shown in a user's list of checked out equipment.
type HeldRadio struct {
	ID               string     `json:"ID"`
	Name             string     `json:"Name"`
	PartiallyDamaged bool       `json:"PartiallyDamaged"`
	Nonfunctional    bool       `json:"Nonfunctional"`
	CheckoutDate     *time.Time `json:"checkout_date"`
	CheckedOutFor    string     `json:"checkedOutFor,omitempty"`
}
