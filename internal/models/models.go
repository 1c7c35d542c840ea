package models

import (
	"encoding/json"
	"time"
)

// UnknownUserName is shown in place of a user that no longer exists in the registry.
const UnknownUserName = "Unknown user"

// User is a member of the event staff who can check out radios.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	ProfilePhoto string    `json:"profilePhoto"`
	LastUpdated  time.Time `json:"lastUpdated"`
}

// Radio is a single piece of radio equipment in the inventory.
// At most one of PartiallyDamaged and Nonfunctional is true, and CheckoutDate
// is set exactly when CheckedOutUser is set.
type Radio struct {
	ID               string     `json:"ID"`
	Name             string     `json:"Name"`
	Comments         string     `json:"Comments"`
	PartiallyDamaged bool       `json:"PartiallyDamaged"`
	Nonfunctional    bool       `json:"Nonfunctional"`
	CheckedOutUser   *string    `json:"checked_out_user"`
	CheckoutDate     *time.Time `json:"checkout_date"`
}

// IsCheckedOut reports whether the radio is currently assigned to a user.
func (r *Radio) IsCheckedOut() bool {
	return r.CheckedOutUser != nil
}

// Operation is the kind of event recorded in the checkout log.
type Operation string

const (
	OperationCheckOut Operation = "check-out"
	OperationCheckIn  Operation = "check-in"
)

// Valid reports whether o is a known operation.
func (o Operation) Valid() bool {
	return o == OperationCheckOut || o == OperationCheckIn
}

// LogEntry is an immutable audit record of a single check-out or check-in.
type LogEntry struct {
	RadioID   string    `json:"radioID"`
	UserID    string    `json:"userID"`
	Operation Operation `json:"operation"`
	Date      time.Time `json:"date"`
}

// Nullable is a JSON field that tells an absent key apart from an explicit null.
// Set is true whenever the key was present; Value is nil for null.
type Nullable[T any] struct {
	Set   bool
	Value *T
}

// Some returns a Nullable holding v.
func Some[T any](v T) Nullable[T] {
	return Nullable[T]{Set: true, Value: &v}
}

// Null returns a Nullable that was explicitly set to null.
func Null[T any]() Nullable[T] {
	return Nullable[T]{Set: true}
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *Nullable[T]) UnmarshalJSON(data []byte) error {
	n.Set = true
	if string(data) == "null" {
		n.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	n.Value = &v
	return nil
}

// MarshalJSON implements json.Marshaler.
func (n Nullable[T]) MarshalJSON() ([]byte, error) {
	if n.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*n.Value)
}

// RadioPatch carries the fields of an upsert. Nil pointers and unset
// Nullables leave the stored value untouched.
type RadioPatch struct {
	ID               string              `json:"ID"`
	Name             *string             `json:"Name,omitempty"`
	Comments         *string             `json:"Comments,omitempty"`
	PartiallyDamaged *bool               `json:"PartiallyDamaged,omitempty"`
	Nonfunctional    *bool               `json:"Nonfunctional,omitempty"`
	CheckedOutUser   Nullable[string]    `json:"checked_out_user"`
	CheckoutDate     Nullable[time.Time] `json:"checkout_date"`
}
