// Package model defines the core domain types for the studio booking system.
package model

import (
	"time"

	"github.com/Shivanand-hulikatti/studio-booking/internal/timezone"
	"github.com/google/uuid"
)

// Class is one scheduled offering. StartTime is canonical (UTC) in storage
// and may be re-zoned for presentation.
type Class struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	StartTime      time.Time `json:"dateTime"`
	Instructor     string    `json:"instructor"`
	AvailableSlots int       `json:"availableSlots"`
}

// HasCapacity reports whether at least one slot remains.
func (c *Class) HasCapacity() bool {
	return c.AvailableSlots > 0
}

// Booking is one client's reservation of one slot in a class.
type Booking struct {
	ID          int64     `json:"id"`
	Reference   uuid.UUID `json:"reference"`
	ClassID     int64     `json:"class_id"`
	ClientName  string    `json:"client_name"`
	ClientEmail string    `json:"client_email"`
	CreatedAt   time.Time `json:"created_at"`
}

// CreateClassRequest is the payload for creating a class. StartTime may be
// naive, in which case the studio zone is assumed.
type CreateClassRequest struct {
	Name           string            `json:"name" validate:"required,max=200"`
	StartTime      timezone.DateTime `json:"dateTime"`
	Instructor     string            `json:"instructor" validate:"required,max=200"`
	AvailableSlots *int              `json:"availableSlots" validate:"required,min=0"`
}

// NewClass is what the repository persists: a validated, canonicalised class.
type NewClass struct {
	Name           string
	StartTime      time.Time
	Instructor     string
	AvailableSlots int
}

// BookRequest is the payload for booking a slot. ClassID is a pointer so an
// omitted id is a validation error while any integer, 0 included, is looked up.
type BookRequest struct {
	ClassID     *int64 `json:"class_id" validate:"required"`
	ClientName  string `json:"client_name" validate:"required,max=200"`
	ClientEmail string `json:"client_email" validate:"required,email,max=254"`
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}
