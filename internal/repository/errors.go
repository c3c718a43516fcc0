// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers and the booking coordinator to distinguish between different
// failure scenarios without inspecting driver-specific errors.
package repository

import "errors"

// ErrNotFound is returned when a requested record does not exist.
// Handlers should translate this into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when the caller attempts an operation
// on a resource they are not allowed to touch. Handlers should
// translate this into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrCapacityTooLow is returned when staff try to set a day's capacity
// below the number of guests already reserved for it. Handlers should
// translate this into an HTTP 400 response.
var ErrCapacityTooLow = errors.New("capacity below reserved guests")

// ErrDuplicateRoomBooking is returned when a room already holds an
// active reservation for the requested date. Only one dinner booking
// per room per day is allowed across all restaurants.
var ErrDuplicateRoomBooking = errors.New("room already booked for this date")
