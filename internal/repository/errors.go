// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as the
// engine and handlers to distinguish between different failure
// scenarios without string matching. Repositories translate
// sql.ErrNoRows into the specific *NotFound sentinel for the entity
// they manage so that callers never need to know which query missed.
package repository

import "errors"

// ErrRoomNotFound is returned when a room lookup yields no rows.
var ErrRoomNotFound = errors.New("room not found")

// ErrBedNotFound is returned when a bed lookup yields no rows.
var ErrBedNotFound = errors.New("bed not found")

// ErrAdmissionNotFound is returned when an admission lookup yields no rows.
var ErrAdmissionNotFound = errors.New("admission not found")

// ErrAssignmentNotFound is returned when an admission has no current
// bed assignment or an assignment lookup yields no rows.
var ErrAssignmentNotFound = errors.New("assignment not found")
