package domain

import "errors"

var (
	// ErrNotFound is returned by every repository when the row does not exist
	ErrNotFound = errors.New("record not found")

	// ErrNotAssigned is returned when a facility manager touches a request of a property they do not manage
	ErrNotAssigned = errors.New("request is not assigned to this facility manager")

	// ErrInvalidTransition is returned for a status change the request lifecycle forbids
	ErrInvalidTransition = errors.New("invalid service request status transition")
)
