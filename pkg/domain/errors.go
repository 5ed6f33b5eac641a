package domain

import "errors"

// ErrUnknownStation is returned when an event references a station that is not provisioned.
var ErrUnknownStation = errors.New("unknown station")

// ErrUnknownEvent is returned when an inbound event kind has no handler.
var ErrUnknownEvent = errors.New("unknown event kind")

// ErrItemNotFound is returned when an item ID has never been observed.
var ErrItemNotFound = errors.New("item not found")

// ErrInvalidStatus is returned when a station status is neither online nor offline.
var ErrInvalidStatus = errors.New("invalid station status")

// ErrInvalidLifecycle is returned when a station sequence cannot form a lifecycle.
var ErrInvalidLifecycle = errors.New("invalid lifecycle")

// ErrInvalidEvent is returned when an inbound event lacks a required field.
var ErrInvalidEvent = errors.New("invalid event")
