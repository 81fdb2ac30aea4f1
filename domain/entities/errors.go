package entities

import (
	"errors"
)

// Business-rule failures surfaced to callers as structured results. Storage
// failures are plain wrapped errors from the repository layer.
var (
	// ErrUnknownActionKind is returned for a catalog lookup miss. It must
	// abort the flow before any point mutation happens.
	ErrUnknownActionKind = errors.New("unknown action kind")

	// ErrEmptyBatch is returned when a sanction batch is committed with
	// nothing accumulated.
	ErrEmptyBatch = errors.New("no sanctions selected")

	// ErrInvalidScheduleExpression is returned for a malformed rotation
	// schedule, before any running timer is replaced.
	ErrInvalidScheduleExpression = errors.New("invalid schedule expression")

	// ErrRecipientBlocked marks a report delivery that failed because the
	// recipient cannot be messaged; it triggers removal from the set.
	ErrRecipientBlocked = errors.New("recipient cannot be messaged")
)
