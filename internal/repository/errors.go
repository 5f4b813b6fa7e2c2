package repository

import "errors"

var (
	// ErrOrderEventNotFound marks an absent order snapshot. Callers drop
	// the message: a snapshot never disappears once written, so absence
	// is a data-integrity fault rather than transience.
	ErrOrderEventNotFound = errors.New("order event not found")

	// ErrNoCandidateSign means the pool holds no New-status sign for the
	// requested material variant and seller scope.
	ErrNoCandidateSign = errors.New("no candidate sign found")

	ErrSignEventNotFound    = errors.New("sign event not found")
	ErrProfileEventNotFound = errors.New("profile event not found")
)
