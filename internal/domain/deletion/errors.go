package deletion

import "errors"

var (
	ErrSubjectNotFound = errors.New("subject not found")
	ErrRequestNotFound = errors.New("deletion request not found")
	ErrNotRequestOwner = errors.New("request does not belong to subject")
	ErrInvalidState    = errors.New("deletion request is not in a valid state for this operation")
	ErrLegalHold       = errors.New("subject is under an active legal hold")
)
