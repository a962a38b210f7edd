package errors

import "fmt"

var (
	ErrValidation        = fmt.Errorf("validation error")
	ErrDuplicateResource = fmt.Errorf("duplicate resource")
	ErrNotFound          = fmt.Errorf("not found")
	ErrUnauthorized      = fmt.Errorf("unauthorized")
	ErrPersistence       = fmt.Errorf("persistence failure")

	ErrDuplicateDevice    = fmt.Errorf("%w: device already registered", ErrDuplicateResource)
	ErrGroupAlreadyExists = fmt.Errorf("%w: group already exists", ErrDuplicateResource)

	ErrInvalidCredentials  = fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
	ErrFingerprintMismatch = fmt.Errorf("%w: fingerprint mismatch", ErrUnauthorized)
	ErrSuspiciousDevice    = fmt.Errorf("%w: suspicious device change", ErrUnauthorized)
	ErrNotMember           = fmt.Errorf("%w: session is not a group member", ErrUnauthorized)

	ErrUnknownSession = fmt.Errorf("%w: unknown session", ErrNotFound)
	ErrUnknownGroup   = fmt.Errorf("%w: unknown group", ErrNotFound)
	ErrUnknownDevice  = fmt.Errorf("%w: unknown device", ErrNotFound)

	ErrRateLimited  = fmt.Errorf("rate limit exceeded")
	ErrSessionLimit = fmt.Errorf("too many sessions for device")
	ErrSinkFull     = fmt.Errorf("session sink full")
	ErrWorkerPanic  = fmt.Errorf("worker panic")
	ErrEmptyWords   = fmt.Errorf("no words have been found")
)
