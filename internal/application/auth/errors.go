package auth

import "errors"

var (
	ErrPasscodeRequired  = errors.New("Passcode and name are required")
	ErrInvalidActor      = errors.New("Name contains unsupported characters")
	ErrIncorrectPasscode = errors.New("Incorrect passcode")
	ErrGateNotConfigured = errors.New("Passcode gate is not configured")
	ErrNotAuthenticated  = errors.New("Not authenticated")
)
