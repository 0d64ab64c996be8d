package domain

import "errors"

var (
	ErrClientNotFound = errors.New("client not found")
	ErrInvalidStatus  = errors.New("invalid client status")
	ErrInvalidAmount  = errors.New("amount must be a positive number")
)
