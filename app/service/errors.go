package service

import "errors"

var (
	ErrInvalidRequest      = errors.New("invalid request")
	ErrPurposeRequired     = errors.New("purpose must be set")
	ErrReservedMetadataKey = errors.New("metadata uses a reserved key")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrAccountNotFound     = errors.New("account not found")
)
