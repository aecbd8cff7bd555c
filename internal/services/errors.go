package services

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrConflict           = errors.New("already exists")
	ErrUnknownQuestion    = errors.New("unknown question")
	ErrInvalidInput       = errors.New("invalid input")
)
