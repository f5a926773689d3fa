package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound        = errors.New("entity not found")
	ErrAuthRequired    = errors.New("no bearer credential available")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrUnavailable     = errors.New("backend unavailable")
	ErrAlreadyExists   = errors.New("entity already exists")
)
