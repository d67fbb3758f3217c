package domain

import "errors"

var (
	ErrValidation   = errors.New("validation error")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrJobRunning   = errors.New("generation job already running")
	ErrCollaborator = errors.New("collaborator unavailable")
)
