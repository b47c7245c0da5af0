package model

import "errors"

// Sentinel errors surfaced by the service layer. Handlers map these
// to HTTP status codes with errors.Is; anything else is a storage or
// internal failure.
var (
	ErrNotFound            = errors.New("not found")
	ErrForbidden           = errors.New("forbidden")
	ErrInvalidInput        = errors.New("invalid input")
	ErrAlreadyHasAccess    = errors.New("requester already has access")
	ErrDuplicatePending    = errors.New("access request already pending")
	ErrAlreadyProcessed    = errors.New("access request already processed")
	ErrAlreadyCollaborator = errors.New("user is already a collaborator")
)
