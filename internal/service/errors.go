package service

import "errors"

// Domain error taxonomy. Handlers map these to HTTP status codes at the
// route boundary; nothing below the boundary knows about HTTP.
var (
	ErrValidation        = errors.New("validation")               // 400
	ErrUnauthorized      = errors.New("unauthorized")             // 401
	ErrForbidden         = errors.New("forbidden")                // 403
	ErrNotFound          = errors.New("not found")                // 404
	ErrConflict          = errors.New("conflict")                 // 409
	ErrInsufficientStock = errors.New("insufficient stock")       // 400
	ErrInvalidTransition = errors.New("invalid state transition") // 400
	ErrRateLimited       = errors.New("rate limited")             // 429
)
