package coc

import "errors"

// The upstream distinguishes these failure modes by status code; callers
// branch on them with errors.Is, so they must never be collapsed.
var (
	ErrInvalidTag   = errors.New("invalid tag format")
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized token")
	ErrForbidden    = errors.New("forbidden (IP not whitelisted or token invalid)")
	ErrRateLimited  = errors.New("rate limit exceeded")
	ErrTimeout      = errors.New("coc api timeout")
	ErrUnavailable  = errors.New("coc api unavailable")
)
