package errs

import (
	"errors"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrUnavailable  = errors.New("no copies available")
	ErrInvalidState = errors.New("operation not allowed in current loan state")
	ErrRenewalLimit = errors.New("renewal limit reached")
	ErrAlreadyTaken = errors.New("already taken")
	ErrBadLogin     = errors.New("invalid username or password")
)
