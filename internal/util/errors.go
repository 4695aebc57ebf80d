package util

import "errors"

var (
	ErrAttemptNotFound  = errors.New("attempt not found")
	ErrResponseNotFound = errors.New("response not found")
	ErrNoResponses      = errors.New("attempt has no responses")
)
