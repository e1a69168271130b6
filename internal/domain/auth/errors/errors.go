package errors

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrInternal         = errors.New("internal error")
	ErrNotFound         = errors.New("not found")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrConflict         = errors.New("username already exists")
	ErrCreateFailed     = errors.New("registration failed")
	ErrCacheUnavailable = errors.New("cache unavailable")
	ErrInvalidToken     = errors.New("invalid token")
)

func NewInvalidArgument(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, msg)
}

func WrapInternal(err error, context string) error {
	return fmt.Errorf("%w: %s: %v", ErrInternal, context, err)
}

func IsInvalidArgument(err error) bool {
	return errors.Is(err, ErrInvalidArgument)
}

func IsInternal(err error) bool {
	return errors.Is(err, ErrInternal)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

func IsCreateFailed(err error) bool {
	return errors.Is(err, ErrCreateFailed)
}

func IsCacheUnavailable(err error) bool {
	return errors.Is(err, ErrCacheUnavailable)
}

func IsInvalidToken(err error) bool {
	return errors.Is(err, ErrInvalidToken)
}
