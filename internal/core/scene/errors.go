package scene

import "errors"

var (
	ErrEntityNotFound = errors.New("could not find entity for the given selector")
	ErrNoEnumerator   = errors.New("no live hierarchy enumerator configured")
)
