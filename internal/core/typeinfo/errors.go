package typeinfo

import "errors"

var (
	ErrPropertyNotFound    = errors.New("property not found")
	ErrTypeInfoUnavailable = errors.New("type information is missing from the loaded data")
	ErrNoConverter         = errors.New("no converter registered for type")
)
