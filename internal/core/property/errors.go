package property

import "errors"

var (
	ErrInvalidPropertyValue = errors.New("unable to convert JSON to native value")
	ErrBufferReleased       = errors.New("buffer already released")
)
