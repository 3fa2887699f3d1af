package server

import (
	"errors"

	"github.com/zeusync/scenebridge/internal/core/property"
	"github.com/zeusync/scenebridge/internal/core/scene"
	"github.com/zeusync/scenebridge/internal/core/typeinfo"
	"github.com/zeusync/scenebridge/internal/editor"
)

// Server-specific errors
var (
	ErrServerClosed         = errors.New("server is closed")
	ErrServerNotRunning     = errors.New("server is not running")
	ErrServerAlreadyRunning = errors.New("server is already running")
	ErrMaxClientsReached    = errors.New("maximum clients reached")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrInvalidMessage       = errors.New("invalid message")
	ErrUnknownMessageType   = errors.New("unknown message type")
)

// Error codes sent to clients.
const (
	CodeEntityNotFound       = "entity_not_found"
	CodePropertyNotFound     = "property_not_found"
	CodeTypeInfoUnavailable  = "type_info_unavailable"
	CodeInvalidPropertyValue = "invalid_property_value"
	CodeInvalidMessage       = "invalid_message"
	CodeInternal             = "internal"
)

func errorCode(err error) string {
	switch {
	case errors.Is(err, scene.ErrEntityNotFound):
		return CodeEntityNotFound
	case errors.Is(err, typeinfo.ErrPropertyNotFound):
		return CodePropertyNotFound
	case errors.Is(err, typeinfo.ErrTypeInfoUnavailable), errors.Is(err, typeinfo.ErrNoConverter):
		return CodeTypeInfoUnavailable
	case errors.Is(err, property.ErrInvalidPropertyValue):
		return CodeInvalidPropertyValue
	case errors.Is(err, ErrInvalidMessage), errors.Is(err, ErrUnknownMessageType), errors.Is(err, editor.ErrInvalidNavpArea):
		return CodeInvalidMessage
	default:
		return CodeInternal
	}
}
