package server

import (
	"context"
	"fmt"

	"github.com/zeusync/scenebridge/internal/core/observability/log"
	"github.com/zeusync/scenebridge/internal/core/scanner"
	"github.com/zeusync/scenebridge/internal/editor"
)

// handleMessage processes a request from a client
func (s *Server) handleMessage(session *ClientSession, req *Request) {
	s.logger.Debug("Handling message",
		log.String("client_id", session.ID),
		log.String("type", req.Type))

	resp, err := s.dispatch(session, req)
	if err != nil {
		s.replyError(session, req.RequestID, err)
		return
	}
	if resp == nil {
		return
	}
	resp.RequestID = req.RequestID
	if err := session.Send(resp); err != nil {
		s.logger.Error("Failed to send response",
			log.String("client_id", session.ID),
			log.Error(err))
	}
}

// dispatch runs a request. A nil response means the handler already replied.
func (s *Server) dispatch(session *ClientSession, req *Request) (*Response, error) {
	clientID := &session.ID
	ok := &Response{Type: MessageOK}

	switch req.Type {
	case MessageSelectEntity:
		sel, err := req.selector()
		if err != nil {
			return nil, err
		}
		return ok, s.editor.SelectEntity(sel, clientID)

	case MessageSetEntityTransform:
		sel, err := req.selector()
		if err != nil {
			return nil, err
		}
		if req.Transform == nil {
			return nil, fmt.Errorf("%w: missing transform", ErrInvalidMessage)
		}
		return ok, s.editor.SetEntityTransform(sel, *req.Transform, req.Relative, clientID)

	case MessageSetEntityName:
		sel, err := req.selector()
		if err != nil {
			return nil, err
		}
		return ok, s.editor.SetEntityName(sel, req.Name, clientID)

	case MessageSetEntityProperty:
		sel, err := req.selector()
		if err != nil {
			return nil, err
		}
		if len(req.Value) == 0 {
			return nil, fmt.Errorf("%w: missing value", ErrInvalidMessage)
		}
		return ok, s.editor.SetEntityProperty(sel, req.Property, string(req.Value), clientID)

	case MessageGetEntityProperty:
		sel, err := req.selector()
		if err != nil {
			return nil, err
		}
		value, err := s.editor.GetEntityProperty(sel, req.Property)
		if err != nil {
			return nil, err
		}
		return &Response{Type: MessageProperty, Value: value}, nil

	case MessageSignalEntityPin:
		sel, err := req.selector()
		if err != nil {
			return nil, err
		}
		return ok, s.editor.SignalEntityPin(sel, req.Pin, req.Output)

	case MessageRebuildEntityTree:
		snap, err := s.editor.RebuildTree(context.Background())
		if err != nil {
			return nil, err
		}
		return &Response{Type: MessageEntityTree, Tree: treeInfo(snap)}, nil

	case MessageGetCollisions:
		s.streamCollisions(session, req.RequestID)
		return nil, nil

	case MessageGetNavigation:
		seeds, boxes, err := s.editor.ScanNavigation(context.Background())
		if err != nil {
			return nil, err
		}
		return &Response{
			Type:       MessageNavigationEntities,
			SeedPoints: recordMessages(seeds),
			Boxes:      recordMessages(boxes),
		}, nil

	case MessageLoadNavpAreas:
		areas, err := editor.ParseNavpAreas(req.Areas)
		if err != nil {
			return nil, err
		}
		s.editor.LoadNavpAreas(areas, req.Chunk)
		return ok, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMessageType, req.Type)
	}
}

// streamCollisions sends one message per scan batch. Once the client is gone
// the remaining batches are dropped; the scan itself runs to completion.
func (s *Server) streamCollisions(session *ClientSession, requestID string) {
	var sendErr error
	s.editor.ScanCollisionCorrelations(func(batch []scanner.Record, final bool) {
		if sendErr != nil {
			return
		}
		sendErr = session.Send(Response{
			Type:      MessageCollisionBatch,
			RequestID: requestID,
			Entities:  recordMessages(batch),
			Done:      final,
		})
	})
	if sendErr != nil {
		s.logger.Warn("Collision stream aborted",
			log.String("client_id", session.ID),
			log.Error(sendErr))
	}
}
