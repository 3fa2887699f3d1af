package server

import (
	"encoding/json"
	"fmt"

	"github.com/zeusync/scenebridge/internal/core/scanner"
	"github.com/zeusync/scenebridge/internal/core/scene"
	"github.com/zeusync/scenebridge/internal/core/transform"
)

// Inbound message types.
const (
	MessageSelectEntity       = "selectEntity"
	MessageSetEntityTransform = "setEntityTransform"
	MessageSetEntityName      = "setEntityName"
	MessageSetEntityProperty  = "setEntityProperty"
	MessageGetEntityProperty  = "getEntityProperty"
	MessageSignalEntityPin    = "signalEntityPin"
	MessageRebuildEntityTree  = "rebuildEntityTree"
	MessageGetCollisions      = "getCollisionCorrelations"
	MessageGetNavigation      = "getNavigationEntities"
	MessageLoadNavpAreas      = "loadNavpAreas"
)

// Outbound message types.
const (
	MessageWelcome            = "welcome"
	MessageOK                 = "ok"
	MessageError              = "error"
	MessageProperty           = "propertyValue"
	MessageEntityTree         = "entityTree"
	MessageCollisionBatch     = "collisionBatch"
	MessageNavigationEntities = "navigationEntities"
)

// Request is a client message. Which fields are used depends on Type.
type Request struct {
	Type      string              `json:"type"`
	RequestID string              `json:"requestId,omitempty"`
	Entity    *scene.Selector     `json:"entity,omitempty"`
	Transform *transform.Matrix43 `json:"transform,omitempty"`
	Relative  bool                `json:"relative,omitempty"`
	Name      string              `json:"name,omitempty"`
	Property  uint32              `json:"property,omitempty"`
	Value     json.RawMessage     `json:"value,omitempty"`
	Pin       uint32              `json:"pin,omitempty"`
	Output    bool                `json:"output,omitempty"`
	Areas     json.RawMessage     `json:"areas,omitempty"`
	Chunk     int                 `json:"chunk,omitempty"`
}

func (r *Request) selector() (scene.Selector, error) {
	if r.Entity == nil {
		return scene.Selector{}, fmt.Errorf("%w: %s requires an entity", ErrInvalidMessage, r.Type)
	}
	return *r.Entity, nil
}

type Response struct {
	Type      string `json:"type"`
	RequestID string `json:"requestId,omitempty"`

	ClientID string          `json:"clientId,omitempty"`
	Code     string          `json:"code,omitempty"`
	Error    string          `json:"error,omitempty"`
	Value    json.RawMessage `json:"value,omitempty"`

	Tree     *TreeInfo       `json:"tree,omitempty"`
	Entities []RecordMessage `json:"entities,omitempty"`
	Done     bool            `json:"done,omitempty"`

	SeedPoints []RecordMessage `json:"seedPoints,omitempty"`
	Boxes      []RecordMessage `json:"boxes,omitempty"`
}

type TreeInfo struct {
	Generation  uint64 `json:"generation"`
	Nodes       int    `json:"nodes"`
	Fingerprint string `json:"fingerprint"`
}

func treeInfo(s *scene.Snapshot) *TreeInfo {
	return &TreeInfo{
		Generation:  s.Generation(),
		Nodes:       s.Nodes(),
		Fingerprint: fmt.Sprintf("%016X", s.Fingerprint()),
	}
}

// RecordMessage is the wire form of a scan record.
type RecordMessage struct {
	Entity   scene.Selector `json:"entity"`
	Hashes   []string       `json:"hashes"`
	Rotation transform.Quat `json:"rotation"`
}

func recordMessages(records []scanner.Record) []RecordMessage {
	out := make([]RecordMessage, len(records))
	for i, r := range records {
		out[i] = RecordMessage{
			Entity:   scene.NewTreeSelector(r.ID, r.Blueprint),
			Hashes:   r.Hashes,
			Rotation: r.Rotation,
		}
	}
	return out
}
