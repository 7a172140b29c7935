package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Tag names a position inside a flow, e.g. "awaiting_description".
type Tag string

// Payload carries the data a structured step needs.
type Payload struct {
	ID     uint              `json:"id,omitempty"`
	IDs    []uint            `json:"ids,omitempty"`
	Index  int               `json:"index,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

// State is either a bare tag or a tag plus payload.
// The zero value means "no conversation in progress".
type State struct {
	Tag     Tag
	Payload *Payload
}

var ErrEmptyState = errors.New("session state has no tag")

func Bare(tag Tag) State {
	return State{Tag: tag}
}

func Step(tag Tag, payload Payload) State {
	return State{Tag: tag, Payload: &payload}
}

func (s State) IsZero() bool {
	return s.Tag == ""
}

func (s State) Is(tag Tag) bool {
	return s.Tag == tag
}

// ID is a shortcut for the payload ID, 0 when there is none.
func (s State) ID() uint {
	if s.Payload == nil {
		return 0
	}
	return s.Payload.ID
}

func (s State) IDs() []uint {
	if s.Payload == nil {
		return nil
	}
	return s.Payload.IDs
}

func (s State) Field(name string) string {
	if s.Payload == nil || s.Payload.Fields == nil {
		return ""
	}
	return s.Payload.Fields[name]
}

func (s State) String() string {
	if s.Payload == nil {
		return string(s.Tag)
	}
	raw, err := s.Encode()
	if err != nil {
		return string(s.Tag)
	}
	return raw
}

type wireState struct {
	Tag     Tag      `json:"tag"`
	Payload *Payload `json:"payload,omitempty"`
}

// Encode serializes the state for the store: a bare tag stays a plain string,
// a structured step becomes a JSON object.
func (s State) Encode() (string, error) {
	if s.Tag == "" {
		return "", ErrEmptyState
	}
	if s.Payload == nil {
		return string(s.Tag), nil
	}
	data, err := json.Marshal(wireState{Tag: s.Tag, Payload: s.Payload})
	if err != nil {
		return "", fmt.Errorf("failed to encode session state: %w", err)
	}
	return string(data), nil
}

// Decode accepts both encodings produced by Encode.
func Decode(raw string) (State, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return State{}, ErrEmptyState
	}
	if !strings.HasPrefix(raw, "{") {
		return Bare(Tag(raw)), nil
	}
	var w wireState
	if err := json.Unmarshal([]byte(raw), &w); err != nil {
		return State{}, fmt.Errorf("failed to decode session state: %w", err)
	}
	if w.Tag == "" {
		return State{}, ErrEmptyState
	}
	return State{Tag: w.Tag, Payload: w.Payload}, nil
}
