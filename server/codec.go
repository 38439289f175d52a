package server

import (
	"encoding/json"
)

// jsonCodec carries plain Go structs as JSON in place of Connect's
// protobuf JSON mapping. Handlers and clients must both use it.
type jsonCodec struct{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
