package server

import (
	"encoding/json"
)

// jsonCodec marshals the plain request/response structs of this package.
// It replaces the default proto-JSON codec so the services can work with
// ordinary Go types.
type jsonCodec struct{}

func (jsonCodec) Name() string {
	return "json"
}

func (jsonCodec) Marshal(message any) ([]byte, error) {
	return json.Marshal(message)
}

func (jsonCodec) Unmarshal(data []byte, message any) error {
	return json.Unmarshal(data, message)
}
