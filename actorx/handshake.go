package actorx

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// HandshakeResult is the payload a worker reports back over its control
// socket immediately after attempting to load and verify the module it was
// handed: either the module's verified Metadata, or the error that
// prevented loading it. Encoded with msgpack in place of the original
// handshake's bincode encoding (§6).
type HandshakeResult struct {
	Metadata Metadata
	Error    string
}

// EncodeHandshakeResult marshals a HandshakeResult for transmission over the
// worker control socket.
func EncodeHandshakeResult(metadata Metadata, err error) ([]byte, error) {
	result := HandshakeResult{Metadata: metadata}
	if err != nil {
		result.Error = err.Error()
	}
	encoded, marshalErr := msgpack.Marshal(&result)
	if marshalErr != nil {
		return nil, fmt.Errorf("actorx: marshal handshake result: %w", marshalErr)
	}
	return encoded, nil
}

// DecodeHandshakeResult reverses EncodeHandshakeResult.
func DecodeHandshakeResult(data []byte) (Metadata, error) {
	var result HandshakeResult
	if err := msgpack.Unmarshal(data, &result); err != nil {
		return Metadata{}, fmt.Errorf("actorx: unmarshal handshake result: %w", err)
	}
	if result.Error != "" {
		return Metadata{}, fmt.Errorf("worker: %s", result.Error)
	}
	return result.Metadata, nil
}
