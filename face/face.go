package face

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
)

// ErrMalformedImage is returned when a payload cannot be decoded as a
// base64 image.
var ErrMalformedImage = errors.New("face: malformed image payload")

// Comparer decides whether a candidate image shows the same face as the
// enrolled reference. Both arguments are base64 payloads, optionally
// carrying a data-URI prefix.
//
// Compare may return an error when input validation or dependency calls
// fail. Implementations must be safe for concurrent use.
type Comparer interface {
	Compare(ctx context.Context, reference, candidate string) (bool, error)
}

// decodePayload strips an optional data-URI prefix ("data:...;base64,")
// and decodes the remainder. An empty or undecodable payload is malformed.
func decodePayload(payload string) ([]byte, error) {
	if i := strings.IndexByte(payload, ','); i >= 0 {
		payload = payload[i+1:]
	}
	if payload == "" {
		return nil, ErrMalformedImage
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, ErrMalformedImage
	}
	return data, nil
}
