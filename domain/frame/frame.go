package frame

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"
)

// minPayloadLen is the shortest payload worth handing to a decoder.
const minPayloadLen = 10

var (
	// ErrEmptyPayload reports a frame event that carried no image data.
	ErrEmptyPayload = errors.New("frame: empty payload")
	// ErrMalformedPayload reports data that is not valid base64.
	ErrMalformedPayload = errors.New("frame: malformed payload")
)

// Frame is one encoded still image as received from the transport.
// It is never mutated after creation.
type Frame struct {
	Payload    string    // base64 text as sent on the wire
	Count      uint64    // sender-side sequence number, 0 if unknown
	Size       int       // sender-reported payload size, 0 if unknown
	ReceivedAt time.Time // local arrival time
}

// Empty reports whether the frame has no payload at all.
func (f Frame) Empty() bool { return f.Payload == "" }

// Bytes decodes the base64 payload. Characters outside the base64 alphabet
// (line breaks, data-URL prefixes cut short, stray whitespace) are stripped first.
func (f Frame) Bytes() ([]byte, error) {
	if f.Empty() {
		return nil, ErrEmptyPayload
	}
	payload := f.Payload
	if i := strings.Index(payload, ";base64,"); i >= 0 {
		payload = payload[i+len(";base64,"):]
	}
	clean := strings.Map(func(r rune) rune {
		switch {
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '+', r == '/', r == '=':
			return r
		}
		return -1
	}, payload)
	if len(clean) < minPayloadLen {
		return nil, fmt.Errorf("%w: %d base64 chars", ErrMalformedPayload, len(clean))
	}
	data, err := base64.StdEncoding.DecodeString(clean)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return data, nil
}
