package transport

import (
	"encoding/json"
	"fmt"

	"github.com/soocke/preview-dash/domain/stream"
)

// Envelope is the wire form of every message in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// NewEnvelope marshals data into an envelope for event. A nil data yields
// an envelope without payload.
func NewEnvelope(event string, data any) (Envelope, error) {
	env := Envelope{Event: event}
	if data == nil {
		return env, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return env, fmt.Errorf("marshal %s: %w", event, err)
	}
	env.Data = raw
	return env, nil
}

// Dispatch decodes env and forwards it to the matching sink callback.
// A video_frame whose data cannot be decoded still reaches the sink as an
// empty frame so it is counted as a payload error. Unknown events return an
// error and are otherwise ignored. connect and disconnect are synthesized by
// the client from the socket lifecycle; a peer sending them is rejected.
func Dispatch(sink stream.EventSink, env Envelope) error {
	switch env.Event {
	case stream.EventConnect, stream.EventDisconnect:
		return fmt.Errorf("%w: %q is not accepted from the server", ErrUnknownEvent, env.Event)
	case stream.EventStatusUpdate:
		var u stream.StatusUpdate
		if err := decode(env, &u); err != nil {
			return err
		}
		sink.OnStatusUpdate(u)
	case stream.EventVideoFrame:
		var vf stream.VideoFrame
		err := decode(env, &vf)
		if err != nil {
			vf = stream.VideoFrame{}
		}
		sink.OnVideoFrame(vf)
		return err
	case stream.EventStreamStatus:
		var s stream.StreamStatus
		if err := decode(env, &s); err != nil {
			return err
		}
		sink.OnStreamStatus(s)
	case stream.EventPingResponse:
		sink.OnPingResponse()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEvent, env.Event)
	}
	return nil
}

func decode(env Envelope, v any) error {
	if len(env.Data) == 0 {
		return fmt.Errorf("%w: %s without data", ErrBadPayload, env.Event)
	}
	if err := json.Unmarshal(env.Data, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrBadPayload, env.Event, err)
	}
	return nil
}
