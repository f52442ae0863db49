package boundary

import (
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

type MessageType string

const (
	MessageCall           MessageType = "call"
	MessageResult         MessageType = "result"
	MessageCallback       MessageType = "callback"
	MessageCallbackResult MessageType = "callback_result"
)

// Envelope is a single message on a streaming transport.
//
// A call carries Module, Method and Args and is answered by a result with the
// same ID. Result holds the bridge's JSON text, nil for void or null returns.
// A callback carries Ref, Method and Args and is answered by a callback_result.
type Envelope struct {
	Type   MessageType       `json:"type"`
	ID     string            `json:"id"`
	Module string            `json:"module,omitempty"`
	Method string            `json:"method,omitempty"`
	Ref    string            `json:"ref,omitempty"`
	Args   []json.RawMessage `json:"args,omitempty"`
	Result *string           `json:"result,omitempty"`
	Error  string            `json:"error,omitempty"`
}

// RemoteError is a failure reported by the other side of a streaming transport.
type RemoteError struct {
	Method  string
	Message string
}

func (e *RemoteError) Error() string {
	return e.Method + ": " + e.Message
}

// PeekType reads the message type without decoding the whole envelope.
func PeekType(raw []byte) (MessageType, string, error) {
	if !gjson.ValidBytes(raw) {
		return "", "", errors.Errorf("invalid envelope: %s", string(raw))
	}
	res := gjson.GetManyBytes(raw, "type", "id")
	if res[0].Str == "" {
		return "", "", errors.Errorf("envelope without type: %s", string(raw))
	}
	return MessageType(res[0].Str), res[1].Str, nil
}

func DecodeEnvelope(raw []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, errors.Wrap(err, "decode envelope")
	}
	return &env, nil
}
