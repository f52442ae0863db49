// Package boundary defines the JSON message boundary between the host proxy
// and the bridge module: what crosses it, and how the bridge calls back.
package boundary

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

// RefKey is the JSON key a callback reference crosses the boundary under.
const RefKey = "__callbackRef"

var (
	ErrRefDisposed = errors.New("callback reference disposed")
	ErrRefNotFound = errors.New("callback reference not found")
)

// CallbackTarget receives calls made by the bridge back into the host.
// Arguments are JSON values.
type CallbackTarget interface {
	InvokeMethod(ctx context.Context, method string, args ...json.RawMessage) error
}

// Resolver turns a callback reference id received from the other side into a
// target that can be invoked.
type Resolver interface {
	ResolveRef(ctx context.Context, id string) (CallbackTarget, error)
}

// EncodeArgs marshals call arguments. *ObjectRef values marshal to their reference form.
func EncodeArgs(args ...any) ([]json.RawMessage, error) {
	out := make([]json.RawMessage, len(args))
	for i, a := range args {
		raw, err := json.Marshal(a)
		if err != nil {
			return nil, errors.Wrapf(err, "encode argument %d", i)
		}
		out[i] = raw
	}
	return out, nil
}

// RefID reports the reference id carried by raw, if raw is a callback reference.
func RefID(raw json.RawMessage) (string, bool) {
	if !gjson.ValidBytes(raw) {
		return "", false
	}
	res := gjson.GetBytes(raw, RefKey)
	if res.Type != gjson.String || res.Str == "" {
		return "", false
	}
	return res.Str, true
}

// Arg decodes args[i] into T. A missing argument decodes to T's zero value.
func Arg[T any](args []json.RawMessage, i int) (T, error) {
	var v T
	if i >= len(args) || len(args[i]) == 0 {
		return v, nil
	}
	if err := json.Unmarshal(args[i], &v); err != nil {
		return v, errors.Wrapf(err, "decode argument %d", i)
	}
	return v, nil
}

// TargetArg resolves args[i] as a callback reference.
func TargetArg(ctx context.Context, resolver Resolver, args []json.RawMessage, i int) (CallbackTarget, error) {
	if i >= len(args) {
		return nil, errors.Errorf("missing callback reference argument %d", i)
	}
	id, ok := RefID(args[i])
	if !ok {
		return nil, errors.Errorf("argument %d is not a callback reference: %s", i, string(args[i]))
	}
	if resolver == nil {
		return nil, errors.Wrap(ErrRefNotFound, id)
	}
	return resolver.ResolveRef(ctx, id)
}
