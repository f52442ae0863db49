package walletclient

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/evmbridge/sdk-go/core/types"
)

var ErrDecode = errors.New("unexpected bridge payload")

// DecodeError reports a bridge result that does not have the expected shape.
// Raw is the payload as received.
type DecodeError struct {
	Method string
	Raw    string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s result: %v: %s", e.Method, e.Err, e.Raw)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) Is(target error) bool { return target == ErrDecode }

func isAbsent(raw *string) bool {
	return raw == nil || strings.TrimSpace(*raw) == "" || strings.TrimSpace(*raw) == "null"
}

// decodeOptional decodes raw into a new T. Absent and null payloads give nil.
func decodeOptional[T any](method string, raw *string) (*T, error) {
	if isAbsent(raw) {
		return nil, nil
	}
	v := new(T)
	if err := json.Unmarshal([]byte(*raw), v); err != nil {
		return nil, &DecodeError{Method: method, Raw: *raw, Err: err}
	}
	return v, nil
}

// decodeStringResult decodes a plain JSON string. A payload that is instead
// a wallet error comes back as *types.WalletError; anything else is a *DecodeError.
func decodeStringResult(method string, raw *string) (string, error) {
	if isAbsent(raw) {
		text := "null"
		if raw != nil {
			text = *raw
		}
		return "", &DecodeError{Method: method, Raw: text, Err: errors.New("empty result")}
	}

	var s string
	err := json.Unmarshal([]byte(*raw), &s)
	if err == nil {
		return s, nil
	}

	var we types.WalletError
	if json.Unmarshal([]byte(*raw), &we) == nil && we.Kind.Valid() {
		return "", &we
	}
	return "", &DecodeError{Method: method, Raw: *raw, Err: err}
}
