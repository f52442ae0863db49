package types

import (
	"bytes"
	"encoding/json"
	"math/big"

	"github.com/pkg/errors"
)

// BigInt is a big.Int that crosses the boundary as a decimal string.
// Decoding also accepts a bare JSON number.
type BigInt struct {
	big.Int
}

func NewBigInt(v *big.Int) *BigInt {
	b := &BigInt{}
	if v != nil {
		b.Set(v)
	}
	return b
}

func BigIntFromInt64(v int64) *BigInt {
	return NewBigInt(big.NewInt(v))
}

// Big returns a copy as a *big.Int.
func (b *BigInt) Big() *big.Int {
	if b == nil {
		return nil
	}
	return new(big.Int).Set(&b.Int)
}

func (b BigInt) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.Int.String())
}

func (b *BigInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}

	s := string(data)
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return errors.WithStack(err)
		}
	}

	if _, ok := b.SetString(s, 10); !ok {
		return errors.Errorf("invalid integer %q", s)
	}
	return nil
}
