package util

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

// TransformOrNil returns nil if the value is nil, otherwise a pointer to the
// transformed value. Absent optional fields stay absent across the boundary.
//
// Example:
//
//	snap.Address = util.TransformOrNil(acct.Address, common.Address.Hex)
func TransformOrNil[T, U any](value *T, transform func(T) U) *U {
	if value == nil {
		return nil
	}
	out := transform(*value)
	return &out
}

// ParseAddress parses a 0x-prefixed hex address.
func ParseAddress(s string) (common.Address, error) {
	s = strings.TrimSpace(s)
	if !common.IsHexAddress(s) {
		return common.Address{}, errors.Errorf("invalid address %q", s)
	}
	return common.HexToAddress(s), nil
}

// AddressesToStrings converts addresses to their checksummed hex form.
func AddressesToStrings(addrs []common.Address) []string {
	strs := make([]string, len(addrs))
	for i, a := range addrs {
		strs[i] = a.Hex()
	}
	return strs
}
