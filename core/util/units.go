package util

import (
	"math/big"

	"github.com/cockroachdb/apd/v3"
	"github.com/pkg/errors"
)

// FormatUnits renders value scaled down by 10^decimals as a plain decimal
// string without trailing zeros, e.g. 1500000000000000000 with 18 decimals is "1.5".
func FormatUnits(value *big.Int, decimals int) string {
	if value == nil {
		return "0"
	}
	coeff := new(apd.BigInt).SetMathBigInt(value)
	d := apd.NewWithBigInt(coeff, -int32(decimals))
	d.Reduce(d)
	return d.Text('f')
}

// ParseUnits is the inverse of FormatUnits. It fails if s has more fractional
// digits than decimals allows.
func ParseUnits(s string, decimals int) (*big.Int, error) {
	d, _, err := apd.NewFromString(s)
	if err != nil {
		return nil, errors.Wrapf(err, "parse decimal %q", s)
	}

	scaled := new(apd.Decimal)
	ctx := apd.BaseContext.WithPrecision(200)
	if _, err := ctx.Mul(scaled, d, apd.New(1, int32(decimals))); err != nil {
		return nil, errors.WithStack(err)
	}

	var integral apd.Decimal
	if _, err := ctx.RoundToIntegralExact(&integral, scaled); err != nil {
		return nil, errors.WithStack(err)
	}
	if integral.Cmp(scaled) != 0 {
		return nil, errors.Errorf("%q has more than %d decimal places", s, decimals)
	}

	var out apd.Decimal
	if _, err := ctx.Quantize(&out, &integral, 0); err != nil {
		return nil, errors.WithStack(err)
	}
	v := out.Coeff.MathBigInt()
	if out.Negative {
		v.Neg(v)
	}
	return v, nil
}
