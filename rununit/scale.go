// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rununit

import (
	"fmt"
	"math"
	"strconv"
)

// A Scaler represents a scaling factor for a number and
// its scientific representation.
type Scaler struct {
	Prec   int     // Digits after the decimal point
	Factor float64 // Unscaled value of 1 Prefix (e.g., 1 k => 1000)
	Prefix string  // Unit prefix ("k", "m", "Ki", etc)
}

// Format formats val and appends the unit prefix according to the given
// scale. For example, Format(0.0123) with a milli scale returns
// "12.30m".
//
// Values with pre-scaled units must be tidied first (see Tidy), or a
// value in "ms" would print as, say, "12.30mms".
func (s Scaler) Format(val float64) string {
	buf := make([]byte, 0, 20)
	buf = strconv.AppendFloat(buf, val/s.Factor, 'f', s.Prec, 64)
	buf = append(buf, s.Prefix...)
	return string(buf)
}

// FormatUnit is like Format, but appends unit after the prefix, as in
// "12.30ms".
func (s Scaler) FormatUnit(val float64, unit string) string {
	return s.Format(val) + unit
}

// NoOpScaler is a Scaler that formats numbers with the smallest
// number of digits necessary to capture the exact value, and no
// prefix. It is meant for output consumed by another program.
var NoOpScaler = Scaler{-1, 1, ""}

type factor struct {
	factor float64
	prefix string
	// Thresholds for 100.0, 10.00, 1.000.
	t100, t10, t1 float64
}

var (
	siFactors           = mkFactors(10, 12, 3, []string{"T", "G", "M", "k", "", "m", "µ", "n"})
	iecFactors          = mkFactors(2, 40, 10, []string{"Ti", "Gi", "Mi", "Ki", ""})
	sigfigs, sigfigBase = mkSigfigs()
)

// mkFactors builds the scale factors base^exp, base^(exp-step), ...
// for the given prefixes. The thresholds are derived by parsing the
// printed form of 99.995, 9.9995 and .99995 scaled by the factor, so
// they match exactly how printing rounds. IEC factors bottom out at
// the unprefixed unit; values in [1000, 1024) of a binary unit print
// with the smaller factor.
func mkFactors(base, exp, step int, prefixes []string) []factor {
	var factors []factor
	for _, p := range prefixes {
		f := math.Pow(float64(base), float64(exp))
		thresh := func(digits string) float64 {
			if base == 10 {
				// Parse in decimal so rounding agrees with printing.
				v, _ := strconv.ParseFloat(fmt.Sprintf("%se%d", digits, exp), 64)
				return v
			}
			// Scaling by a power of two is exact.
			v, _ := strconv.ParseFloat(digits, 64)
			return v * f
		}
		factors = append(factors, factor{f, p, thresh("99.995"), thresh("9.9995"), thresh(".99995")})
		exp -= step
	}
	return factors
}

func mkSigfigs() ([]float64, int) {
	var sigfigs []float64
	// Print up to 10 digits after the decimal place.
	for exp := -1; exp > -9; exp-- {
		thresh, _ := strconv.ParseFloat(fmt.Sprintf("9.9995e%d", exp), 64)
		sigfigs = append(sigfigs, thresh)
	}
	// sigfigs[0] is the threshold for 3 digits after the decimal.
	return sigfigs, 3
}

// Scale formats val using at least three significant digits,
// appending an SI or binary prefix. See Scaler.Format for details.
func Scale(val float64, cls Class) string {
	return CommonScale([]float64{val}, cls).Format(val)
}

// CommonScale returns a common Scaler to apply to all values in vals.
// This scale will show at least three significant digits for every
// value. NaN and infinite values are ignored.
func CommonScale(vals []float64, cls Class) Scaler {
	// The common scale is determined by the non-zero value
	// closest to zero.
	var min float64
	for _, v := range vals {
		v = math.Abs(v)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		if v != 0 && (min == 0 || v < min) {
			min = v
		}
	}
	if min == 0 {
		return Scaler{3, 1, ""}
	}

	var factors []factor
	switch cls {
	default:
		panic(fmt.Sprintf("bad Class %v", cls))
	case Decimal:
		factors = siFactors
	case Binary:
		factors = iecFactors
	}

	for _, factor := range factors {
		switch {
		case min >= factor.t100:
			return Scaler{1, factor.factor, factor.prefix}
		case min >= factor.t10:
			return Scaler{2, factor.factor, factor.prefix}
		case min >= factor.t1:
			return Scaler{3, factor.factor, factor.prefix}
		}
	}

	// The value is less than the smallest factor. Print it using
	// the smallest factor and more precision to achieve the
	// desired sigfigs.
	factor := factors[len(factors)-1]
	val := min / factor.factor
	for i, thresh := range sigfigs {
		if val >= thresh || i == len(sigfigs)-1 {
			return Scaler{i + sigfigBase, factor.factor, factor.prefix}
		}
	}

	panic("not reachable")
}
