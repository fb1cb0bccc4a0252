package pit

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Percent is a percentage, already multiplied by 100 (15.5 means 15.5%).
type Percent struct {
	value decimal.Decimal
}

// P returns a percentage from a number.
func P[T float64 | int | int64 | decimal.Decimal](value T) Percent {
	return Percent{value: newDecimal(value)}
}

func (p Percent) Equal(q Percent) bool       { return p.value.Equal(q.value) }
func (p Percent) LessThan(q Percent) bool    { return p.value.LessThan(q.value) }
func (p Percent) GreaterThan(q Percent) bool { return p.value.GreaterThan(q.value) }
func (p Percent) IsZero() bool               { return p.value.IsZero() }
func (p Percent) IsNegative() bool           { return p.value.IsNegative() }
func (p Percent) Decimal() decimal.Decimal   { return p.value }

// Round returns the percentage rounded to places decimal places.
func (p Percent) Round(places int32) Percent { return Percent{value: p.value.Round(places)} }

func (p Percent) String() string {
	return p.value.StringFixed(2) + "%"
}

// SignedString returns the percentage with an explicit sign, 0 is "-".
func (p Percent) SignedString() string {
	s := p.value.StringFixed(2)
	switch {
	case s == "0.00" || s == "-0.00":
		return "-"
	case p.value.IsPositive():
		return "+" + s + "%"
	default:
		return s + "%"
	}
}

// MarshalJSON implements the json.Marshaler interface.
func (p Percent) MarshalJSON() ([]byte, error) {
	return p.value.MarshalJSON()
}
