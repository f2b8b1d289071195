package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestIsValid(t *testing.T) {
	fifty := decimal.NewFromInt(50)
	cases := []struct {
		name    string
		rec     decimal.NullDecimal
		p       decimal.NullDecimal
		percent decimal.Decimal
		want    bool
	}{
		{"inside", price("100"), price("120"), fifty, true},
		{"above", price("100"), price("151"), fifty, false},
		{"lower bound inclusive", price("100"), price("50"), fifty, true},
		{"upper bound inclusive", price("100"), price("150"), fifty, true},
		{"below", price("100"), price("49"), fifty, false},
		{"fractional percent", price("30"), price("33.3"), decimal.RequireFromString("11"), true},
		{"zero percent exact", price("30"), price("30"), decimal.Zero, true},
		{"zero percent off", price("30"), price("30.01"), decimal.Zero, false},
		{"missing price", price("100"), decimal.NullDecimal{}, fifty, false},
		{"missing recommended", decimal.NullDecimal{}, price("100"), fifty, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, IsValid(c.rec, c.p, c.percent))
		})
	}
}
