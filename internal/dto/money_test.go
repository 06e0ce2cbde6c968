package dto

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestIsMoney(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"10.50", true},
		{"10.5000", true},
		{"-3.25", true},
		{"0", true},
		{"999999999999.99", true},
		{"0.005", false},
		{"10.555", false},
		{"1000000000000", false},
		{"-1000000000000.00", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, IsMoney(decimal.RequireFromString(tt.in)))
		})
	}
}
