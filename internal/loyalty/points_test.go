package loyalty

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRedeem(t *testing.T) {
	cases := []struct {
		name         string
		subtotal     float64
		points       int
		wantDiscount float64
		wantUsed     int
	}{
		{"nothing requested", 50, 0, 0, 0},
		{"within subtotal", 50, 1500, 15, 1500},
		{"capped at subtotal", 12.5, 5000, 12.5, 1250},
		{"empty cart", 0, 100, 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			discount, used := Redeem(tc.subtotal, tc.points)
			assert.InDelta(t, tc.wantDiscount, discount, 1e-9)
			assert.Equal(t, tc.wantUsed, used)
		})
	}
}

func TestEarnedPoints(t *testing.T) {
	assert.Equal(t, 0, EarnedPoints(0))
	assert.Equal(t, 0, EarnedPoints(0.99))
	assert.Equal(t, 129, EarnedPoints(129.99))
	assert.Equal(t, 0, EarnedPoints(-3))
}
