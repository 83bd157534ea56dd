package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPointsEarned(t *testing.T) {
	assert.Equal(t, int64(20), PointsEarned(20000)) // $200 -> 20 points
	assert.Equal(t, int64(1), PointsEarned(1000))
	assert.Equal(t, int64(0), PointsEarned(999)) // below $10, nothing
	assert.Equal(t, int64(1), PointsEarned(1999))
	assert.Equal(t, int64(0), PointsEarned(0))
	assert.Equal(t, int64(0), PointsEarned(-500))
}

func TestDiscountCents(t *testing.T) {
	assert.Equal(t, int64(500), DiscountCents(50)) // 50 points -> $5.00
	assert.Equal(t, int64(10), DiscountCents(1))
	assert.Equal(t, int64(0), DiscountCents(0))
	assert.Equal(t, int64(0), DiscountCents(-3))
}

func TestApplyDiscount(t *testing.T) {
	assert.Equal(t, int64(19500), ApplyDiscount(20000, 500))
	assert.Equal(t, int64(0), ApplyDiscount(500, 500))
	// Oversized discounts floor at zero instead of going negative.
	assert.Equal(t, int64(0), ApplyDiscount(300, 500))
	assert.Equal(t, int64(20000), ApplyDiscount(20000, 0))
}

func TestAccrualRoundTrip(t *testing.T) {
	// Points earned on a payment never buy back more discount than the
	// payment itself was worth.
	for _, amount := range []int64{999, 1000, 9999, 20000, 123456} {
		pts := PointsEarned(amount)
		assert.LessOrEqual(t, DiscountCents(pts), amount, "amount %d", amount)
	}
}
