package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidRating(t *testing.T) {
	for r := 1; r <= 5; r++ {
		assert.True(t, ValidRating(r), r)
	}
	assert.False(t, ValidRating(0))
	assert.False(t, ValidRating(6))
	assert.False(t, ValidRating(-1))
}

func TestElevated(t *testing.T) {
	assert.True(t, Elevated(RoleAdmin))
	assert.True(t, Elevated(RoleHotelManager))
	assert.False(t, Elevated(RoleCustomer))
	assert.False(t, Elevated(""))
}
