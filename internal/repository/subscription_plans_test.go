package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanByType(t *testing.T) {
	oneTime, ok := PlanByType("one_time_skip")
	require.True(t, ok)
	assert.Equal(t, uint32(1500), oneTime.PriceCents)
	assert.Equal(t, 30, oneTime.DurationDays)
	assert.False(t, oneTime.Unlimited)

	monthly, ok := PlanByType("monthly_unlimited")
	require.True(t, ok)
	assert.Equal(t, uint32(2999), monthly.PriceCents)
	assert.True(t, monthly.Unlimited)

	yearly, ok := PlanByType("yearly_premium")
	require.True(t, ok)
	assert.Equal(t, 365, yearly.DurationDays)
	assert.True(t, yearly.Unlimited)

	_, ok = PlanByType("free_lunch")
	assert.False(t, ok)
}
