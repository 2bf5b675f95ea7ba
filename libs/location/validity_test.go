package location

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEffectivePreference(t *testing.T) {
	tests := []struct {
		name     string
		trust    TrustLevel
		validity Validity
		expected int
	}{
		{
			name:     "Invalid is never usable",
			trust:    TrustHigh,
			validity: Invalid,
			expected: PreferenceNever,
		},
		{
			name:     "Valid keeps trust level",
			trust:    TrustHigh,
			validity: Valid,
			expected: int(TrustHigh),
		},
		{
			name:     "Static keeps trust level",
			trust:    TrustMedium,
			validity: Static,
			expected: int(TrustMedium),
		},
		{
			name:     "Spatial extrapolation costs one level",
			trust:    TrustHigh,
			validity: ExtrapolatedSpatial,
			expected: int(TrustHigh) - 1,
		},
		{
			name:     "Time extrapolation costs two levels",
			trust:    TrustHigh,
			validity: ExtrapolatedTime,
			expected: int(TrustHigh) - 2,
		},
		{
			name:     "Unknown validity treated as time extrapolation",
			trust:    TrustMedium,
			validity: Validity(42),
			expected: int(TrustMedium) - 2,
		},
		{
			name:     "Penalty may drop below zero",
			trust:    TrustLow,
			validity: ExtrapolatedTime,
			expected: -2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, EffectivePreference(tt.trust, tt.validity))
		})
	}
}

func TestEffectivePreferenceLevelsOut(t *testing.T) {
	// an extrapolated location from a trusted source competes on equal
	// footing with a measured one from a less trusted source
	assert.Equal(t,
		EffectivePreference(TrustHigh, ExtrapolatedSpatial),
		EffectivePreference(TrustMedium, Valid))
}

func TestValidityCompare(t *testing.T) {
	ordered := []Validity{Invalid, ExtrapolatedTime, ExtrapolatedSpatial, Static, Valid}
	for i := 1; i < len(ordered); i++ {
		assert.Greater(t, ordered[i].Compare(ordered[i-1]), 0,
			"%v should be better than %v", ordered[i], ordered[i-1])
	}
	assert.Zero(t, Static.Compare(Static))
}
