package location

import "math"

// Validity describes whether the data in a location is valid, and how it was
// obtained (e.g. through measurement or extrapolation). Values are ordered
// from worst to best, so they can be compared directly.
type Validity int

const (
	// Invalid means the location carries no usable data.
	Invalid Validity = iota
	// ExtrapolatedTime means the location was extrapolated from an earlier
	// fix based on elapsed time alone.
	ExtrapolatedTime
	// ExtrapolatedSpatial means the location was extrapolated from an earlier
	// fix using spatial information such as the route geometry.
	ExtrapolatedSpatial
	// Static means the position was measured while the vehicle was known to
	// be stationary.
	Static
	// Valid means the location was measured directly.
	Valid
)

// String implements fmt.Stringer.
func (v Validity) String() string {
	switch v {
	case Invalid:
		return "invalid"
	case ExtrapolatedTime:
		return "extrapolated_time"
	case ExtrapolatedSpatial:
		return "extrapolated_spatial"
	case Static:
		return "static"
	case Valid:
		return "valid"
	}
	return "unknown"
}

// Compare returns a negative number if v is worse than other, zero if they
// are equal and a positive number if v is better than other.
func (v Validity) Compare(other Validity) int {
	return int(v) - int(other)
}

// TrustLevel represents how much the application trusts locations from a
// given provider. It is static per-source configuration, not per-fix data.
//
// Generally, when multiple raw locations of different trust levels are fused
// together, only data of the highest trust level is used and corresponding
// data of lower levels is ignored. Exceptions apply when the locations have
// different validity, in which case trust level and validity are considered
// together and may level each other out: an extrapolated location from a
// highly trusted provider may be fused on equal footing with a directly
// measured location from a less trusted one.
type TrustLevel int

const (
	TrustLow    TrustLevel = 0
	TrustMedium TrustLevel = 1
	TrustHigh   TrustLevel = 2
)

// String implements fmt.Stringer.
func (t TrustLevel) String() string {
	switch t {
	case TrustLow:
		return "low"
	case TrustMedium:
		return "medium"
	case TrustHigh:
		return "high"
	}
	return "unknown"
}

// PreferenceNever is the effective preference of an invalid location. A
// location with this preference is never usable and must be skipped by the
// fuser.
const PreferenceNever = math.MinInt32

// EffectivePreference determines the effective preference level of a
// location by applying a penalty, based on the location's validity, to the
// trust level of its source. The result can be used for direct integer
// comparison. Validity values outside the enumerated range are treated like
// ExtrapolatedTime.
func EffectivePreference(trust TrustLevel, validity Validity) int {
	switch validity {
	case Invalid:
		return PreferenceNever
	case Valid, Static:
		return int(trust)
	case ExtrapolatedSpatial:
		return int(trust) - 1
	default:
		// everything else is treated like ExtrapolatedTime
		return int(trust) - 2
	}
}
