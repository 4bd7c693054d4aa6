package main

// Tier identifies which optimization stage has already been applied to a
// file. Tiers form an ordered chain: an unprocessed original becomes
// Optimized after the normal pass, and an Optimized file becomes Aggressive
// after the size-driven WebP pass.
type Tier int

const (
	TierNone Tier = iota
	TierOptimized
	TierAggressive
)

// Marker values persisted in the embedded Comment metadata field. These
// exact strings are shared with every prior run; changing them would orphan
// all previously stamped files.
const (
	markerOptimized  = "philoassets-optimized"
	markerAggressive = "philoassets-aggressive"
)

// ParseTier maps a raw Comment field value to a Tier. Anything other than
// the known marker strings, including an empty comment, means the file has
// not been processed.
func ParseTier(comment string) Tier {
	switch comment {
	case markerOptimized:
		return TierOptimized
	case markerAggressive:
		return TierAggressive
	default:
		return TierNone
	}
}

// Marker returns the Comment value recorded for this tier, or an empty
// string for TierNone.
func (t Tier) Marker() string {
	switch t {
	case TierOptimized:
		return markerOptimized
	case TierAggressive:
		return markerAggressive
	default:
		return ""
	}
}

func (t Tier) String() string {
	switch t {
	case TierOptimized:
		return "optimized"
	case TierAggressive:
		return "aggressive"
	default:
		return "none"
	}
}
