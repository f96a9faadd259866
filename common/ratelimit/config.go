package ratelimit

// OpTier represents the rate limit tier based on request weight
type OpTier string

const (
	TierRead     OpTier = "read"     // Record and audit reads
	TierWrite    OpTier = "write"    // Record creation, attachment uploads
	TierDecision OpTier = "decision" // Transitions, votes, dispositions, sign-offs, links
)

// TierConfig defines rate limits for each operation tier
type TierConfig struct {
	Tier          OpTier
	Limit         int64  // Requests allowed per window
	WindowSeconds int    // Time window in seconds
	Description   string // Human-readable description
}

// Default tier configurations
var DefaultTierConfigs = map[OpTier]TierConfig{
	TierRead: {
		Tier:          TierRead,
		Limit:         300,
		WindowSeconds: 60,
		Description:   "Read operations - 300 requests/minute",
	},
	TierWrite: {
		Tier:          TierWrite,
		Limit:         60,
		WindowSeconds: 60,
		Description:   "Record writes and uploads - 60 requests/minute",
	},
	TierDecision: {
		Tier:          TierDecision,
		Limit:         30,
		WindowSeconds: 60,
		Description:   "Workflow decisions (transitions, votes, dispositions) - 30 requests/minute",
	},
}

// GlobalConfig contains global service-wide limits
type GlobalConfig struct {
	Limit         int64 // Total requests per window (all actors)
	WindowSeconds int   // Time window
}

// Default global configuration
var DefaultGlobalConfig = GlobalConfig{
	Limit:         1000,
	WindowSeconds: 60,
}

// GetLimitForTier returns the rate limit for a given tier
func GetLimitForTier(tier OpTier) int64 {
	if config, exists := DefaultTierConfigs[tier]; exists {
		return config.Limit
	}
	// Fallback to most restrictive tier
	return DefaultTierConfigs[TierDecision].Limit
}

// GetWindowForTier returns the time window for a given tier
func GetWindowForTier(tier OpTier) int {
	if config, exists := DefaultTierConfigs[tier]; exists {
		return config.WindowSeconds
	}
	return DefaultTierConfigs[TierDecision].WindowSeconds
}

// GetAllTiers returns all configured tiers for documentation/API responses
func GetAllTiers() []TierConfig {
	return []TierConfig{
		DefaultTierConfigs[TierRead],
		DefaultTierConfigs[TierWrite],
		DefaultTierConfigs[TierDecision],
	}
}
