package engine

import "time"

// Config holds the engine's tunable parameters. The confidence thresholds
// and derivation heuristics are hand-tuned; callers can override any of
// them from application config.
type Config struct {
	// TrustedConfidence is the score at or above which a decision is
	// considered trustworthy. Fallback results always land below it.
	TrustedConfidence float64 `yaml:"trusted_confidence"`

	// FallbackConfidence is the floor under which an AI decision is
	// discarded in favor of the pattern matcher.
	FallbackConfidence float64 `yaml:"fallback_confidence"`

	// AIDefaultConfidence is assigned when the model does not estimate
	// its own confidence.
	AIDefaultConfidence float64 `yaml:"ai_default_confidence"`

	// Pattern matcher confidence bands, all below TrustedConfidence.
	ConfirmConfidence float64 `yaml:"confirm_confidence"` // explicit confirm/decline keywords
	ItemConfidence    float64 `yaml:"item_confidence"`    // quantity + fuzzy item match
	KeywordConfidence float64 `yaml:"keyword_confidence"` // recommendation / status keywords
	VagueConfidence   float64 `yaml:"vague_confidence"`   // generic no-action fallthrough

	// AITimeout bounds the single outbound model call.
	AITimeout time.Duration `yaml:"-"`

	// MaxQuantity is the upper clamp for a single line item.
	MaxQuantity int `yaml:"max_quantity"`

	// HistoryWindow bounds how many conversation turns reach the model.
	HistoryWindow int `yaml:"history_window"`

	// RecentOrderWindow and RecentOrderLimit scope table-level order
	// lookups when no session exists.
	RecentOrderWindow time.Duration `yaml:"-"`
	RecentOrderLimit  int           `yaml:"recent_order_limit"`

	// PrepMinutes maps a menu category to an estimated prep time.
	PrepMinutes map[string]int `yaml:"prep_minutes"`
}

// DefaultConfig returns the engine defaults
func DefaultConfig() Config {
	return Config{
		TrustedConfidence:   0.8,
		FallbackConfidence:  0.5,
		AIDefaultConfidence: 0.85,
		ConfirmConfidence:   0.7,
		ItemConfidence:      0.6,
		KeywordConfidence:   0.5,
		VagueConfidence:     0.4,
		AITimeout:           15 * time.Second,
		MaxQuantity:         20,
		HistoryWindow:       10,
		RecentOrderWindow:   2 * time.Hour,
		RecentOrderLimit:    10,
		PrepMinutes: map[string]int{
			"appetizer": 10,
			"salad":     8,
			"side":      8,
			"entree":    20,
			"dessert":   12,
			"beverage":  3,
		},
	}
}

// prepMinutesFor returns the prep estimate for a category, with a
// conservative default for unknown categories.
func (c Config) prepMinutesFor(category string) int {
	if m, ok := c.PrepMinutes[category]; ok {
		return m
	}
	return 15
}
