package ranking

// PriorityMultiplier scales the score by the entry's editorial priority.
type PriorityMultiplier struct {
	config *RankingConfig
}

// NewPriorityMultiplier creates a new PriorityMultiplier.
func NewPriorityMultiplier(config *RankingConfig) *PriorityMultiplier {
	return &PriorityMultiplier{config: config}
}

// Name returns the multiplier name.
func (m *PriorityMultiplier) Name() string {
	return "priority"
}

// Multiply returns baseScore * (priority / PriorityScale). The ratio is taken
// first; rounding differs from multiplying first and decides close rankings.
func (m *PriorityMultiplier) Multiply(ctx *ScoringContext, baseScore float64) float64 {
	if baseScore == 0 {
		return 0
	}
	return baseScore * (float64(ctx.Entry.Priority) / m.config.PriorityScale)
}

// DefaultMultipliers returns the default set of multipliers.
func DefaultMultipliers(config *RankingConfig) []Multiplier {
	return []Multiplier{
		NewPriorityMultiplier(config),
	}
}
