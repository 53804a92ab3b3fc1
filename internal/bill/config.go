package bill

// Config holds the validation and deduplication policy. The keyword list
// and thresholds are data so the policy can be tuned and tested without
// touching the algorithms.
type Config struct {
	// MinNameLength is the minimum trimmed item name length to accept
	MinNameLength int

	// SimilarityThreshold is the Jaccard score (exclusive) above which two
	// near-matching names are candidates for merging
	SimilarityThreshold float64

	// AmountEpsilon is the absolute amount difference treated as equal
	AmountEpsilon float64

	// RelativeAmountTolerance is the relative amount difference below which
	// near-matching names are merged
	RelativeAmountTolerance float64

	// TotalKeywords are names that indicate a running total, not an item
	TotalKeywords []string

	// MaxTotalNameLength caps how long a name can be and still be
	// classified as a total line
	MaxTotalNameLength int

	// TotalResidues are the leftovers allowed after stripping a total
	// keyword from a name for it to still count as a total line
	TotalResidues []string
}

// DefaultConfig returns the standard validation policy
func DefaultConfig() Config {
	return Config{
		MinNameLength:           2,
		SimilarityThreshold:     0.8,
		AmountEpsilon:           0.01,
		RelativeAmountTolerance: 0.05,
		TotalKeywords: []string{
			"total", "subtotal", "sub-total", "grand total",
			"final total", "net amount", "amount due",
			"balance", "sum", "total amount", "final amount",
		},
		MaxTotalNameLength: 30,
		TotalResidues:      []string{"", "-", ":", "="},
	}
}
