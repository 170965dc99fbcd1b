package models

// ClaimStats aggregates the dashboard KPIs over a set of claims.
type ClaimStats struct {
	TotalClaims      int           `json:"total_claims"`
	TotalLossCount   int           `json:"total_loss_count"`
	MajorDamageCount int           `json:"major_damage_count"`
	TotalAmount      Money         `json:"total_amount"`
	ByState          map[State]int `json:"by_state"`
}

// NewClaimStats returns zeroed stats.
func NewClaimStats() ClaimStats {
	return ClaimStats{ByState: make(map[State]int)}
}

// Add folds one claim summary into the totals.
func (s *ClaimStats) Add(c ClaimSummary) {
	s.TotalClaims++
	s.TotalAmount += c.ClaimedAmount
	s.ByState[c.State]++
	switch c.ReportedSeverity {
	case SeverityTotalLoss:
		s.TotalLossCount++
	case SeverityMajor:
		s.MajorDamageCount++
	}
}
