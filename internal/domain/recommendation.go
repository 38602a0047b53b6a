package domain

import (
	"fmt"
	"strings"
)

// Action is the recommended trade direction.
type Action string

const (
	ActionBuy  Action = "buy"
	ActionSell Action = "sell"
	ActionHold Action = "hold"
)

// Priority ranks recommendations.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Rank returns a sort key, lower is more urgent.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	}
	return 2
}

// RiskTolerance is the user's risk profile.
type RiskTolerance string

const (
	ToleranceConservative RiskTolerance = "conservative"
	ToleranceModerate     RiskTolerance = "moderate"
	ToleranceAggressive   RiskTolerance = "aggressive"
)

// IsValid checks if the tolerance is a supported value.
func (t RiskTolerance) IsValid() bool {
	return t == ToleranceConservative || t == ToleranceModerate || t == ToleranceAggressive
}

// ParseRiskTolerance parses a tolerance string.
func ParseRiskTolerance(s string) (RiskTolerance, error) {
	t := RiskTolerance(strings.ToLower(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", fmt.Errorf("unknown risk tolerance %q", s)
	}
	return t, nil
}

// Recommendation is one rule-based rebalancing suggestion.
type Recommendation struct {
	Action    Action   `json:"action"`
	Asset     string   `json:"asset"`
	AmountUSD float64  `json:"amount_usd"`
	Rationale string   `json:"rationale"`
	Priority  Priority `json:"priority"`
}

// RebalancePlan is the advisor output.
type RebalancePlan struct {
	Tolerance        RiskTolerance    `json:"tolerance"`
	Recommendations  []Recommendation `json:"recommendations"`
	TotalVolumeUSD   float64          `json:"total_volume_usd"`
	EstimatedCostUSD float64          `json:"estimated_cost_usd"`
}
