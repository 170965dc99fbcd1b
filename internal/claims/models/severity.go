package models

import (
	"strings"

	dErrors "claimguard/pkg/domain-errors"
)

// Severity is the ordinal damage scale shared by self-reports and the vision model.
type Severity string

const (
	SeverityMinor     Severity = "minor"
	SeverityModerate  Severity = "moderate"
	SeverityMajor     Severity = "major"
	SeverityTotalLoss Severity = "total_loss"
)

var severityRank = map[Severity]int{
	SeverityMinor:     0,
	SeverityModerate:  1,
	SeverityMajor:     2,
	SeverityTotalLoss: 3,
}

// Rank returns the position on Minor<Moderate<Major<TotalLoss, or -1 if unknown.
func (s Severity) Rank() int {
	if r, ok := severityRank[s]; ok {
		return r
	}
	return -1
}

func (s Severity) IsValid() bool {
	return s.Rank() >= 0
}

// ParseSeverity accepts the canonical names plus the labels used by the claim forms
// ("Minor Scratch", "Moderate Dent", "Major Damage", "Total Loss").
func ParseSeverity(s string) (Severity, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer("-", "_", " ", "_").Replace(norm)
	switch norm {
	case "minor", "minor_scratch":
		return SeverityMinor, nil
	case "moderate", "moderate_dent":
		return SeverityModerate, nil
	case "major", "major_damage":
		return SeverityMajor, nil
	case "total_loss", "totalloss":
		return SeverityTotalLoss, nil
	}
	return "", dErrors.Newf(dErrors.CodeValidation, "unknown severity %q", s)
}

// CollisionType describes how the incident happened.
type CollisionType string

const (
	CollisionRollover         CollisionType = "rollover"
	CollisionFrontEnd         CollisionType = "front_end"
	CollisionRearEnd          CollisionType = "rear_end"
	CollisionSideImpact       CollisionType = "side_impact"
	CollisionStationaryObject CollisionType = "stationary_object"
	CollisionOther            CollisionType = "other"
)

func ParseCollisionType(s string) (CollisionType, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer("-", "_", " ", "_").Replace(norm)
	switch CollisionType(norm) {
	case CollisionRollover, CollisionFrontEnd, CollisionRearEnd, CollisionSideImpact,
		CollisionStationaryObject, CollisionOther:
		return CollisionType(norm), nil
	}
	return "", dErrors.Newf(dErrors.CodeValidation, "unknown collision type %q", s)
}
