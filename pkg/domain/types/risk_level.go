package types

// RiskLevel is the qualitative band produced by the risk matrix.
// Labels are kept exactly as the product displays them; note that the 5x5
// grid uses the accented "Médio" while the 4x4 and 3x3 grids do not.
type RiskLevel string

const (
	RiskLevelVeryHigh    RiskLevel = "Muito Alto"
	RiskLevelCritical    RiskLevel = "Critico"
	RiskLevelHigh        RiskLevel = "Alto"
	RiskLevelMedium      RiskLevel = "Médio"
	RiskLevelMediumPlain RiskLevel = "Medio"
	RiskLevelLow         RiskLevel = "Baixo"
	RiskLevelVeryLow     RiskLevel = "Muito Baixo"
)

// String returns the string representation of the risk level
func (l RiskLevel) String() string {
	return string(l)
}

// Emoji returns an indicator used in notifications and CLI output
func (l RiskLevel) Emoji() string {
	switch l {
	case RiskLevelVeryHigh, RiskLevelCritical:
		return "🔴"
	case RiskLevelHigh:
		return "🟠"
	case RiskLevelMedium, RiskLevelMediumPlain:
		return "🟡"
	case RiskLevelLow:
		return "🟢"
	case RiskLevelVeryLow:
		return "⚪"
	default:
		return "❔"
	}
}
